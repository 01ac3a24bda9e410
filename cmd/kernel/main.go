// cmd/kernel is the trampoline the early assembly (_entry/_entry_other_hart,
// spec.md §6) calls into once it has installed a boot stack, identity-mapped
// a 1 GiB page, enabled paging, and jumped to the high-half. It is the
// direct analogue of the teacher's root-level boot.go/stub.go: a package
// main that exists only so the Go compiler does not optimize the kernel's
// real entry points out of the generated binary, since nothing in a normal
// Go build graph calls them.
package main

import (
	"noaxiom/kernel/kmain"
)

// hartID, dtbPhys, kernelStart and kernelEnd are the values the real
// assembly trampoline would load from registers a0-a3 before calling into
// Go; they are package-level variables rather than literals for the same
// reason the teacher's stub.go uses one for multibootInfoPtr: a bare
// literal argument lets the compiler prove Kmain's result is unused and
// inline/eliminate the call.
var (
	hartID      uint32
	dtbPhys     uintptr
	kernelStart uintptr
	kernelEnd   uintptr
)

// main is the boot hart's entry point (the teacher's boot.go analogue).
// main is not expected to return; if it does, the assembly trampoline
// halts the hart.
func main() {
	kmain.Kmain(hartID, dtbPhys, kernelStart, kernelEnd)
}
