// Package kmain is the boot hart's and secondary harts' entry point,
// called from the assembly trampoline in cmd/kernel (the teacher's
// boot.go/stub.go analogue) after early assembly has installed a boot
// stack, identity-mapped a 1 GiB page, enabled paging, and jumped to the
// high-half (spec.md §6 "Kernel entry"). It performs the "boot hart
// initializes B->D->E, awakens other harts, then each hart enters its
// executor loop (F)" sequence spec.md §2's control-flow paragraph
// describes.
package kmain

import (
	"noaxiom/kernel"
	"noaxiom/kernel/arch"
	_ "noaxiom/kernel/goruntime"
	"noaxiom/kernel/hal"
	_ "noaxiom/kernel/ipi"
	"noaxiom/kernel/mem/pmm/allocator"
	"noaxiom/kernel/mem/vmm"
	noaxiomruntime "noaxiom/kernel/runtime"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// EntryOtherHart is the physical address of _entry_other_hart. cmd/kernel's
// assembly trampoline sets this before calling Kmain, since the symbol is
// resolved by the linker, not by anything expressible in this package.
var EntryOtherHart uintptr

// Kmain is the boot hart's entry point. hartID and dtbPhys come straight
// from the registers the early assembly trampoline received;
// kernelStart/kernelEnd bound the kernel image so the frame allocator
// knows which physical frames are already spoken for.
//
// Kmain is not expected to return. If it does, the rt0 trampoline halts
// the hart.
//
//go:noinline
func Kmain(hartID uint32, dtbPhys, kernelStart, kernelEnd uintptr) {
	arch.Init(newArch(hartID))
	info := hal.Init(dtbPhys)

	var err *kernel.Error
	if err = allocator.Init(kernelStart, kernelEnd); err != nil {
		kernel.Panic(err)
	} else if err = vmm.Init(); err != nil {
		kernel.Panic(err)
	}

	for _, other := range info.HartIDs {
		if other == hartID {
			continue
		}
		if werr := hal.StartHart(other, EntryOtherHart, 0); werr != nil {
			kernel.Panic(&kernel.Error{Module: "kmain", Message: werr.Error()})
		}
	}

	noaxiomruntime.Run(hartID)

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead-code and eliminating it.
	kernel.Panic(errKmainReturned)
}

// KmainOtherHart is entered by every hart other than the boot hart, after
// _entry_other_hart's early assembly has done the same minimal per-hart
// setup the boot path does. It never runs B/D's one-time initialization
// again: the frame allocator and every MemorySet are already live by the
// time any hart other than the boot hart is running.
//
//go:noinline
func KmainOtherHart(hartID uint32) {
	arch.Init(newArch(hartID))
	noaxiomruntime.Run(hartID)
	kernel.Panic(errKmainReturned)
}
