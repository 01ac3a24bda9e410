//go:build riscv64

package kmain

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/arch/riscv64"
)

// newArch returns this GOARCH's arch.Arch implementation for hartID. Kept
// behind a build tag (one file per GOARCH) rather than a runtime.GOARCH
// switch so a riscv64 build never even links the loong64 package, mirroring
// how the teacher keeps amd64-only code behind its own build constraints.
func newArch(hartID uint32) arch.Arch { return riscv64.New(hartID) }
