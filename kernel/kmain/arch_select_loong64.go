//go:build loong64

package kmain

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/arch/loong64"
)

// newArch returns this GOARCH's arch.Arch implementation for hartID (here,
// LoongArch64's "core ID" plays the same role spec.md's hart id does).
func newArch(hartID uint32) arch.Arch { return loong64.New(hartID) }
