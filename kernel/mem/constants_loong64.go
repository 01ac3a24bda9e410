//go:build loong64

package mem

// LoongArch64 uses a 4-level page table over a 4KiB page in the
// configuration this kernel targets.
const (
	VAWidth = 48

	PAWidth = 48
)
