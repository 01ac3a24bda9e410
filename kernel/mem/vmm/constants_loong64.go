//go:build loong64

package vmm

// LoongArch64's default MMU configuration uses a 4-level page table with
// 9 bits of index per level and a 4KiB page size.
const (
	pageLevels = 4

	pdtVirtualAddr  = 0xffffffffc0000000
	tempMappingAddr = 0xffffffffbffff000
)

var (
	pageLevelBits   = [pageLevels]uint8{9, 9, 9, 9}
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// The real LoongArch64 PTE format packs PLV/MAT/RPLV fields around the
// PPN and predates a settled Go toolchain encoding for this target; this
// package approximates it with the same logical bit layout used for the
// riscv64 build so the portable vmm code (walk, Map, Unmap, COW) does not
// need an arch-specific branch. Only the CSR-facing assembly in
// kernel/arch/loong64 programs the real hardware bit positions.
const (
	pteFlagV = PageTableEntryFlag(1 << 0)
	pteFlagR = PageTableEntryFlag(1 << 1)
	pteFlagW = PageTableEntryFlag(1 << 2)
	pteFlagX = PageTableEntryFlag(1 << 3)

	FlagPresent = pteFlagV
	FlagRW      = pteFlagR | pteFlagW

	FlagUser        = PageTableEntryFlag(1 << 4)
	FlagGlobal      = PageTableEntryFlag(1 << 5)
	FlagAccessed    = PageTableEntryFlag(1 << 6)
	FlagDirty       = PageTableEntryFlag(1 << 7)
	FlagCopyOnWrite = PageTableEntryFlag(1 << 8)
	FlagNoExecute   = PageTableEntryFlag(1 << 9)
	FlagHugePage    = pteFlagR | pteFlagW | pteFlagX

	ptePPNShift     = 12
	ptePhysPageMask = ^(uintptr(1<<ptePPNShift) - 1)
)
