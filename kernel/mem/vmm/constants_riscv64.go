//go:build riscv64

package vmm

// Sv39 uses a 3-level page table with 9 bits of VPN per level and a 4KiB
// page size, giving a 39-bit virtual address space.
const (
	pageLevels = 3

	// pdtVirtualAddr is the virtual address used to access the currently
	// active page directory table through its own recursive entry
	// (VPN[2] == the last entry in the top-level table).
	pdtVirtualAddr = 0xffffffffc0000000

	// tempMappingAddr is the virtual address the kernel uses to
	// temporarily map an arbitrary physical frame.
	tempMappingAddr = 0xffffffffbffff000
)

var (
	pageLevelBits   = [pageLevels]uint8{9, 9, 9}
	pageLevelShifts = [pageLevels]uint8{30, 21, 12}
)

// Sv39 PTE layout (bits 63..10 hold the PPN):
//
//	9 8 7 6 5 4 3 2 1 0
//	[RSW][D][A][G][U][X][W][R][V]
const (
	pteFlagV = PageTableEntryFlag(1 << 0)
	pteFlagR = PageTableEntryFlag(1 << 1)
	pteFlagW = PageTableEntryFlag(1 << 2)
	pteFlagX = PageTableEntryFlag(1 << 3)

	// FlagPresent marks a page table entry as valid.
	FlagPresent = pteFlagV

	// FlagRW marks a leaf entry as writable. Sv39 treats W=1,R=0 as a
	// reserved encoding so RW always carries both bits.
	FlagRW = pteFlagR | pteFlagW

	// FlagUser allows user-mode access to the mapped page.
	FlagUser = PageTableEntryFlag(1 << 4)

	// FlagGlobal marks the mapping as present in every address space,
	// exempting it from ASID-qualified TLB invalidation.
	FlagGlobal = PageTableEntryFlag(1 << 5)

	// FlagAccessed is set by the hardware on first access.
	FlagAccessed = PageTableEntryFlag(1 << 6)

	// FlagDirty is set by the hardware on first write.
	FlagDirty = PageTableEntryFlag(1 << 7)

	// FlagCopyOnWrite is a software-defined bit (Sv39 RSW field) used to
	// mark pages that must be duplicated on the next write fault.
	FlagCopyOnWrite = PageTableEntryFlag(1 << 8)

	// FlagNoExecute is a software bookkeeping bit; Map() translates it
	// into the absence of the hardware X bit when it builds a leaf PTE.
	FlagNoExecute = PageTableEntryFlag(1 << 9)

	// FlagHugePage matches against any of the R/W/X bits being set on an
	// intermediate-level entry, which in Sv39 means the walk terminated
	// early at a leaf larger than the base page size.
	FlagHugePage = pteFlagR | pteFlagW | pteFlagX

	ptePPNShift     = 10
	ptePhysPageMask = ^(uintptr(1<<ptePPNShift) - 1)
)
