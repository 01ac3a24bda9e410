package vmm

import (
	"unsafe"

	"noaxiom/kernel"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm"
)

var (
	// nextAddrFn lets tests override the nextTableAddr calculation used by
	// Map; the compiler inlines the default case.
	nextAddrFn = func(entryAddr uintptr) uintptr {
		return entryAddr
	}

	// flushTLBEntryFn lets tests override calls to flushTLBEntry, which
	// would otherwise require a real MMU.
	flushTLBEntryFn = flushTLBEntry

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}

	errAttemptToRWMapReservedFrame = &kernel.Error{Module: "vmm", Message: "reserved zeroed frame cannot be mapped with RW flag"}
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// Map establishes a mapping between a virtual page and a physical memory
// frame using the currently active page directory table, allocating any
// missing intermediate page tables via the registered frame allocator.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	if protectReservedZeroedPage && frame == ReservedZeroedFrame && flags&pteFlagW != 0 {
		return errAttemptToRWMapReservedFrame
	}

	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(leafFlags(flags))
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasAnyFlag(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = frameAllocator()
			if err != nil {
				return false
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent)

			nextTableAddr := uintptr(unsafe.Pointer(pte)) << pageLevelBits[pteLevel+1]
			mem.Memset(nextAddrFn(nextTableAddr), 0, mem.PageSize)
		}

		return true
	})

	return err
}

// leafFlags translates the logical flags callers pass to Map into the
// hardware bits a leaf PTE needs: FlagPresent plus the readable bit (Sv39
// treats W=1,R=0 as reserved), and the executable bit unless the caller
// asked for FlagNoExecute.
func leafFlags(flags PageTableEntryFlag) PageTableEntryFlag {
	hw := FlagPresent | pteFlagR | (flags &^ FlagNoExecute)
	if flags&FlagNoExecute == 0 {
		hw |= pteFlagX
	}
	return hw
}

// MapTemporary establishes a temporary RW mapping of a physical memory frame
// to a fixed virtual address, overwriting any previous mapping. It is used
// to access and initialize inactive page tables and frames before they are
// reachable through their final mapping.
func MapTemporary(frame pmm.Frame) (Page, *kernel.Error) {
	if err := Map(PageFromAddress(tempMappingAddr), frame, FlagRW|FlagNoExecute); err != nil {
		return 0, err
	}

	return PageFromAddress(tempMappingAddr), nil
}

// Unmap removes a mapping previously installed via Map or MapTemporary.
func Unmap(page Page) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagPresent)
			flushTLBEntryFn(page.Address())
			return true
		}

		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}

		if pte.HasAnyFlag(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		return true
	})

	return err
}
