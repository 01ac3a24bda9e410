package vmm

import (
	"noaxiom/kernel"
	"noaxiom/kernel/mem"
)

var (
	// earlyReserveLastUsed tracks the last reserved page address and is
	// decreased after each allocation request. It starts at
	// tempMappingAddr, which coincides with the end of the kernel
	// address space carved out for early bootstrap bookkeeping.
	earlyReserveLastUsed = uintptr(tempMappingAddr)

	errEarlyReserveNoSpace = &kernel.Error{Module: "early_reserve", Message: "remaining virtual address space not large enough to satisfy reservation request"}
)

// EarlyReserveRegion reserves a page-aligned contiguous virtual memory
// region with the requested size in the kernel address space and returns
// its virtual address. If size is not a multiple of mem.PageSize it is
// rounded up.
//
// This function allocates regions starting at the end of the kernel
// address space and is only meant to be used during early kernel
// initialization, before the general-purpose allocator is up.
func EarlyReserveRegion(size mem.Size) (uintptr, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)

	if uintptr(size) > earlyReserveLastUsed {
		return 0, errEarlyReserveNoSpace
	}

	earlyReserveLastUsed -= uintptr(size)
	return earlyReserveLastUsed, nil
}
