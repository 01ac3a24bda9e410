package vmm

import (
	"noaxiom/kernel"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm"
)

var (
	// frameAllocator points to the frame allocator function registered
	// via SetFrameAllocator; it backs new page tables, COW copies and
	// lazily-realized anonymous pages.
	frameAllocator FrameAllocatorFn

	// ReservedZeroedFrame is the single physical frame every freshly
	// mapped anonymous, not-yet-written page is pointed at with
	// FlagCopyOnWrite: a read sees zeros, a write takes the COW fault
	// path in HandlePageFault and gets its own private frame.
	ReservedZeroedFrame pmm.Frame

	// protectReservedZeroedPage is set once ReservedZeroedFrame has been
	// handed out, so a caller that (incorrectly) asks to map it RW can be
	// refused instead of silently corrupting every lazy mapping sharing it.
	protectReservedZeroedPage bool
)

// SetFrameAllocator registers the frame allocator function the vmm package
// uses whenever it needs a new physical frame.
func SetFrameAllocator(allocFn FrameAllocatorFn) {
	frameAllocator = allocFn
}

// HandlePageFault is invoked by the trap dispatcher (kernel/trap) whenever a
// hart takes a load/store/fetch page-fault trap. It realizes copy-on-write
// mappings in place and reports ErrInvalidMapping for anything else, which
// the caller turns into a SIGSEGV for the faulting task.
func HandlePageFault(faultAddr uintptr, write bool) *kernel.Error {
	var (
		faultPage = PageFromAddress(faultAddr)
		pageEntry *pageTableEntry
	)

	walk(faultPage.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		nextIsPresent := pte.HasFlags(FlagPresent)
		if pteLevel == pageLevels-1 && nextIsPresent {
			pageEntry = pte
		}
		return nextIsPresent
	})

	if pageEntry == nil {
		return ErrInvalidMapping
	}

	if write && !pageEntry.HasFlags(FlagRW) && pageEntry.HasFlags(FlagCopyOnWrite) {
		return realizeCOW(faultPage, pageEntry)
	}

	return ErrInvalidMapping
}

// realizeCOW turns a read-only, copy-on-write leaf entry into a writable
// one. If the backing frame is no longer shared it is realized in place;
// otherwise the faulting task gets a private copy and releases its share of
// the original frame. ReservedZeroedFrame is always copied, since it is
// shared without being reference counted.
func realizeCOW(faultPage Page, pageEntry *pageTableEntry) *kernel.Error {
	frame := pageEntry.Frame()

	if frame != ReservedZeroedFrame && pmm.Refcount(frame) <= 1 {
		pageEntry.ClearFlags(FlagCopyOnWrite)
		pageEntry.SetFlags(FlagRW)
		flushTLBEntryFn(faultPage.Address())
		return nil
	}

	copyFrame, err := frameAllocator()
	if err != nil {
		return err
	}

	tmpPage, err := mapTemporaryFn(copyFrame)
	if err != nil {
		return err
	}
	mem.Memcopy(faultPage.Address(), tmpPage.Address(), mem.PageSize)
	unmapFn(tmpPage)

	pmm.Release(frame)
	pageEntry.ClearFlags(FlagCopyOnWrite)
	pageEntry.SetFlags(FlagRW)
	pageEntry.SetFrame(copyFrame)
	flushTLBEntryFn(faultPage.Address())

	return nil
}

// reserveZeroedFrame reserves the physical frame used together with
// FlagCopyOnWrite for lazy allocation requests (brk growth, anonymous mmap).
func reserveZeroedFrame() *kernel.Error {
	var err *kernel.Error

	if ReservedZeroedFrame, err = frameAllocator(); err != nil {
		return err
	}

	tmpPage, err := mapTemporaryFn(ReservedZeroedFrame)
	if err != nil {
		return err
	}
	mem.Memset(tmpPage.Address(), 0, mem.PageSize)
	unmapFn(tmpPage)

	protectReservedZeroedPage = true
	return nil
}

// Init initializes the vmm subsystem: it requires SetFrameAllocator to have
// already been called, and reserves the zero page used by lazy mappings.
func Init() *kernel.Error {
	return reserveZeroedFrame()
}
