package vmm

import (
	"github.com/google/btree"

	"noaxiom/kernel"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm"
	"noaxiom/kernel/sync"
)

// AreaKind distinguishes the four ways a MapArea's virtual pages can be
// backed, as listed by the MapArea invariant.
type AreaKind uint8

const (
	// AreaIdentical maps va == pa; used for low-memory kernel regions.
	AreaIdentical AreaKind = iota
	// AreaFramed owns a private, allocator-backed frame per page.
	AreaFramed
	// AreaDirect labels an area for a linear offset mapping into the
	// physical address space (e.g. the high-half direct map of all of
	// RAM). MapArea carries no physical offset, so InsertArea backs a
	// Direct area with freshly allocated frames, the same as AreaFramed;
	// no offset mapping is made.
	AreaDirect
	// AreaFileBacked is a lazily realized mmap of a file region.
	AreaFileBacked
)

// FileSource is the minimal contract a file-backed MapArea needs from its
// backing file: read a page's worth of bytes at a given file offset. The
// concrete implementation lives in the (out-of-scope) VFS layer; this
// interface is the seam memory_validate uses to ask for one.
type FileSource interface {
	ReadPage(fileOffset int64, dst []byte) (int, error)
}

// MapArea is a contiguous, page-aligned [StartVPN, EndVPN) range of a
// single address space (spec.md §3 MapArea). Areas within a MemorySet are
// disjoint; EndVPN is exclusive.
type MapArea struct {
	StartVPN, EndVPN uintptr
	Flags            PageTableEntryFlag
	Kind             AreaKind

	// File and FileOffset are only meaningful when Kind == AreaFileBacked;
	// FileOffset is the byte offset into File that StartVPN maps to.
	File       FileSource
	FileOffset int64
}

// Contains reports whether vpn falls inside this area.
func (a *MapArea) Contains(vpn uintptr) bool {
	return vpn >= a.StartVPN && vpn < a.EndVPN
}

// overlaps reports whether a and b's vpn ranges intersect.
func (a *MapArea) overlaps(b *MapArea) bool {
	return a.StartVPN < b.EndVPN && b.StartVPN < a.EndVPN
}

func lessArea(a, b *MapArea) bool {
	return a.StartVPN < b.StartVPN
}

var (
	errOverlappingArea = &kernel.Error{Module: "vmm", Message: "map area overlaps an existing area"}
	errNoSuchArea      = &kernel.Error{Module: "vmm", Message: "no map area covers the requested range"}
	errPartialRemoval  = &kernel.Error{Module: "vmm", Message: "removal range is not a whole area or a covering prefix/suffix"}
	errBrkCeiling      = &kernel.Error{Module: "vmm", Message: "brk request exceeds the configured heap ceiling"}
	errBrkBelowBase    = &kernel.Error{Module: "vmm", Message: "brk request shrinks below the area base"}

	// ErrNeedsPageIn is returned by Validate when the faulting page belongs
	// to a file-backed mmap area with no leaf installed yet. kernel/trap,
	// which owns the future machinery vmm does not depend on, recovers the
	// owning area via AreaAt, performs the async read, and finishes the
	// fault with InstallFileBackedPage. This keeps the file-backed slow
	// path async at the layer that actually has an executor, while the
	// fast paths (COW, anonymous lazy alloc) stay synchronous here.
	ErrNeedsPageIn = &kernel.Error{Module: "vmm", Message: "page requires an async file read"}
)

// MemorySet is the address space of a process (spec.md §3): a page-table
// root, a disjoint collection of map-areas, a brk area, a stack area, and
// an mmap range. Shared between every thread of a process under a single
// lock.
type MemorySet struct {
	lock sync.SpinLock

	pdt   PageDirectoryTable
	areas *btree.BTreeG[*MapArea]

	brkArea   *MapArea
	stackArea *MapArea

	mmapStart, mmapNext, mmapTop uintptr
}

// NewMemorySet allocates a fresh root page table and an empty area set.
func NewMemorySet(mmapStart, mmapTop uintptr) (*MemorySet, *kernel.Error) {
	rootFrame, err := frameAllocator()
	if err != nil {
		return nil, err
	}

	ms := &MemorySet{
		areas:     btree.NewG(32, lessArea),
		mmapStart: mmapStart,
		mmapNext:  mmapStart,
		mmapTop:   mmapTop,
	}
	if err := ms.pdt.Init(rootFrame); err != nil {
		return nil, err
	}
	return ms, nil
}

// RootFrame returns the physical frame backing this address space's root
// page table, used by the scheduler to program SetRootPPN on a task switch.
func (ms *MemorySet) RootFrame() pmm.Frame {
	return ms.pdt.RootFrame()
}

// Activate installs this address space's page table as the hart's active
// root table.
func (ms *MemorySet) Activate() {
	ms.pdt.Activate()
}

// AreaAt returns the map area covering vpn, used by kernel/trap to recover
// the file source and offset after Validate returns ErrNeedsPageIn.
func (ms *MemorySet) AreaAt(vpn uintptr) *MapArea {
	defer sync.Guard(&ms.lock)()
	return ms.findArea(vpn)
}

// findArea returns the area covering vpn, or nil.
func (ms *MemorySet) findArea(vpn uintptr) *MapArea {
	var found *MapArea
	ms.areas.DescendLessOrEqual(&MapArea{StartVPN: vpn}, func(item *MapArea) bool {
		if item.Contains(vpn) {
			found = item
		}
		return false
	})
	return found
}

// InsertArea installs a new map area. Framed/Identical/Direct areas are
// realized eagerly (their leaves are mapped immediately): an Identical
// area maps each vpn to the frame of the same number, the others get a
// freshly allocated frame per page. Callers that want
// a lazy area (brk, stack, anonymous mmap) should pass an AreaFileBacked or
// otherwise avoid eager realization by using ReserveLazyArea instead.
func (ms *MemorySet) InsertArea(area *MapArea) *kernel.Error {
	defer sync.Guard(&ms.lock)()

	var conflict bool
	ms.areas.AscendRange(&MapArea{StartVPN: 0}, &MapArea{StartVPN: ^uintptr(0)}, func(existing *MapArea) bool {
		if existing.overlaps(area) {
			conflict = true
			return false
		}
		return true
	})
	if conflict {
		return errOverlappingArea
	}

	if area.Kind != AreaFileBacked {
		for vpn := area.StartVPN; vpn < area.EndVPN; vpn++ {
			frame := pmm.Frame(vpn)
			if area.Kind != AreaIdentical {
				var err *kernel.Error
				if frame, err = frameAllocator(); err != nil {
					return err
				}
			}
			if err := ms.pdt.Map(Page(vpn), frame, leafFlags(area.Flags)); err != nil {
				return err
			}
		}
	}

	ms.areas.ReplaceOrInsert(area)
	return nil
}

// ReserveLazyArea installs bookkeeping for an area whose leaves are left
// unmapped until first touch (stack/brk/anonymous mmap), per spec.md §4.D
// "Map-area install/remove".
func (ms *MemorySet) ReserveLazyArea(area *MapArea) *kernel.Error {
	defer sync.Guard(&ms.lock)()

	var conflict bool
	ms.areas.AscendRange(&MapArea{StartVPN: 0}, &MapArea{StartVPN: ^uintptr(0)}, func(existing *MapArea) bool {
		if existing.overlaps(area) {
			conflict = true
			return false
		}
		return true
	})
	if conflict {
		return errOverlappingArea
	}

	ms.areas.ReplaceOrInsert(area)
	return nil
}

// RemoveArea removes a region that must be exactly one whole area or a
// prefix/suffix of one; a hole punched in the middle is rejected since
// spec.md §4.D only allows whole-area or covering prefix/suffix removal.
func (ms *MemorySet) RemoveArea(startVPN, endVPN uintptr) *kernel.Error {
	defer sync.Guard(&ms.lock)()

	area := ms.findArea(startVPN)
	if area == nil || endVPN > area.EndVPN {
		return errNoSuchArea
	}

	switch {
	case startVPN == area.StartVPN && endVPN == area.EndVPN:
		ms.areas.Delete(area)
	case startVPN == area.StartVPN:
		ms.areas.Delete(area)
		area.StartVPN = endVPN
		ms.areas.ReplaceOrInsert(area)
	case endVPN == area.EndVPN:
		area.EndVPN = startVPN
	default:
		return errPartialRemoval
	}

	for vpn := startVPN; vpn < endVPN; vpn++ {
		if err := ms.pdt.Unmap(Page(vpn)); err != nil && err != ErrInvalidMapping {
			return err
		}
	}
	return nil
}

// Validate is the memory_validate entry point (spec.md §4.D): given a
// faulting vpn and whether the access was a store, it resolves COW faults
// and lazy allocations in place, returning nil on success.
//
// The pte argument is non-nil only for faults the caller already resolved
// down to an existing leaf entry (COW realization); pass nil for an
// address with no leaf yet, which dispatches on the owning area. A caller
// that hasn't already walked the table for a write fault should try
// HandlePageFault first (it realizes an existing present COW leaf); this
// method's nil-pte path assumes no leaf is mapped yet.
func (ms *MemorySet) Validate(vpn uintptr, write bool, pte *pageTableEntry) *kernel.Error {
	defer sync.Guard(&ms.lock)()

	if pte != nil {
		if pte.HasFlags(FlagCopyOnWrite) {
			return realizeCOW(PageFromAddress(Page(vpn).Address()), pte)
		}
		if write && !pte.HasFlags(FlagRW) {
			return ErrInvalidMapping
		}
		return nil
	}

	area := ms.findArea(vpn)
	if area == nil {
		return ErrInvalidMapping
	}

	switch area.Kind {
	case AreaFileBacked:
		if area.File == nil {
			return ErrInvalidMapping
		}
		return ErrNeedsPageIn
	default:
		frame, err := frameAllocator()
		if err != nil {
			return err
		}
		return ms.pdt.Map(Page(vpn), frame, leafFlags(area.Flags))
	}
}

// InstallFileBackedPage finishes a lazy file-backed fault once the caller
// has read the page contents into frame (via area.File.ReadPage).
func (ms *MemorySet) InstallFileBackedPage(area *MapArea, vpn uintptr, frame pmm.Frame) *kernel.Error {
	defer sync.Guard(&ms.lock)()
	return ms.pdt.Map(Page(vpn), frame, leafFlags(area.Flags))
}

// reserveMmapRange bumps the mmap bump-allocator by size bytes and returns
// the start address of the reserved range, or errBrkCeiling if it would
// overrun mmapTop.
func (ms *MemorySet) reserveMmapRange(size uintptr) (uintptr, *kernel.Error) {
	defer sync.Guard(&ms.lock)()

	start := ms.mmapNext
	if start+size > ms.mmapTop {
		return 0, errBrkCeiling
	}
	ms.mmapNext += size
	return start, nil
}

// Mmap inserts a descriptor into the mmap range (spec.md §4.D "mmap").
// Without fixed, start is ignored and the mmap bump allocator chooses the
// address. With fixed (MAP_FIXED), start is honored exactly and the range
// is first removed from the area covering its first page when the range is
// that whole area, a prefix or a suffix of it. A fixed range that punches
// a hole in that area returns errPartialRemoval; a fixed range that runs
// past the covering area, or overlaps an area that does not cover its
// first page, is not removed and the insertion fails with
// errOverlappingArea. No pages are allocated; realization happens lazily
// through Validate.
func (ms *MemorySet) Mmap(length mem.Size, flags PageTableEntryFlag, fixed bool, start uintptr, file FileSource, fileOffset int64) (uintptr, *kernel.Error) {
	pageCount := (uintptr(length) + mem.PageSize - 1) >> mem.PageShift

	var startVPN uintptr
	if fixed {
		startVPN = start >> mem.PageShift
		if err := ms.RemoveArea(startVPN, startVPN+pageCount); err != nil && err != errNoSuchArea {
			return 0, err
		}
	} else {
		next, err := ms.reserveMmapRange(pageCount << mem.PageShift)
		if err != nil {
			return 0, err
		}
		startVPN = next >> mem.PageShift
	}

	area := &MapArea{StartVPN: startVPN, EndVPN: startVPN + pageCount, Flags: flags}
	if file != nil {
		area.Kind = AreaFileBacked
		area.File = file
		area.FileOffset = fileOffset
	}
	if err := ms.ReserveLazyArea(area); err != nil {
		return 0, err
	}

	return startVPN << mem.PageShift, nil
}

// Munmap removes a previously mmap'd region.
func (ms *MemorySet) Munmap(start uintptr, length mem.Size) *kernel.Error {
	startVPN := start >> mem.PageShift
	endVPN := (start + uintptr(length) + mem.PageSize - 1) >> mem.PageShift
	return ms.RemoveArea(startVPN, endVPN)
}

// Brk grows or shrinks the brk area, enforcing the kconfig-configured
// ceiling (spec.md §4.D "brk").
func (ms *MemorySet) Brk(newBrk uintptr) (uintptr, *kernel.Error) {
	defer sync.Guard(&ms.lock)()

	if ms.brkArea == nil {
		return 0, errNoSuchArea
	}

	base := ms.brkArea.StartVPN << mem.PageShift
	if newBrk < base {
		return 0, errBrkBelowBase
	}
	if newBrk-base > kconfig.KernelHeapSize {
		return 0, errBrkCeiling
	}

	newEndVPN := (newBrk + mem.PageSize - 1) >> mem.PageShift
	if newEndVPN < ms.brkArea.EndVPN {
		for vpn := newEndVPN; vpn < ms.brkArea.EndVPN; vpn++ {
			_ = ms.pdt.Unmap(Page(vpn))
		}
	}
	ms.brkArea.EndVPN = newEndVPN

	return newBrk, nil
}

// Fork duplicates this address space for clone(2) without CLONE_VM: every
// present writable leaf in a Framed area is cleared of W and marked COW in
// both this MemorySet's table and the child's, and the backing frame's
// refcount is incremented (spec.md §4.D "Copy-on-write (fork)").
func (ms *MemorySet) Fork() (*MemorySet, *kernel.Error) {
	defer sync.Guard(&ms.lock)()

	child, err := NewMemorySet(ms.mmapStart, ms.mmapTop)
	if err != nil {
		return nil, err
	}

	var forkErr *kernel.Error
	ms.areas.Ascend(func(area *MapArea) bool {
		childArea := &MapArea{
			StartVPN: area.StartVPN, EndVPN: area.EndVPN,
			Flags: area.Flags, Kind: area.Kind,
			File: area.File, FileOffset: area.FileOffset,
		}
		child.areas.ReplaceOrInsert(childArea)

		if area.Kind != AreaFramed {
			return true
		}

		for vpn := area.StartVPN; vpn < area.EndVPN; vpn++ {
			pte, err := pteForAddress(Page(vpn).Address())
			if err != nil {
				continue // not yet realized; lazily faulted in by both sides independently
			}
			if !pte.HasFlags(FlagRW) {
				continue
			}

			frame := pte.Frame()
			cowFlags := (area.Flags &^ FlagRW) | FlagCopyOnWrite

			if forkErr = ms.pdt.Map(Page(vpn), frame, leafFlags(cowFlags)); forkErr != nil {
				return false
			}
			pmm.Share(frame)
			if forkErr = child.pdt.Map(Page(vpn), frame, leafFlags(cowFlags)); forkErr != nil {
				return false
			}
		}
		return true
	})
	if forkErr != nil {
		return nil, forkErr
	}

	child.brkArea = copyAreaRef(ms.brkArea)
	child.stackArea = copyAreaRef(ms.stackArea)
	return child, nil
}

func copyAreaRef(a *MapArea) *MapArea {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// SetBrkArea and SetStackArea record the distinguished areas a MemorySet
// tracks per spec.md §3; callers install them via ReserveLazyArea first.
func (ms *MemorySet) SetBrkArea(a *MapArea)   { ms.brkArea = a }
func (ms *MemorySet) SetStackArea(a *MapArea) { ms.stackArea = a }
