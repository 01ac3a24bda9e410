// Package pmm manages physical memory frame allocation and the per-frame
// reference counts that back copy-on-write sharing.
package pmm

import (
	"math"
	"sync"
	"sync/atomic"

	"noaxiom/kernel/mem"
)

// Frame describes a physical memory page index.
type Frame uint64

const (
	// InvalidFrame is returned by allocators when they fail to reserve
	// the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// IsValid returns true if this is a valid frame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns a pointer to the physical memory address pointed to by
// this frame.
func (f Frame) Address() uintptr {
	return uintptr(f << mem.PageShift)
}

// refCounts tracks, per frame number, the number of page-table entries
// (across every address space) that currently point at it. A frame with
// refcount 0 is not owned by anyone and must come from the free list; a
// frame with refcount 1 can be realized in place on a COW fault without a
// copy (spec.md §4.D, §8 scenario 3).
//
// The map is sparse: only frames that are shared (refcount > 1) or that
// are mid-COW-teardown need an entry. A frame freshly handed out by the
// allocator is implicitly refcount 1 until Share or Release says otherwise.
var refCounts sync.Map

// Share increments the reference count of frame, returning the count after
// the increment. Called once per additional page-table entry that starts
// pointing at the frame (fork's COW duplication, or a shared mmap).
func Share(f Frame) uint32 {
	v, loaded := refCounts.LoadOrStore(f, new(uint32))
	p := v.(*uint32)
	if !loaded {
		// No prior entry means the frame was implicitly at refcount 1
		// (the original owner); account for it before adding the new
		// sharer so the stored count reflects both owners.
		atomic.StoreUint32(p, 1)
	}
	return atomic.AddUint32(p, 1)
}

// initRefcount sets the starting refcount of a frame that has just been
// handed out by the allocator (always 1: the allocating owner).
func initRefcount(f Frame) {
	n := uint32(1)
	refCounts.Store(f, &n)
}

// Refcount returns the current reference count of frame. A frame with no
// tracking entry (never shared) reports 1 whether or not it is currently
// allocated; Refcount cannot tell a free frame from an unshared one.
func Refcount(f Frame) uint32 {
	v, ok := refCounts.Load(f)
	if !ok {
		return 1
	}
	return atomic.LoadUint32(v.(*uint32))
}

// Release decrements the reference count of frame and returns the count
// after the decrement. When it reaches zero the caller is responsible for
// returning the frame to the free-frame allocator.
func Release(f Frame) uint32 {
	v, ok := refCounts.Load(f)
	if !ok {
		return 0
	}
	n := atomic.AddUint32(v.(*uint32), ^uint32(0))
	if n == 0 {
		refCounts.Delete(f)
	}
	return n
}
