// Package sync provides the kernel's synchronization primitives: an
// irq-safe spinlock (the only primitive everything above the arch layer is
// built on, spec.md §4.C) and an async mutex layered above it for critical
// sections that must span an await point.
package sync

import (
	"sync/atomic"

	"noaxiom/kernel/arch"
)

// maxHarts bounds the per-hart nesting-depth table. Bumping it costs one
// extra cache line per additional 8 harts; it is not a hard kernel limit.
const maxHarts = 256

// depth[h] counts how many spinlocks hart h currently holds. It is
// per-hart rather than per-lock because acquiring two different locks on
// the same hart must not re-enable interrupts until the outermost lock is
// released (spec.md §4.C: "recursion across different locks is permitted").
var depth [maxHarts]uint32

// preEnabled[h] records whether interrupts were enabled on hart h just
// before its first (outermost) spinlock acquisition.
var preEnabled [maxHarts]bool

// SpinLock is a lock where a hart trying to acquire it busy-waits until the
// lock becomes available. Acquire disables interrupts on the current hart
// and re-enables them on the matching Release only once the hart's nesting
// depth returns to zero, matching the state interrupts were in before the
// outermost acquisition. The zero value is an unlocked SpinLock.
type SpinLock struct {
	state uint32
}

// Acquire blocks until the lock is held by the current hart. Re-acquiring a
// lock already held by the current hart deadlocks; that is a programming
// error, not a recoverable condition.
func (l *SpinLock) Acquire() {
	h := arch.Current().HartID()

	wasEnabled := arch.Current().DisableInterrupts()
	if depth[h] == 0 {
		preEnabled[h] = wasEnabled
	}
	depth[h]++

	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		// busy-wait; a real implementation would PAUSE/WFE here via
		// an arch hook, omitted since arch exposes no such primitive.
	}
}

// TryAcquire attempts to acquire the lock without blocking. On success it
// performs the same interrupt bookkeeping as Acquire and returns true.
func (l *SpinLock) TryAcquire() bool {
	h := arch.Current().HartID()
	wasEnabled := arch.Current().DisableInterrupts()

	if !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		if wasEnabled {
			arch.Current().EnableInterrupts()
		}
		return false
	}

	if depth[h] == 0 {
		preEnabled[h] = wasEnabled
	}
	depth[h]++
	return true
}

// Release relinquishes a held lock. When the current hart's nesting depth
// returns to zero, interrupts are restored to the state recorded by the
// outermost Acquire.
func (l *SpinLock) Release() {
	atomic.StoreUint32(&l.state, 0)

	h := arch.Current().HartID()
	depth[h]--
	if depth[h] == 0 && preEnabled[h] {
		arch.Current().EnableInterrupts()
	}
}

// HeldByCurrentHart reports whether any spinlock is currently held by the
// calling hart. The runtime asserts this is false at suspension points
// (spec.md §4.C, §8: "Spinlock depth reaches zero between every two
// top-level hart executor iterations").
func HeldByCurrentHart() bool {
	return depth[arch.Current().HartID()] > 0
}

// Guard acquires l and returns a function that releases it, so call sites
// can write `defer sync.Guard(&l)()` to guarantee release on every exit
// path (normal return, panic unwind, early return) as required by spec.md
// §4.C.
func Guard(l *SpinLock) func() {
	l.Acquire()
	return l.Release
}
