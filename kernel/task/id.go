// Package task implements the process/thread control block (spec.md §4.E):
// the Task object, its clone/exit/wait lifecycle, and the per-task
// bookkeeping (TCB trap state, PCB status/children/signals, fd table,
// SchedEntity) that the runtime and trap dispatcher operate on.
package task

import "noaxiom/kernel/sync"

// TID, TGID, PID and PGID are all the same underlying id space: a thread's
// tid, the tgid of its thread group (the leader's tid), the pid visible to
// wait4 (== tgid), and the process-group id a setpgid call assigns.
type (
	TID  = uint64
	TGID = TID
	PID  = TGID
	PGID = uint64
)

// idAllocator hands out monotonically increasing ids, recycling freed ones
// off a stack (ground on original_source's IndexAllocator: alloc pops the
// most recently freed id before minting a new one).
type idAllocator struct {
	lock     sync.SpinLock
	current  TID
	recycled []TID
}

func (a *idAllocator) alloc() TID {
	defer sync.Guard(&a.lock)()

	if n := len(a.recycled); n > 0 {
		id := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return id
	}
	a.current++
	return a.current
}

func (a *idAllocator) free(id TID) {
	defer sync.Guard(&a.lock)()
	a.recycled = append(a.recycled, id)
}

var tidAllocator idAllocator

// allocTID mints a fresh tid; the zero value is never returned so callers
// can use 0 as a "no task" sentinel.
func allocTID() TID { return tidAllocator.alloc() }

// freeTID returns tid to the allocator once its owning Task has been
// reaped. Freeing a tid that is still referenced anywhere is a programming
// error: a reused tid racing with a stale reference is exactly the bug
// class the recycle stack exists to surface quickly in testing.
func freeTID(tid TID) { tidAllocator.free(tid) }
