package runtime

import (
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/task"
)

// Runnable is the executor's type-erased task handle (spec.md §3
// Runnable<R>): it owns a future's poll closure plus the scheduling
// metadata an executor needs without knowing the future's output type.
type Runnable struct {
	poll func(cx *Context) bool // true once the wrapped future is complete

	// sched is nil for a bare kernel task spawned with no owning Task
	// (spawn_ktask in original_source has no SchedEntity of its own).
	sched *task.SchedEntity

	// addrSpace is the user task's address space, used only to decide
	// whether a hart stealing this Runnable must flush its TLB first
	// (spec.md §4.F "it may begin executing in a foreign address
	// space"). nil for kernel tasks, which never touch user mappings.
	addrSpace *vmm.MemorySet

	waker *Waker
}

// run drives the Runnable's future one step, recording the vruntime the
// poll consumed (spec.md §4.F "on poll return it computes ... and adds
// it to vruntime"). Returns true once the future has completed.
func (r *Runnable) run(nowNS func() uint64) bool {
	start := nowNS()
	done := r.poll(&Context{waker: r.waker})
	if r.sched != nil {
		r.sched.UpdateVruntime(nowNS() - start)
	}
	return done
}
