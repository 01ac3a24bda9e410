package runtime

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/task"
)

// spawnRaw builds a Runnable around poll, pinned to the calling hart, and
// schedules it onto the normal queue (spec.md §4.F Spawning: "then
// immediately schedules it" — a fresh task has not been woken, so it is
// not yet "urgent").
func spawnRaw(poll func(cx *Context) bool, sched *task.SchedEntity, addrSpace *vmm.MemorySet) *Runnable {
	hart := arch.Current().HartID()
	r := &Runnable{poll: poll, sched: sched, addrSpace: addrSpace}
	r.waker = &Waker{hart: hart, r: r}
	executorFor(hart).pushNormal(r)
	return r
}

// Spawn schedules a bare kernel future with no owning Task (original
// source's spawn_ktask): it carries no SchedEntity and no address space,
// so vruntime accounting and TLB-flush-on-steal are both skipped for it.
func Spawn[T any](f Future[T]) {
	spawnRaw(func(cx *Context) bool {
		return f.Poll(cx).Ready
	}, nil, nil)
}

// SpawnUserTask schedules t's user-mode loop (original source's
// spawn_utask): entry is a fresh UserTaskFuture driving userLoop, scheduled
// with t's own SchedEntity and address space so the executor's vruntime
// accounting and work-stealing TLB-flush decisions both apply.
func SpawnUserTask(t *task.Task, userLoop func(t *task.Task) Future[struct{}]) {
	fut := newUserTaskFuture(t, userLoop(t))
	spawnRaw(func(cx *Context) bool {
		return fut.Poll(cx).Ready
	}, t.Sched, t.MemorySet)
}
