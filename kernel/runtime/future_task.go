package runtime

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/task"
)

// currentTask[h] is the user task hart h is currently driving through a
// userTaskFuture, published for the trap dispatcher to read (spec.md
// §4.F "publishes current_task = Some(task) on the hart"). Only the
// owning hart ever writes its own slot, so no lock is needed; a peer hart
// has no business reading another hart's slot.
var currentTask [kconfig.MaxHarts]*task.Task

// CurrentTask returns the user task hart is currently polling, or nil if
// hart is between tasks or running a bare kernel future.
func CurrentTask(hart uint32) *task.Task { return currentTask[hart] }

// userTaskFuture wraps a Task's trap-loop body, publishing/clearing
// currentTask around each poll (original_source's UserTaskFuture).
type userTaskFuture struct {
	t     *task.Task
	inner Future[struct{}]

	wakerInstalled bool
}

func newUserTaskFuture(t *task.Task, inner Future[struct{}]) *userTaskFuture {
	return &userTaskFuture{t: t, inner: inner}
}

func (f *userTaskFuture) Poll(cx *Context) PollResult[struct{}] {
	if !f.wakerInstalled {
		// TCB.Waker is written exactly once, on this first poll
		// (spec.md §3 Ownership summary); the Runnable's own waker,
		// handed to us via cx, outlives every individual poll.
		f.t.TCB.Waker = cx.Waker()
		f.wakerInstalled = true
	}

	hart := arch.Current().HartID()
	currentTask[hart] = f.t
	res := f.inner.Poll(cx)
	currentTask[hart] = nil
	return res
}
