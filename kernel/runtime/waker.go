package runtime

// Waker is stored on a parked Runnable (and handed out by TakeWaker) so
// any hart can ask for it to be polled again. It satisfies both
// kernel/sync.Waker and kernel/task.Waker structurally (both declare
// nothing but Wake()), so this package is the only one that needs to
// import kernel/task, never the other way round (spec.md §4.F: "its
// waker may be fired from any hart and simply re-schedules it").
type Waker struct {
	hart uint32
	r    *Runnable
}

// Wake reschedules the waker's Runnable on its owning executor. Waking a
// Runnable that is currently being polled on its own hart is the
// woken-while-running case (spec.md §4.F CFS-lite discipline) and goes
// to the normal queue; any other wake is a previously-parked task being
// resumed and goes to the urgent queue.
func (w *Waker) Wake() {
	if w.r == nil {
		// A block_on waker has no Runnable to reschedule (spec.md
		// §4.F: "polls a future to completion with a no-op waker").
		return
	}
	ex := executorFor(w.hart)
	if ex.polling(w.r) {
		ex.pushNormal(w.r)
	} else {
		ex.pushUrgent(w.r)
	}
}
