package runtime

// SignalChecker reports whether the calling task now has a pending,
// unblocked signal. kernel/task.Task.HasPendingSignals(mask) satisfies
// this structurally via a closure built by the caller, so kernel/runtime
// never imports a signal-mask type of its own (spec.md §4.F Cancellation).
type SignalChecker func() bool

// InterruptResult is what Interruptable resolves to: either the wrapped
// future's value, or an interrupted marker meaning the caller should
// synthesize EINTR. The zero-valued Value on an interrupted result is
// never meant to be used.
type InterruptResult[T any] struct {
	Value       T
	Interrupted bool
}

// interruptableFuture polls inner; each time inner reports Pending, it
// also tests checker, completing early with Interrupted=true the first
// time a signal is observed (spec.md §4.F: "on a Pending from the inner
// it tests task.has_pending_signals(mask); if any is present, it returns
// Err(EINTR)"). Restoring the saved result register and setting
// TIF_SIGPENDING is the caller's responsibility once it observes
// Interrupted, since only the trap dispatcher holds the TrapContext to
// restore into.
type interruptableFuture[T any] struct {
	inner   Future[T]
	checker SignalChecker
}

// Interruptable wraps inner so that a pending signal aborts the wait
// instead of blocking it indefinitely (spec.md §4.F Cancellation). Used
// by the trap dispatcher around any syscall that may block.
func Interruptable[T any](inner Future[T], checker SignalChecker) Future[InterruptResult[T]] {
	return &interruptableFuture[T]{inner: inner, checker: checker}
}

func (f *interruptableFuture[T]) Poll(cx *Context) PollResult[InterruptResult[T]] {
	r := f.inner.Poll(cx)
	if r.Ready {
		return Ready(InterruptResult[T]{Value: r.Value})
	}
	if f.checker() {
		var zero T
		return Ready(InterruptResult[T]{Value: zero, Interrupted: true})
	}
	return Pending[InterruptResult[T]]()
}
