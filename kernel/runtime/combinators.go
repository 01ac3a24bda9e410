package runtime

// yieldFuture resolves on its second poll, waking itself immediately so
// the Runnable goes back on the normal queue instead of staying stuck
// (original_source's YieldFuture / lib/kfuture's yield_fut.rs).
type yieldFuture struct{ visited bool }

func (f *yieldFuture) Poll(cx *Context) PollResult[struct{}] {
	if f.visited {
		return Ready(struct{}{})
	}
	f.visited = true
	cx.Waker().Wake()
	return Pending[struct{}]()
}

// YieldNow returns a Future that yields the current poll once and then
// completes, letting the executor interleave other Runnables (spec.md
// §4.F "yield_now() wakes the current waker and returns Pending once").
func YieldNow() Future[struct{}] { return &yieldFuture{} }

// suspendFuture resolves on its second poll without ever waking itself;
// something else must call the resulting Waker to resume it
// (original_source's lib/kfuture/src/suspend.rs).
type suspendFuture struct{ visited bool }

func (f *suspendFuture) Poll(cx *Context) PollResult[struct{}] {
	if f.visited {
		return Ready(struct{}{})
	}
	f.visited = true
	return Pending[struct{}]()
}

// SuspendNow returns a Future that parks the calling Runnable until some
// other code calls the Waker it was given (spec.md §4.F "suspend_now()
// returns Pending once without waking").
func SuspendNow() Future[struct{}] { return &suspendFuture{} }

// takeWakerFuture resolves immediately with the poll context's waker
// (original_source's TakeWakerFuture).
type takeWakerFuture struct{}

func (takeWakerFuture) Poll(cx *Context) PollResult[*Waker] { return Ready(cx.Waker()) }

// TakeWaker returns a Future that extracts the current poll's Waker
// without suspending (spec.md §4.F "take_waker() extracts the current
// waker from the poll context").
func TakeWaker() Future[*Waker] { return takeWakerFuture{} }
