package runtime

// BlockOn polls f to completion with a no-op waker, spinning between
// polls (spec.md §4.F Blocking adapters). It is for kernel-trap paths
// with no outer executor available — a page fault in kernel mode that
// must synchronously resolve a user mapping — and must never be used
// around a future that only completes when a signal arrives, since
// nothing ever wakes it but f itself re-polling.
func BlockOn[T any](f Future[T]) T {
	cx := &Context{waker: &Waker{}}
	for {
		if r := f.Poll(cx); r.Ready {
			return r.Value
		}
	}
}
