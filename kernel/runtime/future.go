// Package runtime is the per-hart cooperative task executor (spec.md
// §4.F): a Runnable queue with a two-level priority discipline, a
// generic poll-based Future abstraction standing in for async/await (Go
// has neither), and the yield/suspend/take-waker/interruptable/block_on
// combinators the trap dispatcher and task runtime are built on top of.
//
// Grounded on original_source/NoAxiom/kernel/src/sched/{executor.rs,
// spawn.rs, future/*.rs} and lib/kfuture; the teacher has no async
// runtime of its own (gopher-os never suspends), so the house style here
// follows kernel/mem/vmm's convention of small single-purpose files
// instead.
package runtime

// PollResult is what a Future reports on every poll: either the final
// value (Ready true) or a request to be polled again once woken
// (Ready false).
type PollResult[T any] struct {
	Value T
	Ready bool
}

// Ready wraps v as an immediately-complete poll result.
func Ready[T any](v T) PollResult[T] { return PollResult[T]{Value: v, Ready: true} }

// Pending reports that a Future is not yet complete.
func Pending[T any]() PollResult[T] { return PollResult[T]{} }

// Future is the poll-based stand-in for Rust's Future trait: Poll is
// called repeatedly by the owning Runnable until it reports Ready. A
// Future must arrange for cx.Waker() to be invoked (or must already have
// handed the waker to whatever will complete it) before returning
// Pending, or it will never be polled again.
type Future[T any] interface {
	Poll(cx *Context) PollResult[T]
}

// Context is the poll context every Future.Poll receives: the waker that
// resumes the Runnable currently driving this future tree.
type Context struct {
	waker *Waker
}

// Waker returns the context's waker.
func (c *Context) Waker() *Waker { return c.waker }

// FuncFuture adapts a plain poll function into a Future, the way an
// anonymous struct would in Rust; used for the small one-shot futures in
// combinators.go.
type FuncFuture[T any] func(cx *Context) PollResult[T]

// Poll implements Future.
func (f FuncFuture[T]) Poll(cx *Context) PollResult[T] { return f(cx) }
