package runtime

import "testing"

type countingFuture struct {
	readyAfter int
	polls      int
}

func (f *countingFuture) Poll(cx *Context) PollResult[int] {
	f.polls++
	if f.polls >= f.readyAfter {
		return Ready(f.polls)
	}
	return Pending[int]()
}

func TestInterruptableCompletesWithInnerValueWhenNoSignal(t *testing.T) {
	inner := &countingFuture{readyAfter: 2}
	f := Interruptable[int](inner, func() bool { return false })
	cx := &Context{waker: &Waker{}}

	if res := f.Poll(cx); res.Ready {
		t.Fatal("expected the first poll to stay pending")
	}
	res := f.Poll(cx)
	if !res.Ready || res.Value.Interrupted || res.Value.Value != 2 {
		t.Fatalf("expected a non-interrupted ready result carrying the inner value; got %+v", res)
	}
}

func TestInterruptableAbortsOnPendingSignal(t *testing.T) {
	inner := &countingFuture{readyAfter: 1000}
	signalled := false
	f := Interruptable[int](inner, func() bool { return signalled })
	cx := &Context{waker: &Waker{}}

	if res := f.Poll(cx); res.Ready {
		t.Fatal("expected the first poll to stay pending before any signal")
	}

	signalled = true
	res := f.Poll(cx)
	if !res.Ready || !res.Value.Interrupted {
		t.Fatalf("expected a signal to abort the wait with Interrupted=true; got %+v", res)
	}
}
