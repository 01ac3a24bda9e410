package runtime

import "testing"

func TestReadyAndPendingHelpers(t *testing.T) {
	r := Ready(42)
	if !r.Ready || r.Value != 42 {
		t.Fatalf("expected Ready to produce a completed result carrying its value; got %+v", r)
	}

	p := Pending[int]()
	if p.Ready {
		t.Fatal("expected Pending to report not-ready")
	}
}

func TestFuncFutureAdaptsAPlainFunction(t *testing.T) {
	var gotWaker *Waker
	f := FuncFuture[string](func(cx *Context) PollResult[string] {
		gotWaker = cx.Waker()
		return Ready("done")
	})

	cx := &Context{waker: &Waker{hart: 7}}
	res := f.Poll(cx)
	if !res.Ready || res.Value != "done" {
		t.Fatal("expected FuncFuture.Poll to invoke the wrapped function")
	}
	if gotWaker != cx.waker {
		t.Fatal("expected the context's waker to reach the wrapped function")
	}
}
