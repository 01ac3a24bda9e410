package ipi

import "testing"

func TestDrainDueSleepersWakesOnlyDueEntriesInDeadlineOrder(t *testing.T) {
	resetIPITestState()
	fakeHart = 0

	var order []int
	mk := func(tag int) *fakeWaker {
		w := &fakeWaker{}
		return w
	}
	w10 := mk(10)
	w20 := mk(20)
	w30 := mk(30)

	// Pushed out of order; only deadlines <= now should wake, in
	// ascending deadline order.
	PushSleep(0, 30, wakeRecorder(&order, 30, w30))
	PushSleep(0, 10, wakeRecorder(&order, 10, w10))
	PushSleep(0, 20, wakeRecorder(&order, 20, w20))

	fakeNow = 25
	drainDueSleepers()

	if w30.woken != 0 {
		t.Fatal("expected the not-yet-due entry to stay queued")
	}
	if w10.woken != 1 || w20.woken != 1 {
		t.Fatal("expected both due entries to be woken")
	}
	if len(order) != 2 || order[0] != 10 || order[1] != 20 {
		t.Fatalf("expected due entries to wake in deadline order 10,20; got %v", order)
	}

	fakeNow = 100
	drainDueSleepers()
	if w30.woken != 1 {
		t.Fatal("expected the remaining entry to wake once its deadline passes")
	}
}

// wakeRecorder wraps w so waking it also appends tag to order, letting the
// test assert wake ordering without exposing sleepEntry internals.
func wakeRecorder(order *[]int, tag int, w *fakeWaker) *recordingWaker {
	return &recordingWaker{order: order, tag: tag, inner: w}
}

type recordingWaker struct {
	order *[]int
	tag   int
	inner *fakeWaker
}

func (r *recordingWaker) Wake() {
	*r.order = append(*r.order, r.tag)
	r.inner.Wake()
}

func TestPushSleepOnDifferentHartsIsIndependent(t *testing.T) {
	resetIPITestState()

	w0 := &fakeWaker{}
	w1 := &fakeWaker{}
	PushSleep(0, 5, w0)
	PushSleep(1, 5, w1)

	fakeHart = 0
	fakeNow = 10
	drainDueSleepers()
	if w0.woken != 1 {
		t.Fatal("expected hart 0's due entry to wake")
	}
	if w1.woken != 0 {
		t.Fatal("expected hart 1's entry to be untouched by hart 0 draining")
	}

	fakeHart = 1
	drainDueSleepers()
	if w1.woken != 1 {
		t.Fatal("expected hart 1's due entry to wake once hart 1 drains")
	}
}
