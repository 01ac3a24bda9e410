package task

import "testing"

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Running:   "running",
		Runnable:  "runnable",
		Suspend:   "suspend",
		Zombie:    "zombie",
		Status(99): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q; want %q", status, got, want)
		}
	}
}

func TestAtomicStatusLoadStore(t *testing.T) {
	var s atomicStatus
	if got := s.load(); got != Running {
		t.Fatalf("expected the zero value to be Running; got %v", got)
	}

	s.store(Runnable)
	if got := s.load(); got != Runnable {
		t.Fatalf("expected Runnable; got %v", got)
	}
}

func TestAtomicStatusCompareAndSwap(t *testing.T) {
	var s atomicStatus
	s.store(Runnable)

	if s.cas(Running, Suspend) {
		t.Fatal("expected cas to fail when the current value does not match old")
	}
	if !s.cas(Runnable, Suspend) {
		t.Fatal("expected cas to succeed when the current value matches old")
	}
	if got := s.load(); got != Suspend {
		t.Fatalf("expected Suspend after a successful cas; got %v", got)
	}
}
