package task

import "testing"

func TestSigActionTableDefaultsAndRoundTrip(t *testing.T) {
	tbl := NewSigActionTable()

	if got := tbl.Get(9); got != (SigAction{}) {
		t.Fatalf("expected the default disposition to be the zero value; got %+v", got)
	}

	act := SigAction{Handler: 0xdead, Flags: 1, Mask: sigBit(2)}
	old := tbl.Set(9, act)
	if old != (SigAction{}) {
		t.Fatalf("expected the previous disposition to be the zero value; got %+v", old)
	}
	if got := tbl.Get(9); got != act {
		t.Fatalf("expected to read back the installed action; got %+v", got)
	}
}

func TestSigActionTableOutOfRangeIsSafe(t *testing.T) {
	tbl := NewSigActionTable()
	if got := tbl.Get(0); got != (SigAction{}) {
		t.Fatal("expected signal 0 to report the zero value, not panic")
	}
	if got := tbl.Set(-1, SigAction{Handler: 1}); got != (SigAction{}) {
		t.Fatal("expected an out-of-range Set to be a no-op reporting the zero value")
	}
	if got := tbl.Get(100); got != (SigAction{}) {
		t.Fatal("expected an out-of-range Get to report the zero value")
	}
}

func TestSigActionTableCloneIsIndependent(t *testing.T) {
	tbl := NewSigActionTable()
	tbl.Set(5, SigAction{Handler: 0x1234})

	clone := tbl.Clone()
	clone.Set(5, SigAction{Handler: 0x5678})

	if got := tbl.Get(5); got.Handler != 0x1234 {
		t.Fatalf("expected the original table to be unaffected by mutating the clone; got %+v", got)
	}
}
