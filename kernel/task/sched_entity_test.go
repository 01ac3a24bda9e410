package task

import (
	"testing"

	"noaxiom/kernel/kconfig"
)

func TestCPUMaskAllows(t *testing.T) {
	if !AllHarts.Allows(0) || !AllHarts.Allows(63) {
		t.Fatal("expected AllHarts to allow every hart in range")
	}
	if AllHarts.Allows(64) {
		t.Fatal("expected hart indices >= 64 to never be allowed")
	}

	mask := CPUMask(1 << 3)
	if !mask.Allows(3) {
		t.Fatal("expected the mask to allow hart 3")
	}
	if mask.Allows(2) {
		t.Fatal("expected the mask to disallow hart 2")
	}
}

func TestClampNice(t *testing.T) {
	cases := []struct{ in, want int8 }{
		{-50, -20},
		{-20, -20},
		{0, 0},
		{19, 19},
		{50, 19},
	}
	for _, c := range cases {
		if got := clampNice(c.in); got != c.want {
			t.Errorf("clampNice(%d) = %d; want %d", c.in, got, c.want)
		}
	}
}

func TestNewSchedEntityDefaults(t *testing.T) {
	e := NewSchedEntity(42)
	if e.TID != 42 {
		t.Errorf("expected TID 42; got %d", e.TID)
	}
	if e.Prio != 0 {
		t.Errorf("expected default nice 0; got %d", e.Prio)
	}
	if e.CPUMask != AllHarts {
		t.Error("expected a fresh entity to be runnable on every hart")
	}
	if e.Vruntime() != 0 {
		t.Errorf("expected vruntime 0; got %d", e.Vruntime())
	}
}

func TestUpdateVruntimeNiceZeroMatchesWallClock(t *testing.T) {
	e := NewSchedEntity(1)

	const deltaNS = uint64(10_000_000) // 10ms
	e.UpdateVruntime(deltaNS)

	// At nice 0 inv_weight is chosen so delta*NICE_0_LOAD*inv_weight>>32
	// reduces back to delta - a task at the default priority accrues
	// vruntime at the same rate it ran.
	if got := e.Vruntime(); got != deltaNS {
		t.Errorf("expected nice-0 vruntime to track wall-clock time exactly; got %d want %d", got, deltaNS)
	}
}

func TestUpdateVruntimeNeverDecreases(t *testing.T) {
	e := NewSchedEntity(1)
	e.UpdateVruntime(1_000_000)
	before := e.Vruntime()
	e.UpdateVruntime(0)
	if e.Vruntime() < before {
		t.Fatal("expected vruntime to never decrease")
	}
}

func TestUpdateVruntimeNegativeNiceAccruesSlower(t *testing.T) {
	favored := NewSchedEntity(1)
	favored.Prio = -20

	baseline := NewSchedEntity(2)

	const deltaNS = uint64(10_000_000)
	favored.UpdateVruntime(deltaNS)
	baseline.UpdateVruntime(deltaNS)

	if favored.Vruntime() >= baseline.Vruntime() {
		t.Fatalf("expected a higher-priority (nice -20) task to accrue vruntime slower; favored=%d baseline=%d",
			favored.Vruntime(), baseline.Vruntime())
	}
}

func TestLoadWeightMatchesCFSTable(t *testing.T) {
	e := NewSchedEntity(1)
	if got, want := e.LoadWeight(), uint32(kconfig.NiceZeroLoad); got != want {
		t.Errorf("expected nice-0 weight to equal NICE_0_LOAD; got %d want %d", got, want)
	}

	e.Prio = 19
	if got := e.LoadWeight(); got != 15 {
		t.Errorf("expected nice 19's weight to be 15; got %d", got)
	}
}
