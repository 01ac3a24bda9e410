package trap

import (
	"testing"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/pmm"
)

// fakeTrapContext is a plain in-memory stand-in for a real riscv64/loong64
// trap frame, mirroring kernel/task's arch_fake_test.go.
type fakeTrapContext struct {
	epc, sp, ra, tp uintptr
	args            [6]uint64
	syscallNo       uint64
	ret             int64
}

func (c *fakeTrapContext) EPC() uintptr           { return c.epc }
func (c *fakeTrapContext) SetEPC(v uintptr)       { c.epc = v }
func (c *fakeTrapContext) SP() uintptr            { return c.sp }
func (c *fakeTrapContext) SetSP(v uintptr)        { c.sp = v }
func (c *fakeTrapContext) RA() uintptr            { return c.ra }
func (c *fakeTrapContext) TP() uintptr            { return c.tp }
func (c *fakeTrapContext) SetTP(v uintptr)        { c.tp = v }
func (c *fakeTrapContext) Arg(i int) uint64       { return c.args[i] }
func (c *fakeTrapContext) SetArg(i int, v uint64) { c.args[i] = v }
func (c *fakeTrapContext) SyscallNo() uint64      { return c.syscallNo }
func (c *fakeTrapContext) SetReturn(v int64)      { c.ret = v }
func (c *fakeTrapContext) Clone() arch.TrapContext {
	cp := *c
	return &cp
}

// fakeArch backs arch.Current() for every test in this package. trapScript
// is consumed front-to-back by TrapRestore, one Trap per call, looping on
// the last entry once exhausted so a test that only cares about the first
// few iterations doesn't have to size the script exactly.
var (
	trapScript      []arch.Trap
	trapScriptIndex int
	fakeNow         uint64
	fakeTimerCalls  int
)

type fakeArch struct{}

func (fakeArch) HartID() uint32 { return 0 }
func (fakeArch) NewTrapContext(entry, userSP uintptr) arch.TrapContext {
	return &fakeTrapContext{epc: entry, sp: userSP}
}
func (fakeArch) TrapRestore(arch.TrapContext) arch.Trap {
	if len(trapScript) == 0 {
		return arch.Trap{}
	}
	i := trapScriptIndex
	if i >= len(trapScript) {
		i = len(trapScript) - 1
	} else {
		trapScriptIndex++
	}
	return trapScript[i]
}
func (fakeArch) EnableInterrupts() bool          { return false }
func (fakeArch) DisableInterrupts() bool         { return false }
func (fakeArch) InterruptsEnabled() bool         { return false }
func (fakeArch) EnableUserMemoryAccess() func()  { return func() {} }
func (fakeArch) FlushTLBEntry(uintptr)           {}
func (fakeArch) FlushTLBAll()                    {}
func (fakeArch) SetRootPPN(pmm.Frame)             {}
func (fakeArch) RootPPN() pmm.Frame              { return 0 }
func (fakeArch) SetTimer(uint64)                 { fakeTimerCalls++ }
func (fakeArch) Now() uint64                     { return fakeNow }
func (fakeArch) TicksPerSecond() uint64          { return 1_000_000 }
func (fakeArch) SendIPI(uint32, arch.IPIKind)    {}

func init() { arch.Init(fakeArch{}) }

// resetTrapTestState clears the package-level fake-arch state a previous
// test may have left behind, mirroring kernel/runtime's resetExecutors.
func resetTrapTestState(t *testing.T) {
	t.Helper()
	trapScript = nil
	trapScriptIndex = 0
	fakeNow = 0
	fakeTimerCalls = 0
}
