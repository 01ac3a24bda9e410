package runtime

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/pmm"
)

// fakeHart lets tests pretend to be whichever hart they like by writing
// this var directly; fakeArch.HartID reads it.
var fakeHart uint32

// fakeTick is what fakeArch.Now returns; TicksPerSecond is fixed at 1e9
// so nowNS() is a direct tick-to-ns identity, making vruntime deltas
// predictable in tests.
var fakeTick uint64

var fakeTLBFlushes int

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

type fakeArch struct{}

func (fakeArch) HartID() uint32 { return fakeHart }
func (fakeArch) NewTrapContext(entry, userSP uintptr) arch.TrapContext {
	return &fakeTrapContext{epc: entry, sp: userSP}
}
func (fakeArch) TrapRestore(arch.TrapContext) arch.Trap { return arch.Trap{} }
func (fakeArch) EnableInterrupts() bool                 { return false }
func (fakeArch) DisableInterrupts() bool                { return false }
func (fakeArch) InterruptsEnabled() bool                { return false }
func (fakeArch) EnableUserMemoryAccess() func()         { return func() {} }
func (fakeArch) FlushTLBEntry(uintptr)                  {}
func (fakeArch) FlushTLBAll()                           { fakeTLBFlushes++ }
func (fakeArch) SetRootPPN(pmm.Frame)                   {}
func (fakeArch) RootPPN() pmm.Frame                     { return 0 }
func (fakeArch) SetTimer(uint64)                        {}
func (fakeArch) Now() uint64                            { return fakeTick }
func (fakeArch) TicksPerSecond() uint64                 { return 1_000_000_000 }
func (fakeArch) SendIPI(uint32, arch.IPIKind)           {}

func init() { arch.Init(fakeArch{}) }
