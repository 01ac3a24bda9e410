package ipi

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/pmm"
)

// fakeArch is this package's own single-hart-per-test stand-in, mirroring
// kernel/sync's and kernel/trap's identical pattern: Send/Handle/sleep
// logic only ever touches HartID, Now, SendIPI, and FlushTLBAll, so those
// are the only methods that need to do more than nothing.
type fakeArch struct{}

var (
	fakeHart          uint32
	fakeNow           uint64
	sentIPIs          []sentIPI
	flushTLBAllCalled int
)

type sentIPI struct {
	hart uint32
	kind arch.IPIKind
}

func resetIPITestState() {
	fakeHart = 0
	fakeNow = 0
	sentIPIs = nil
	flushTLBAllCalled = 0
	for i := range inbox {
		inbox[i].msg = Message{}
	}
	for i := range sleepManagers {
		sleepManagers[i].queue = nil
	}
}

func (fakeArch) HartID() uint32 { return fakeHart }
func (fakeArch) NewTrapContext(entry, userSP uintptr) arch.TrapContext {
	return nil
}
func (fakeArch) TrapRestore(arch.TrapContext) arch.Trap { return arch.Trap{} }
func (fakeArch) EnableInterrupts() bool                 { return true }
func (fakeArch) DisableInterrupts() bool                { return true }
func (fakeArch) InterruptsEnabled() bool                { return true }
func (fakeArch) EnableUserMemoryAccess() func()         { return func() {} }
func (fakeArch) FlushTLBEntry(uintptr)                  {}
func (fakeArch) FlushTLBAll()                           { flushTLBAllCalled++ }
func (fakeArch) SetRootPPN(pmm.Frame)                   {}
func (fakeArch) RootPPN() pmm.Frame                     { return 0 }
func (fakeArch) SetTimer(uint64)                        {}
func (fakeArch) Now() uint64                            { return fakeNow }
func (fakeArch) TicksPerSecond() uint64                 { return 1 }
func (fakeArch) SendIPI(hart uint32, kind arch.IPIKind) {
	sentIPIs = append(sentIPIs, sentIPI{hart: hart, kind: kind})
}

func init() { arch.Init(fakeArch{}) }
