package trap

import (
	"testing"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

func newTestTask(t *testing.T) *task.Task {
	t.Helper()
	return task.NewProcess(&vmm.MemorySet{}, 0x1000, 0x8000)
}

func drive(f runtime.Future[struct{}]) {
	runtime.BlockOn[struct{}](f)
}

func TestDispatchIllegalInstructionRaisesSIGILL(t *testing.T) {
	tk := newTestTask(t)
	drive(dispatchUserTrap(tk, arch.Trap{Kind: arch.TrapIllegalInstruction}))

	pcb, unlock := tk.PCB()
	defer unlock()
	if !pcb.PendingSigs.HasAny(^pcb.PendingSigs.SigMaskVal) {
		t.Fatal("expected SIGILL to be queued as pending")
	}
}

func TestDispatchBreakpointAdvancesEPC(t *testing.T) {
	tk := newTestTask(t)
	before := tk.TCB.Cx.EPC()
	drive(dispatchUserTrap(tk, arch.Trap{Kind: arch.TrapBreakpoint}))
	if got := tk.TCB.Cx.EPC(); got != before+instructionWidth {
		t.Fatalf("expected EPC to advance by %d; got %d (was %d)", instructionWidth, got, before)
	}
}

func TestDispatchTimerSetsNeedReschedAndRearms(t *testing.T) {
	tk := newTestTask(t)
	before := fakeTimerCalls
	drive(dispatchUserTrap(tk, arch.Trap{Kind: arch.TrapTimer}))

	if tk.TCB.TIF&task.TIFNeedResched == 0 {
		t.Fatal("expected TIFNeedResched to be set")
	}
	if fakeTimerCalls != before+1 {
		t.Fatal("expected the timer to be rearmed exactly once")
	}
}

func TestDispatchExternalCallsHook(t *testing.T) {
	tk := newTestTask(t)
	var gotIRQ uint32
	old := ExternalInterruptHandler
	defer func() { ExternalInterruptHandler = old }()
	ExternalInterruptHandler = func(irq uint32) { gotIRQ = irq }

	drive(dispatchUserTrap(tk, arch.Trap{Kind: arch.TrapExternal, ExtIRQ: 7}))
	if gotIRQ != 7 {
		t.Fatalf("expected the external-interrupt hook to see irq 7; got %d", gotIRQ)
	}
}

func TestDispatchSoftwareIPICallsHook(t *testing.T) {
	tk := newTestTask(t)
	called := false
	old := SoftwareIPIHandler
	defer func() { SoftwareIPIHandler = old }()
	SoftwareIPIHandler = func(hart uint32) { called = true }

	drive(dispatchUserTrap(tk, arch.Trap{Kind: arch.TrapSoftwareIPI}))
	if !called {
		t.Fatal("expected the software-IPI hook to run")
	}
}
