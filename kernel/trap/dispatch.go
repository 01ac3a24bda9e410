package trap

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

// instructionWidth is the size in bytes of every instruction this kernel
// expects to trap on. Neither riscv64 nor loong64 is built with a
// compressed-instruction decoder (spec.md's Non-goals exclude the C
// extension), so advancing past a syscall/ebreak is always exactly one
// instruction wide.
const instructionWidth = 4

// ExternalInterruptHandler is called for TrapExternal; kernel/driver
// installs the real interrupt-controller dispatch once it exists. The
// zero value ignores the interrupt, which is wrong for a real external
// device but harmless for a trap the scheduler never promised to deliver
// anywhere yet.
var ExternalInterruptHandler = func(irq uint32) {}

// SoftwareIPIHandler is called for TrapSoftwareIPI; kernel/ipi's init
// installs the real per-hart inbox drain.
var SoftwareIPIHandler = func(hart uint32) {}

// TimerTickHook runs after every timer interrupt's preemption bookkeeping;
// kernel/ipi installs the sleep-queue drain here (spec.md §4.H "the timer
// interrupt, in addition to preemption, pops all due entries and wakes
// them").
var TimerTickHook = func() {}

// dispatchUserTrap builds the future that resolves one user trap (spec.md
// §4.G "User trap", steps 2-3). Steps 1 (register save) and 5 (loop back
// to trap_restore) are the arch layer's and userLoop's job respectively.
func dispatchUserTrap(t *task.Task, tr arch.Trap) runtime.Future[struct{}] {
	switch tr.Kind {
	case arch.TrapSyscall:
		return syscallFuture(t)

	case arch.TrapPageFaultLoad, arch.TrapPageFaultStore, arch.TrapPageFaultFetch:
		write := tr.Kind == arch.TrapPageFaultStore
		return newUserPageFaultFuture(t, tr.Addr, write)

	case arch.TrapIllegalInstruction:
		return syncFuture(func() {
			raiseSignal(t, sigIll, t.TCB.Cx.EPC())
		})

	case arch.TrapBreakpoint:
		return syncFuture(func() {
			t.TCB.Cx.SetEPC(t.TCB.Cx.EPC() + instructionWidth)
		})

	case arch.TrapTimer:
		return syncFuture(func() {
			t.TCB.TIF |= task.TIFNeedResched
			arch.Current().SetTimer(arch.Current().Now() + timerSliceTicks())
			TimerTickHook()
		})

	case arch.TrapExternal:
		return syncFuture(func() { ExternalInterruptHandler(tr.ExtIRQ) })

	case arch.TrapSoftwareIPI:
		return syncFuture(func() { SoftwareIPIHandler(arch.Current().HartID()) })

	default:
		fatal("trap", "unrecognised user trap kind: "+tr.Kind.String())
		return syncFuture(func() {})
	}
}

// timerSliceTicks converts kconfig.TimeSlicePerSec into a tick count at
// the current hart's timer frequency.
func timerSliceTicks() uint64 {
	return arch.Current().TicksPerSecond() / kconfig.TimeSlicePerSec
}

// syncReadyFuture completes immediately after running fn once, used for
// every trap kind whose handling needs no suspension point.
type syncReadyFuture struct {
	fn   func()
	done bool
}

func syncFuture(fn func()) runtime.Future[struct{}] {
	return &syncReadyFuture{fn: fn}
}

func (f *syncReadyFuture) Poll(cx *runtime.Context) runtime.PollResult[struct{}] {
	if !f.done {
		f.fn()
		f.done = true
	}
	return runtime.Ready(struct{}{})
}
