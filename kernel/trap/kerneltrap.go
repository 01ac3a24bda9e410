package trap

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/task"
)

// KernelTimerTick marks cur (the task whose context the timer interrupted)
// pending-yield and re-arms the next tick (spec.md §4.G Kernel trap cause
// (b); same bookkeeping as the user-trap Timer branch in dispatch.go,
// without a trap context to restore into since the hart never left
// supervisor mode).
func KernelTimerTick(cur *task.Task) {
	if cur != nil {
		cur.TCB.TIF |= task.TIFNeedResched
	}
	arch.Current().SetTimer(arch.Current().Now() + timerSliceTicks())
	TimerTickHook()
}

// KernelExternalInterrupt routes an external IRQ taken while the hart was
// already in supervisor mode (spec.md §4.G Kernel trap cause (c)) to the
// same hook the user-trap path uses.
func KernelExternalInterrupt(irq uint32) { ExternalInterruptHandler(irq) }

// KernelIPI routes a software IPI taken while the hart was already in
// supervisor mode (spec.md §4.G Kernel trap cause (d)).
func KernelIPI() { SoftwareIPIHandler(arch.Current().HartID()) }

// KernelTrap dispatches a trap taken while the hart was in supervisor
// mode. Only the four causes spec.md §4.G lists are legal; anything else
// means a kernel invariant broke and is fatal. ms/write/addr describe the
// user-memory access in flight for the page-fault cause; callers outside
// that path pass a nil ms.
func KernelTrap(tr arch.Trap, cur *task.Task, ms *vmm.MemorySet) {
	switch tr.Kind {
	case arch.TrapPageFaultLoad, arch.TrapPageFaultStore, arch.TrapPageFaultFetch:
		if ms == nil {
			fatal("trap", "kernel-mode page fault with no address space in flight")
			return
		}
		write := tr.Kind == arch.TrapPageFaultStore
		if err := KernelPageFault(ms, tr.Addr, write); err != nil {
			fatal("trap", "kernel-mode page-in failed: "+err.Message)
		}
	case arch.TrapTimer:
		KernelTimerTick(cur)
	case arch.TrapExternal:
		KernelExternalInterrupt(tr.ExtIRQ)
	case arch.TrapSoftwareIPI:
		KernelIPI()
	default:
		fatal("trap", "illegal kernel-mode trap cause: "+tr.Kind.String())
	}
}
