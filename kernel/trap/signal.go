package trap

import (
	"unsafe"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/task"
)

// Signal numbers the fault paths below raise; the full POSIX signal
// namespace (sigaction semantics beyond delivery/mask plumbing) is out of
// scope, matching kernel/task's SigAction/SigPending doc comments.
const (
	sigIll  int32 = 4
	sigBus  int32 = 7
	sigFpe  int32 = 8
	sigSegv int32 = 11
)

// raiseSignal queues signo as pending on t, carrying addr as auxiliary
// info (the faulting address for SIGSEGV/SIGBUS).
func raiseSignal(t *task.Task, signo int32, addr uintptr) {
	pcb, unlock := t.PCB()
	pcb.PendingSigs.Push(task.SigInfo{Signo: signo, Value: addr})
	unlock()
}

// fatalByDefault reports whether signo terminates a task that has no
// handler installed for it (the default disposition for every signal this
// kernel ever raises itself; SIGCHLD's default is ignore, handled
// separately in kernel/task's notifyChildExit path).
func fatalByDefault(signo int32) bool {
	switch signo {
	case sigIll, sigBus, sigFpe, sigSegv:
		return true
	default:
		return false
	}
}

// checkAndDeliverSignals implements spec.md §4.G User trap step 4: pop the
// oldest pending, unblocked signal and either terminate the task (default
// disposition) or redirect it into its handler.
func checkAndDeliverSignals(t *task.Task) {
	pcb, unlock := t.PCB()
	si, ok := pcb.PendingSigs.Pop(pcb.PendingSigs.SigMaskVal)
	unlock()
	if !ok {
		return
	}

	act := t.SigActions.Get(si.Signo)
	if act.Handler == 0 {
		if fatalByDefault(si.Signo) {
			pcb, unlock := t.PCB()
			pcb.SetStatus(task.Zombie)
			pcb.ExitCode = 128 + si.Signo
			unlock()
		}
		return
	}

	deliverToHandler(t, act, si)
}

// deliverToHandler redirects the task into its registered handler: the
// interrupted EPC is pushed onto the user stack (the CHILD_SETTID pattern
// in kernel/task's writeUserTID is the grounding for writing a kernel-side
// value into user memory this way) so a future sigreturn(2) can restore
// it; EPC is redirected to the handler and A0 carries the signal number.
func deliverToHandler(t *task.Task, act task.SigAction, si task.SigInfo) {
	cx := t.TCB.Cx
	sp := cx.SP() - 8

	restore := arch.Current().EnableUserMemoryAccess()
	*(*uint64)(unsafe.Pointer(sp)) = uint64(cx.EPC())
	restore()

	cx.SetSP(sp)
	cx.SetEPC(uintptr(act.Handler))
	cx.SetArg(0, uint64(si.Signo))
	t.TCB.TIF &^= task.TIFSigPending
}
