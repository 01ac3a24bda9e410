package task

import (
	"unsafe"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
)

// sigChld is the only signal number kernel/task's Non-goals-constrained
// delivery path needs a name for (17 on Linux/riscv64 and loong64).
const sigChld int32 = 17

// wakeFutex notifies waiters blocked on addr. A real futex wait queue is
// out of scope (not a named component of spec.md §2); this hook exists so
// clearChildTID's ABI contract - zeroing the address - is still met for
// the common pthread_join implementation that polls the address rather
// than blocking on FUTEX_WAIT.
var wakeFutex = func(addr uintptr) {}

// clearChildTID implements clone(2)'s CHILD_CLEARTID half of exit:
// zero the address and wake anyone futex-waiting on it.
func clearChildTID(addr uintptr) {
	if addr == 0 {
		return
	}
	restore := arch.Current().EnableUserMemoryAccess()
	*(*uint64)(unsafe.Pointer(addr)) = 0
	restore()
	wakeFutex(addr)
}

// Exit marks t Zombie, removes it from the thread-group roster and the
// global task manager, reparents its children to the init process if it
// is a thread-group leader, and wakes a parent blocked in wait4 (spec.md
// §4.E Exit). The MemorySet, fd table and sig-action table are released
// by Go's GC once the last reference to each drops - there is no
// equivalent of original_source's explicit Arc-strong-count bookkeeping.
func (t *Task) Exit(exitCode int32) {
	clearChildTID(t.TCB.ClearChildTID)

	t.ThreadGroup.Remove(t.TID)
	taskManager.Remove(t.TID)

	if t.ThreadGroup.Len() == 0 {
		t.Fds.CloseAll()
	}

	if t.isGroupLeader() {
		t.reparentChildren()
	}

	pcb, unlock := t.PCB()
	pcb.SetStatus(Zombie)
	pcb.ExitCode = exitCode
	parent := pcb.Parent
	unlock()

	if t.isGroupLeader() && parent != nil {
		parent.notifyChildExit(t)
	}
}

// isGroupLeader reports whether t is the leader of its thread group (the
// only member allowed to own children, per spec.md §4.E).
func (t *Task) isGroupLeader() bool { return t.TID == t.TGID }

// reparentChildren moves every child of a group leader under the init
// process, matching original_source's delete_children.
func (t *Task) reparentChildren() {
	pcb, unlock := t.PCB()
	children := pcb.Children
	pcb.Children = nil
	unlock()

	if len(children) == 0 {
		return
	}

	initProc := taskManager.Get(kconfig.InitProcessID)
	if initProc == nil {
		return
	}

	initPCB, unlockInit := initProc.PCB()
	for _, c := range children {
		cPCB, unlockC := c.PCB()
		cPCB.Parent = initProc
		unlockC()
	}
	initPCB.Children = append(initPCB.Children, children...)
	unlockInit()
}

// notifyChildExit records child's SIGCHLD with the parent and wakes it if
// it is blocked in a blocking wait4 (spec.md §4.E Wait: "the exiting
// child's handler clears it and wakes").
func (t *Task) notifyChildExit(child *Task) {
	pcb, unlock := t.PCB()
	pcb.PendingSigs.Push(SigInfo{Signo: sigChld, Value: uintptr(child.TID)})
	shouldWake := pcb.WaitReq
	pcb.WaitReq = false
	waker := t.TCB.Waker
	unlock()

	if shouldWake && waker != nil {
		waker.Wake()
	}
}
