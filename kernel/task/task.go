package task

import (
	"unsafe"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/sync"
)

// Task is the kernel's unit of scheduling (spec.md §3): a thread or a
// single-threaded process share exactly this type, distinguished only by
// whether TID == TGID and by how much state they share with their thread
// group. Every Task is reachable as a plain *Task; Go's tracing GC is what
// lets the parent -> children and child -> parent links below coexist as
// ordinary pointers instead of original_source's Arc/Weak split.
type Task struct {
	TID  TID
	TGID TGID
	PGID PGID

	ThreadGroup *ThreadGroup

	// MemorySet is shared with every thread of the process (CLONE_VM) or
	// private to this task (a fresh fork). Guarded internally by its own
	// spinlock, not pcbLock.
	MemorySet *vmm.MemorySet

	Fds        *FdTable
	SigActions *SigActionTable
	Sched      *SchedEntity

	TCB TCB

	pcbLock sync.SpinLock
	pcb     PCB
}

// NewProcess builds the first task of a freshly loaded program (spec.md
// §4.E Creation). The caller has already built ms (populating its areas
// via vmm.InsertArea/ReserveLazyArea from the - out of scope - ELF
// loader) and knows the entry point and initial stack top; NewProcess
// allocates a fresh tid == tgid == pgid, wires up an empty fd table and
// thread group, and registers the task globally.
func NewProcess(ms *vmm.MemorySet, entry, userSP uintptr) *Task {
	tid := allocTID()

	t := &Task{
		TID:         tid,
		TGID:        tid,
		PGID:        tid,
		ThreadGroup: NewThreadGroup(),
		MemorySet:   ms,
		Fds:         NewFdTable(),
		SigActions:  NewSigActionTable(),
		Sched:       NewSchedEntity(tid),
	}
	t.TCB.Cx = arch.Current().NewTrapContext(entry, userSP)
	t.pcb.SetStatus(Runnable)

	t.ThreadGroup.Insert(t)
	taskManager.Insert(t)
	processGroupManager.Join(t.PGID, t)

	return t
}

// PCB returns the task's process-control block together with an unlocker;
// callers must defer the returned function (mirrors sync.Guard).
func (t *Task) PCB() (*PCB, func()) {
	return &t.pcb, sync.Guard(&t.pcbLock)
}

// Status returns the task's lifecycle status. Safe to call without
// holding PCB's lock since the underlying field is accessed atomically.
func (t *Task) Status() Status { return t.pcb.Status() }

// IsInitProcess reports whether t is tid 1, the task Exit reparents
// orphaned children to. Its own exit is not handled specially: Exit treats
// it like any other task, and nothing reaps its remaining children or
// shuts the machine down when it exits.
func (t *Task) IsInitProcess() bool { return t.TID == kconfig.InitProcessID }

// Parent returns the task's parent, or nil for the init process.
func (t *Task) Parent() *Task {
	pcb, unlock := t.PCB()
	defer unlock()
	return pcb.Parent
}

// HasPendingSignals reports whether any signal in mask is pending and
// unblocked. This is the SignalChecker contract kernel/runtime's
// interruptable future combinator polls (spec.md §4.F Cancellation); it
// is defined here, not as an imported interface type, so kernel/task
// never has to import kernel/runtime to provide it.
func (t *Task) HasPendingSignals(mask uint64) bool {
	pcb, unlock := t.PCB()
	defer unlock()
	return pcb.PendingSigs.HasAny(SigMask(mask))
}

// writeUserTID pokes tid into the 8 bytes at addr in the task's own
// address space, implementing the PARENT_SETTID/CHILD_SETTID half of
// clone(2) (spec.md §4.E). addr == 0 is a no-op. Crossing into user
// memory this way (rather than through the trap dispatcher's validated
// copy path) is safe only because the calling task's MemorySet is already
// active - exactly the same assumption goruntime's sysMap makes.
func writeUserTID(addr uintptr, tid TID) {
	if addr == 0 {
		return
	}
	restore := arch.Current().EnableUserMemoryAccess()
	defer restore()
	*(*uint64)(unsafe.Pointer(addr)) = uint64(tid)
}
