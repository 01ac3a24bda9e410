package task

import "noaxiom/kernel/arch"

// Waker is the minimal capability a suspended task needs to ask to be
// rescheduled. kernel/runtime's concrete Waker satisfies this interface
// structurally, so kernel/task never imports kernel/runtime (which itself
// depends on kernel/task for the user-task future) - see SPEC_FULL.md's
// module map, component E before F.
type Waker interface {
	Wake()
}

// ThreadInfo is a bitmask of per-thread flags mirroring Linux's
// thread_info.flags far enough to drive the interruptable-future
// combinator and the set/clear-child-tid futex dance.
type ThreadInfo uint32

const (
	// TIFSigPending is set by the trap dispatcher when a pending, unblocked
	// signal interrupts a syscall and it returns EINTR (spec.md §4.F
	// Cancellation); delivering a signal to a handler clears it.
	TIFSigPending ThreadInfo = 1 << iota
	// TIFNeedResched asks the executor to reschedule this task at the
	// next safe point instead of letting it run to its next natural
	// suspension.
	TIFNeedResched
)

// TCB is the trap-facing half of a Task (spec.md §3): the saved trap
// context, the waker the runtime uses to resume it, and the futex
// set/clear-child-tid bookkeeping clone(2) installs.
type TCB struct {
	TIF ThreadInfo

	// Waker is written exactly once, by kernel/runtime's user-task future
	// on its first poll, and read by any hart delivering a wakeup; before
	// that first poll it is nil.
	Waker Waker

	Cx arch.TrapContext

	// SetChildTID and ClearChildTID are user virtual addresses clone(2)'s
	// CHILD_SETTID/CHILD_CLEARTID flags ask the kernel to write/clear the
	// new tid at; 0 means unset.
	SetChildTID   uintptr
	ClearChildTID uintptr

	CurrentSyscall int64
}
