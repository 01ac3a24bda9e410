package task

import "sync/atomic"

// Status is a task's scheduling-visible lifecycle state (spec.md §3 Task,
// grounded on original_source's #[atomic_enum] TaskStatus).
type Status int32

const (
	// Running is a task currently executing on some hart's executor; note
	// this is distinct from being enqueued in a deque.
	Running Status = iota
	// Runnable is a task enqueued in some hart's ready deque.
	Runnable
	// Suspend is a task parked with its waker saved elsewhere (a sleep
	// queue, a futex wait list) rather than in a ready deque.
	Suspend
	// Zombie is a task that has exited and is waiting to be reaped.
	Zombie
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Runnable:
		return "runnable"
	case Suspend:
		return "suspend"
	case Zombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// atomicStatus is an atomically accessed Status field.
type atomicStatus struct {
	v atomic.Int32
}

func (a *atomicStatus) load() Status       { return Status(a.v.Load()) }
func (a *atomicStatus) store(s Status)     { a.v.Store(int32(s)) }
func (a *atomicStatus) cas(old, new Status) bool {
	return a.v.CompareAndSwap(int32(old), int32(new))
}
