package ipi

import (
	"container/heap"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/sync"
	"noaxiom/kernel/task"
)

// sleepEntry is one queued (deadline, waker) pair (original_source's
// SleepInfo).
type sleepEntry struct {
	deadline uint64
	waker    task.Waker
}

// sleepHeap is a container/heap min-heap ordered by deadline, the
// ambient-stack choice SPEC_FULL.md's domain table makes for the sleep
// queue in place of original_source's plain VecDeque (a min-heap pops due
// entries in deadline order regardless of insertion order, which a deque
// only gives for free if callers always sleep for monotonically
// increasing durations).
type sleepHeap []sleepEntry

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h sleepHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sleepHeap) Push(x interface{}) { *h = append(*h, x.(sleepEntry)) }
func (h *sleepHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

type sleepManagerSlot struct {
	lock  sync.SpinLock
	queue sleepHeap
}

var sleepManagers [kconfig.MaxHarts]sleepManagerSlot

// PushSleep registers (deadline, w) on hart's sleep queue. Installed as
// kernel/trap's SleepQueuePush hook by this package's init.
func PushSleep(hart uint32, deadline uint64, w task.Waker) {
	slot := &sleepManagers[hart]
	slot.lock.Acquire()
	heap.Push(&slot.queue, sleepEntry{deadline: deadline, waker: w})
	slot.lock.Release()
}

// drainDueSleepers pops and wakes every entry on the calling hart's queue
// whose deadline has passed (original_source's SleepManager::sleep_handler,
// generalized from its single-pending-entry shortcut to draining the whole
// heap since a min-heap makes that just as cheap).
func drainDueSleepers() {
	hart := arch.Current().HartID()
	now := arch.Current().Now()
	slot := &sleepManagers[hart]

	var due []sleepEntry
	slot.lock.Acquire()
	for slot.queue.Len() > 0 && slot.queue[0].deadline <= now {
		due = append(due, heap.Pop(&slot.queue).(sleepEntry))
	}
	slot.lock.Release()

	for _, e := range due {
		if e.waker != nil {
			e.waker.Wake()
		}
	}
}
