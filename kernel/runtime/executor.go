package runtime

import (
	"container/list"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/sync"
)

// Executor is one hart's run queue (spec.md §4.F): two deques giving a
// two-level priority scheme without a real priority queue. urgent is
// drained first; normal is the fallback, giving woken-while-running
// tasks (pushed to normal) a lower scheduling priority than tasks that
// were truly parked and are now being resumed (pushed to urgent).
type Executor struct {
	guard  sync.SpinLock
	urgent list.List
	normal list.List

	current *Runnable // the Runnable this hart is currently polling, or nil

	lastAddrSpace  *vmm.MemorySet
	lastBalanceTick uint64
}

var executors [kconfig.MaxHarts]*Executor

func init() {
	for i := range executors {
		executors[i] = &Executor{}
	}
}

// executorFor returns the executor owning hart, allocating none (the
// array is sized to kconfig.MaxHarts up front so Wake never allocates).
func executorFor(hart uint32) *Executor { return executors[hart] }

// pushNormal enqueues r at the tail of the normal deque.
func (ex *Executor) pushNormal(r *Runnable) {
	defer sync.Guard(&ex.guard)()
	ex.normal.PushBack(r)
}

// pushUrgent enqueues r at the head of the urgent deque.
func (ex *Executor) pushUrgent(r *Runnable) {
	defer sync.Guard(&ex.guard)()
	ex.urgent.PushFront(r)
}

// pop removes and returns the next Runnable to run, preferring urgent
// over normal, or nil if both deques are empty.
func (ex *Executor) pop() *Runnable {
	defer sync.Guard(&ex.guard)()
	if e := ex.urgent.Front(); e != nil {
		ex.urgent.Remove(e)
		return e.Value.(*Runnable)
	}
	if e := ex.normal.Front(); e != nil {
		ex.normal.Remove(e)
		return e.Value.(*Runnable)
	}
	return nil
}

// stealBack removes and returns the Runnable at the tail of ex's normal
// deque for a peer hart to steal, or nil if there is nothing stealable.
// Only the normal deque is stolen from: a task sitting in the urgent
// deque was just woken and should run on its own hart promptly.
func (ex *Executor) stealBack() *Runnable {
	defer sync.Guard(&ex.guard)()
	if e := ex.normal.Back(); e != nil {
		ex.normal.Remove(e)
		return e.Value.(*Runnable)
	}
	return nil
}

// polling reports whether r is the Runnable currently being polled on
// ex's hart, distinguishing a woken-while-running wake from a wake of a
// genuinely parked task (spec.md §4.F CFS-lite discipline).
func (ex *Executor) polling(r *Runnable) bool {
	defer sync.Guard(&ex.guard)()
	return ex.current == r
}

func nowNS() uint64 {
	a := arch.Current()
	hz := a.TicksPerSecond()
	if hz == 0 {
		return 0
	}
	return a.Now() * 1_000_000_000 / hz
}

// steal looks for work on a peer hart's normal deque, flushing this
// hart's TLB first since the stolen Runnable may belong to a different
// address space (spec.md §4.F "it may begin executing in a foreign
// address space").
func (ex *Executor) steal(self uint32) *Runnable {
	for i := range executors {
		if uint32(i) == self {
			continue
		}
		if r := executors[i].stealBack(); r != nil {
			arch.Current().FlushTLBAll()
			return r
		}
	}
	return nil
}

// shouldLoadBalance reports whether enough ticks have elapsed since the
// hart's last steal attempt to try again (spec.md §4.F "load-balance is
// time-sliced").
func (ex *Executor) shouldLoadBalance(tick uint64) bool {
	due := tick-ex.lastBalanceTick >= kconfig.LoadBalanceSliceNum
	if due {
		ex.lastBalanceTick = tick
	}
	return due
}

// RunOnce drains one Runnable from hart's executor (stealing from a peer
// if its own deques are empty and load-balancing is due) and polls it to
// completion of one step. Returns false if there was nothing to run.
func RunOnce(hart uint32, tick uint64) bool {
	ex := executorFor(hart)

	r := ex.pop()
	if r == nil && ex.shouldLoadBalance(tick) {
		r = ex.steal(hart)
	}
	if r == nil {
		return false
	}

	if r.addrSpace != nil && r.addrSpace != ex.lastAddrSpace {
		arch.Current().FlushTLBAll()
		ex.lastAddrSpace = r.addrSpace
	}

	func() {
		defer sync.Guard(&ex.guard)()
		ex.current = r
	}()

	// A Pending result is not re-enqueued here: the future is
	// responsible for having arranged its own wakeup via cx.Waker()
	// before returning, so r simply sits off every deque until that
	// wake fires.
	r.run(nowNS)

	func() {
		defer sync.Guard(&ex.guard)()
		ex.current = nil
	}()

	return true
}

// Run enters hart's executor loop forever, processing one Runnable at a
// time. It never returns; kmain's Kmain and KmainOtherHart call it once
// on each hart.
func Run(hart uint32) {
	var tick uint64
	for {
		RunOnce(hart, tick)
		tick++
	}
}
