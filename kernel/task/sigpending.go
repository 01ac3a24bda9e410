package task

// SigInfo is the minimal signal delivery record the kernel plumbs through;
// spec.md's Non-goals exclude signal semantics beyond delivery/mask
// plumbing, so this carries only what a waiter needs to decide whether to
// return EINTR and what a waitpid-style report needs to echo back.
type SigInfo struct {
	Signo int32
	Code  int32
	Value uintptr
}

// SigMask is a bitmask over signal numbers 1..63 (bit 0 unused, matching
// POSIX's 1-based signal numbering).
type SigMask uint64

// sigBit returns the mask bit for signal number signo.
func sigBit(signo int32) SigMask {
	if signo <= 0 || signo >= 64 {
		return 0
	}
	return 1 << uint(signo)
}

// SigPending is a task's queued-signal state (spec.md §3): the queue of
// undelivered SigInfo records, a bitmask mirroring which signal numbers are
// queued, a should-wake mask used by a suspended waiter to decide which
// arriving signals end the wait, and the task's current blocked-signal
// mask. Invariant: the multiset of signals in Queue is exactly the set
// encoded by PendingSet (no duplicate signal numbers queued at once).
type SigPending struct {
	Queue      []SigInfo
	PendingSet SigMask
	ShouldWake SigMask
	SigMaskVal SigMask
}

// Push enqueues si unless its signal number is already pending, preserving
// the "no duplicates" invariant.
func (p *SigPending) Push(si SigInfo) {
	bit := sigBit(si.Signo)
	if p.PendingSet&bit != 0 {
		return
	}
	p.PendingSet |= bit
	p.Queue = append(p.Queue, si)
}

// Pop removes and returns the oldest pending signal not blocked by mask,
// or false if none qualifies.
func (p *SigPending) Pop(mask SigMask) (SigInfo, bool) {
	for i, si := range p.Queue {
		bit := sigBit(si.Signo)
		if mask&bit != 0 {
			continue
		}
		p.Queue = append(p.Queue[:i], p.Queue[i+1:]...)
		p.PendingSet &^= bit
		return si, true
	}
	return SigInfo{}, false
}

// HasAny reports whether any signal number set in mask is currently
// pending and not blocked by SigMaskVal; this is the predicate the
// runtime's interruptable future combinator polls (spec.md §4.F
// Cancellation).
func (p *SigPending) HasAny(mask SigMask) bool {
	return p.PendingSet&mask&^p.SigMaskVal != 0
}
