package task

// WaitTarget selects which children Wait considers.
type WaitTarget struct {
	// Any, when true, matches any child regardless of TID/PID.
	Any bool
	// PID matches a single child by tid; ignored when Any is true.
	PID TID
}

// TryWait performs the non-blocking half of wait4 (spec.md §4.E Wait):
// it scans t's children for one already Zombie matching target, reaps
// it (removing it from Children so it is no longer referenced, letting
// Go's GC collect it once nothing else holds it) and returns its tid and
// exit code. The second return value is false if no matching zombie
// exists yet (caller decides whether to suspend or return EAGAIN).
func (t *Task) TryWait(target WaitTarget) (TID, int32, bool) {
	pcb, unlock := t.PCB()
	defer unlock()

	for i, c := range pcb.Children {
		if !target.Any && c.TID != target.PID {
			continue
		}
		if c.Status() != Zombie {
			continue
		}
		pcb.Children = append(pcb.Children[:i], pcb.Children[i+1:]...)
		cPCB, unlockC := c.PCB()
		code := cPCB.ExitCode
		unlockC()
		freeTID(c.TID)
		return c.TID, code, true
	}
	return 0, 0, false
}

// HasMatchingChild reports whether t has any live or zombie child
// satisfying target, used to decide between EAGAIN/EINTR and ECHILD when
// TryWait finds no zombie yet.
func (t *Task) HasMatchingChild(target WaitTarget) bool {
	pcb, unlock := t.PCB()
	defer unlock()

	for _, c := range pcb.Children {
		if target.Any || c.TID == target.PID {
			return true
		}
	}
	return false
}

// BeginBlockingWait sets WaitReq under the PCB lock, the handshake flag
// the exiting child's handler checks before waking this task (spec.md
// §4.E: "Blocking wait sets wait_req=true under the PCB lock and
// suspends").
func (t *Task) BeginBlockingWait() {
	pcb, unlock := t.PCB()
	pcb.WaitReq = true
	unlock()
}
