package task

// Clone implements the single clone(2) operation's flag-driven sharing
// table (spec.md §4.E Clone semantics). t is the calling task; the
// returned Task is the new thread or process, already registered with the
// global task manager and (for a new process) the parent's process group.
func (t *Task) Clone(req CloneRequest) (*Task, error) {
	childTID := allocTID()
	childTGID := childTID
	if req.Flags.Has(CloneThread) {
		childTGID = t.TGID
	}

	var childMS = t.MemorySet
	if !req.Flags.Has(CloneVM) {
		forked, err := t.MemorySet.Fork()
		if err != nil {
			freeTID(childTID)
			return nil, err
		}
		childMS = forked
	}

	childFds := t.Fds
	if !req.Flags.Has(CloneFiles) {
		childFds = t.Fds.Clone()
	}

	childSigActions := t.SigActions
	if !req.Flags.Has(CloneSigHand) {
		childSigActions = t.SigActions.Clone()
	}

	childGroup := t.ThreadGroup
	if !req.Flags.Has(CloneThread) {
		childGroup = NewThreadGroup()
	}

	child := &Task{
		TID:         childTID,
		TGID:        childTGID,
		PGID:        t.PGID,
		ThreadGroup: childGroup,
		MemorySet:   childMS,
		Fds:         childFds,
		SigActions:  childSigActions,
		Sched:       NewSchedEntity(childTID),
	}

	child.TCB.Cx = t.TCB.Cx.Clone()
	if req.ChildStackTop != 0 {
		child.TCB.Cx.SetSP(req.ChildStackTop)
	}
	if req.Flags.Has(CloneSetTLS) {
		child.TCB.Cx.SetTP(req.TLS)
	}
	if req.Flags.Has(CloneChildSetTID) {
		child.TCB.SetChildTID = req.ChildTIDPtr
	}
	if req.Flags.Has(CloneChildClearTID) {
		child.TCB.ClearChildTID = req.ChildTIDPtr
	}
	child.pcb.SetStatus(Runnable)

	if !req.Flags.Has(CloneThread) {
		groupLeader := t.groupLeader()
		lpcb, unlockL := groupLeader.PCB()
		cpcb, unlockC := child.PCB()
		cpcb.Parent = groupLeader
		unlockC()
		lpcb.Children = append(lpcb.Children, child)
		unlockL()

		processGroupManager.Join(child.PGID, child)
	}

	child.ThreadGroup.Insert(child)
	taskManager.Insert(child)

	if req.Flags.Has(CloneParentSetTID) {
		writeUserTID(req.ParentTIDPtr, child.TID)
	}
	if req.Flags.Has(CloneChildSetTID) {
		writeUserTID(req.ChildTIDPtr, child.TID)
	}

	return child, nil
}

// groupLeader returns the task that owns t's children list (spec.md
// §4.E: "only when the task is group leader, it can have children").
func (t *Task) groupLeader() *Task {
	if t.isGroupLeader() {
		return t
	}
	if leader := taskManager.Get(t.TGID); leader != nil {
		return leader
	}
	return t
}
