package task

import "noaxiom/kernel/sync"

// ThreadGroup is the set of tasks sharing a tgid (spec.md §3 Task: "Arc to
// thread-group roster"). Every thread of a process, including the leader,
// is a member.
type ThreadGroup struct {
	lock  sync.SpinLock
	tasks map[TID]*Task
}

// NewThreadGroup returns an empty roster.
func NewThreadGroup() *ThreadGroup { return &ThreadGroup{tasks: make(map[TID]*Task)} }

// Insert adds t to the roster.
func (g *ThreadGroup) Insert(t *Task) {
	defer sync.Guard(&g.lock)()
	g.tasks[t.TID] = t
}

// Remove drops tid from the roster.
func (g *ThreadGroup) Remove(tid TID) {
	defer sync.Guard(&g.lock)()
	delete(g.tasks, tid)
}

// Len reports how many threads remain in the group.
func (g *ThreadGroup) Len() int {
	defer sync.Guard(&g.lock)()
	return len(g.tasks)
}

// Each calls fn for every member, stopping early if fn returns false. fn
// must not mutate the group.
func (g *ThreadGroup) Each(fn func(*Task) bool) {
	defer sync.Guard(&g.lock)()
	for _, t := range g.tasks {
		if !fn(t) {
			return
		}
	}
}

// Manager is the global tid -> Task registry (spec.md §4.E: "inserts the
// task into the global TASK_MANAGER"). A task is removed from it at exit
// while it stays, as a zombie, in its parent's Children list, so a lookup
// by tid never resolves a task that has already exited even though it may
// still be reachable (and alive, thanks to Go's GC) via its parent's PCB.
type Manager struct {
	lock  sync.SpinLock
	tasks map[TID]*Task
}

var taskManager = &Manager{tasks: make(map[TID]*Task)}

// Insert registers t under its tid.
func (m *Manager) Insert(t *Task) {
	defer sync.Guard(&m.lock)()
	m.tasks[t.TID] = t
}

// Remove unregisters tid.
func (m *Manager) Remove(tid TID) {
	defer sync.Guard(&m.lock)()
	delete(m.tasks, tid)
}

// Get looks up a task by tid, or returns nil.
func (m *Manager) Get(tid TID) *Task {
	defer sync.Guard(&m.lock)()
	return m.tasks[tid]
}

// TaskManager returns the global task registry.
func TaskManager() *Manager { return taskManager }

// ProcessGroupManager tracks which tasks belong to each pgid (spec.md's
// setpgid/getpgid surface).
type ProcessGroupManager struct {
	lock   sync.SpinLock
	groups map[PGID][]*Task
}

var processGroupManager = &ProcessGroupManager{groups: make(map[PGID][]*Task)}

// Join adds t to pgid's member list.
func (m *ProcessGroupManager) Join(pgid PGID, t *Task) {
	defer sync.Guard(&m.lock)()
	m.groups[pgid] = append(m.groups[pgid], t)
}

// Leave removes t from pgid's member list.
func (m *ProcessGroupManager) Leave(pgid PGID, t *Task) {
	defer sync.Guard(&m.lock)()
	members := m.groups[pgid]
	for i, member := range members {
		if member == t {
			m.groups[pgid] = append(members[:i], members[i+1:]...)
			return
		}
	}
}

// Members returns the tasks currently in pgid.
func (m *ProcessGroupManager) Members(pgid PGID) []*Task {
	defer sync.Guard(&m.lock)()
	return append([]*Task(nil), m.groups[pgid]...)
}

// ProcGroupManager returns the global process-group registry.
func ProcGroupManager() *ProcessGroupManager { return processGroupManager }
