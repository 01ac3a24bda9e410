package task

import "testing"

func TestThreadGroupInsertRemoveLen(t *testing.T) {
	g := NewThreadGroup()
	a := &Task{TID: 1}
	b := &Task{TID: 2}

	g.Insert(a)
	g.Insert(b)
	if got := g.Len(); got != 2 {
		t.Fatalf("expected 2 members; got %d", got)
	}

	g.Remove(a.TID)
	if got := g.Len(); got != 1 {
		t.Fatalf("expected 1 member after removal; got %d", got)
	}

	seen := map[TID]bool{}
	g.Each(func(t *Task) bool {
		seen[t.TID] = true
		return true
	})
	if !seen[b.TID] || seen[a.TID] {
		t.Fatalf("expected Each to visit only the remaining member; got %v", seen)
	}
}

func TestThreadGroupEachStopsEarly(t *testing.T) {
	g := NewThreadGroup()
	for tid := TID(1); tid <= 5; tid++ {
		g.Insert(&Task{TID: tid})
	}

	visited := 0
	g.Each(func(*Task) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("expected Each to stop after the first callback returns false; visited %d", visited)
	}
}

func TestManagerInsertGetRemove(t *testing.T) {
	m := &Manager{tasks: make(map[TID]*Task)}
	tk := &Task{TID: 123}

	m.Insert(tk)
	if got := m.Get(123); got != tk {
		t.Fatalf("expected to find the inserted task; got %v", got)
	}

	m.Remove(123)
	if got := m.Get(123); got != nil {
		t.Fatalf("expected the task to be gone after Remove; got %v", got)
	}
}

func TestProcessGroupManagerJoinLeaveMembers(t *testing.T) {
	m := &ProcessGroupManager{groups: make(map[PGID][]*Task)}
	a := &Task{TID: 1}
	b := &Task{TID: 2}

	m.Join(7, a)
	m.Join(7, b)

	members := m.Members(7)
	if len(members) != 2 {
		t.Fatalf("expected 2 members; got %d", len(members))
	}

	m.Leave(7, a)
	members = m.Members(7)
	if len(members) != 1 || members[0] != b {
		t.Fatalf("expected only b to remain; got %v", members)
	}
}
