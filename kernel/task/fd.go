package task

import (
	"noaxiom/kernel/errno"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/sync"
)

// File is the minimal capability an fd table slot needs from whatever the
// (out-of-scope) VFS/driver layer hands it: read, write and close. Real
// files, pipes, sockets and device nodes all satisfy this trivially;
// kernel/task never needs to know which.
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// FdTable is a task's open-file table (spec.md §3 Task: "Arc to FdTable").
// Shared between threads of the same process unless CLONE_FILES is
// cleared at clone time, in which case the child gets its own copy.
type FdTable struct {
	lock  sync.SpinLock
	files []File // nil slot means the fd is closed
}

// NewFdTable returns an empty fd table sized to kconfig.MaxOpenFiles.
func NewFdTable() *FdTable {
	return &FdTable{files: make([]File, kconfig.MaxOpenFiles)}
}

// Clone returns a private copy of t sharing every open File (the
// descriptors themselves are duplicated, not the underlying files) - the
// CLONE_FILES-unset case of clone(2).
func (t *FdTable) Clone() *FdTable {
	defer sync.Guard(&t.lock)()

	cp := &FdTable{files: make([]File, len(t.files))}
	copy(cp.files, t.files)
	return cp
}

// Install places f in the lowest-numbered free slot and returns its fd, or
// EMFILE if the table is full.
func (t *FdTable) Install(f File) (int, error) {
	defer sync.Guard(&t.lock)()

	for i, slot := range t.files {
		if slot == nil {
			t.files[i] = f
			return i, nil
		}
	}
	return -1, errno.EMFILE
}

// Get returns the File installed at fd, or EBADF if fd is out of range or
// closed.
func (t *FdTable) Get(fd int) (File, error) {
	defer sync.Guard(&t.lock)()

	if fd < 0 || fd >= len(t.files) || t.files[fd] == nil {
		return nil, errno.EBADF
	}
	return t.files[fd], nil
}

// Close closes and clears fd's slot.
func (t *FdTable) Close(fd int) error {
	defer sync.Guard(&t.lock)()

	if fd < 0 || fd >= len(t.files) || t.files[fd] == nil {
		return errno.EBADF
	}
	f := t.files[fd]
	t.files[fd] = nil
	return f.Close()
}

// CloseAll closes every open fd; called when the last thread sharing this
// table exits.
func (t *FdTable) CloseAll() {
	defer sync.Guard(&t.lock)()

	for i, f := range t.files {
		if f != nil {
			_ = f.Close()
			t.files[i] = nil
		}
	}
}
