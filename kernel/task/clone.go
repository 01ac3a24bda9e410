package task

// CloneFlags are the standard Linux clone(2) flag bits this kernel
// recognizes (spec.md §4.E Clone semantics table). Values match the
// kernel/user ABI so user-space libc clone wrappers need no translation.
type CloneFlags uint64

const (
	CloneVM            CloneFlags = 0x00000100 // share MemorySet
	CloneFiles         CloneFlags = 0x00000400 // share fd table (spec.md's clone table calls this flag "FS")
	CloneSigHand       CloneFlags = 0x00000800 // share signal-action table
	CloneThread        CloneFlags = 0x00010000 // join caller's thread group
	CloneSetTLS        CloneFlags = 0x00080000
	CloneParentSetTID  CloneFlags = 0x00100000
	CloneChildClearTID CloneFlags = 0x00200000
	CloneChildSetTID   CloneFlags = 0x01000000
)

// Has reports whether every bit in want is set in f.
func (f CloneFlags) Has(want CloneFlags) bool { return f&want == want }

// CloneRequest bundles the clone(2) arguments a caller's syscall handler
// has already decoded, beyond the flag bits themselves.
type CloneRequest struct {
	Flags CloneFlags

	// ChildStackTop is the new task's user stack pointer; 0 with VM set
	// means "keep the parent's SP" (a vfork/thread-create convention the
	// caller is responsible for choosing).
	ChildStackTop uintptr

	ParentTIDPtr uintptr // written with the child's tid if CLONE_PARENT_SETTID
	ChildTIDPtr  uintptr // written with the child's tid if CLONE_CHILD_SETTID
	TLS          uintptr // new TP value if CLONE_SETTLS
}
