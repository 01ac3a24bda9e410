// Package arch defines the capability set that the rest of the kernel
// programs against so that the scheduler, trap dispatcher and VM subsystem
// never mention a concrete instruction set. Each supported architecture
// (riscv64, loong64) provides one implementation of the Arch and TrapContext
// interfaces below; kmain picks it through GOARCH build constraints and
// installs it with Init at startup.
//
// Arch operations never fail: an unrecognised trap code is a fatal kernel
// panic (spec.md §4.A), not an error return.
package arch

import "noaxiom/kernel/mem/pmm"

// TrapContext is the saved register state for a task that is outside user
// mode: general-purpose registers, the user program counter, and whatever
// the concrete architecture needs to resume execution exactly where it left
// off. Concrete architectures embed additional fields (e.g. FP/vector state)
// but every consumer in the portable kernel code only ever goes through the
// accessor methods below.
type TrapContext interface {
	// EPC returns the user program counter to resume at.
	EPC() uintptr
	// SetEPC overwrites the resume program counter.
	SetEPC(uintptr)
	// SP returns the user stack pointer.
	SP() uintptr
	// SetSP overwrites the user stack pointer.
	SetSP(uintptr)
	// RA returns the return address register.
	RA() uintptr
	// TP returns the thread-pointer register (used for SETTLS).
	TP() uintptr
	// SetTP overwrites the thread-pointer register.
	SetTP(uintptr)

	// Arg returns syscall argument i (0..5), sourced from A0..A5.
	Arg(i int) uint64
	// SetArg overwrites syscall argument i; used to restore a saved
	// argument register before replaying a restartable syscall after
	// EINTR (spec.md §4.F Cancellation).
	SetArg(i int, v uint64)
	// SyscallNo returns the syscall number (A7 on riscv64/loong64).
	SyscallNo() uint64
	// SetReturn writes a syscall's return value (success >= 0, or the
	// two's-complement encoding of -errno) into the A0-equivalent slot.
	SetReturn(v int64)

	// Clone copies the trap context for a forked/cloned child.
	Clone() TrapContext
}

// TrapKind classifies the reason control entered the kernel.
type TrapKind uint8

const (
	// TrapNone indicates no trap is pending (never returned by a backend's decodeTrap).
	TrapNone TrapKind = iota
	TrapSyscall
	TrapBreakpoint
	TrapIllegalInstruction
	TrapPageFaultLoad
	TrapPageFaultStore
	TrapPageFaultFetch
	TrapTimer
	TrapExternal
	TrapSoftwareIPI
	TrapUnknown
)

// String renders a TrapKind for diagnostics.
func (k TrapKind) String() string {
	switch k {
	case TrapNone:
		return "none"
	case TrapSyscall:
		return "syscall"
	case TrapBreakpoint:
		return "breakpoint"
	case TrapIllegalInstruction:
		return "illegal-instruction"
	case TrapPageFaultLoad:
		return "page-fault(load)"
	case TrapPageFaultStore:
		return "page-fault(store)"
	case TrapPageFaultFetch:
		return "page-fault(fetch)"
	case TrapTimer:
		return "timer"
	case TrapExternal:
		return "external"
	case TrapSoftwareIPI:
		return "software-ipi"
	default:
		return "unknown"
	}
}

// Trap describes a decoded trap: its kind, plus the extra data each kind
// carries (a fault address for page faults, an IRQ number for External).
type Trap struct {
	Kind    TrapKind
	Addr    uintptr // valid for TrapPageFault*
	ExtIRQ  uint32  // valid for TrapExternal
}

// IPIKind distinguishes the two inter-hart notifications the kernel sends
// (spec.md §4.H).
type IPIKind uint8

const (
	IPIResched IPIKind = iota
	IPITLBShootdown
)

// Arch is the full capability bundle a hart executor is built on top of.
// Exactly one implementation exists per GOARCH; Current() returns it.
type Arch interface {
	// HartID returns the id of the hart executing this call.
	HartID() uint32

	// NewTrapContext returns a zeroed trap context together with its
	// entry point and stack set to entry/userSP, suitable for a freshly
	// exec'd or cloned task.
	NewTrapContext(entry, userSP uintptr) TrapContext

	// TrapRestore returns to user mode using ctx and blocks until the
	// next trap, at which point it writes the new register state back
	// into ctx and returns the decoded reason.
	TrapRestore(ctx TrapContext) Trap

	// EnableInterrupts / DisableInterrupts toggle the hart-global
	// interrupt-enable bit and report the previous state.
	EnableInterrupts() (wasEnabled bool)
	DisableInterrupts() (wasEnabled bool)
	InterruptsEnabled() bool

	// EnableUserMemoryAccess toggles the bit that lets supervisor-mode
	// loads/stores dereference user-mapped pages (SUM on riscv64, PLV
	// checks on loong64). Returns a restore function.
	EnableUserMemoryAccess() (restore func())

	// FlushTLBEntry invalidates the TLB entry for a single virtual
	// address; FlushTLBAll invalidates every entry on this hart.
	FlushTLBEntry(va uintptr)
	FlushTLBAll()

	// SetRootPPN installs a new root page table (the SATP/PGDL
	// equivalent) and flushes the TLB.
	SetRootPPN(ppn pmm.Frame)
	RootPPN() pmm.Frame

	// SetTimer arms the next timer interrupt at the given absolute tick
	// count (as read by Now).
	SetTimer(absoluteTicks uint64)
	// Now returns the current hart cycle/tick counter.
	Now() uint64
	// TicksPerSecond reports the timer frequency for converting
	// durations to tick counts.
	TicksPerSecond() uint64

	// SendIPI asks hart to take an inter-processor interrupt of the
	// given kind; ClearIPI acknowledges receipt inside the handler.
	SendIPI(hart uint32, kind IPIKind)
}

var current Arch

// Init installs the architecture implementation used by the rest of the
// kernel. Called exactly once by the boot hart before any other Init.
func Init(a Arch) { current = a }

// Current returns the active architecture implementation.
func Current() Arch { return current }
