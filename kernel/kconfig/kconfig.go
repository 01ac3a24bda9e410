// Package kconfig collects the kernel-wide tuning constants spec.md leaves
// unspecified. Values are carried over from original_source/NoAxiom's
// kernel/src/config family rather than invented.
package kconfig

const (
	// PageSize is the hardware page size on every supported architecture.
	PageSize = 4096

	// UserStackSize is the default size of a freshly exec'd task's user
	// stack, before any rlimit-driven growth.
	UserStackSize = PageSize * 2

	// KernelStackSize is the size of the per-task kernel stack used while
	// servicing a trap.
	KernelStackSize = PageSize * 2

	// KernelHeapSize is the ceiling on how far a process's brk heap may
	// grow above its base (32 MiB); vmm.MemorySet.Brk rejects growth
	// beyond it.
	KernelHeapSize = 0x200_0000

	// TimeSlicePerSec is the number of scheduler time slices per second;
	// its reciprocal is the preemption tick period.
	TimeSlicePerSec = 100

	// LoadBalanceSliceNum is how many preemption ticks elapse between an
	// executor's work-stealing reconsiderations.
	LoadBalanceSliceNum = 10

	// TimeoutMinUS is the smallest timeout, in microseconds, the sleep
	// queue will arm; callers asking for less are rounded up to it.
	TimeoutMinUS = 500

	// MaxSyscallArgs is the number of argument registers the trap
	// dispatcher extracts from a TrapContext (a0..a5).
	MaxSyscallArgs = 6

	// NiceZeroLoad is the vruntime scaling base used together with
	// inv_weight (kernel/task's niceToInvWeight table): nice value 0
	// carries weight 1024, matching Linux's NICE_0_LOAD so that a nice-0
	// task's vruntime advances at exactly the rate it runs.
	NiceZeroLoad = 1024

	// InitProcessID is the tid of the kernel's first user process, which
	// task.Exit reparents orphaned children to. Its own exit does not shut
	// the kernel down.
	InitProcessID = 1

	// MaxOpenFiles bounds a task's fd table.
	MaxOpenFiles = 256

	// MaxHarts bounds the per-hart executor/sleep-manager/IPI-inbox arrays
	// (config::arch::CPU_NUM in original_source/NoAxiom). QEMU's virt
	// platform exposes at most this many harts to a guest kernel; it is a
	// fixed array bound, not a hard architectural limit.
	MaxHarts = 8
)
