package trap

import (
	"noaxiom/kernel/errno"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

// Linux riscv64/loong64 syscall numbers; only the subset this kernel
// implements is listed, matching the table original_source/NoAxiom's
// syscall.rs dispatches from (constant::syscall) but against the real
// Linux ABI numbering rather than that file's placeholder constants.
const (
	sysGetcwd     = 17
	sysDup        = 23
	sysClose      = 57
	sysRead       = 63
	sysWrite      = 64
	sysExit       = 93
	sysExitGroup  = 94
	sysSetTidAddr = 96
	sysNanosleep  = 101
	sysSchedYield = 124
	sysKill       = 129
	sysGettid     = 178
	sysGetpid     = 172
	sysGetppid    = 173
	sysBrk        = 214
)

// Args is the six argument registers a syscall sees (spec.md §4.G Syscall
// contract: "Arguments are six usize-wide values from the trap frame").
type Args [kconfig.MaxSyscallArgs]uint64

// Handler implements one syscall number. It returns a future so handlers
// that must suspend (a blocking read, a sleep) compose with the rest of
// kernel/runtime exactly like any other awaited operation; handlers with
// no suspension point just return an already-Ready future.
type Handler func(t *task.Task, args Args) runtime.Future[int64]

var table = map[uint64]Handler{
	sysGetcwd:     sysGetcwdHandler,
	sysDup:        sysDupHandler,
	sysClose:      sysCloseHandler,
	sysRead:       sysReadHandler,
	sysWrite:      sysWriteHandler,
	sysExit:       sysExitHandler,
	sysExitGroup:  sysExitHandler,
	sysSetTidAddr: sysSetTidAddrHandler,
	sysNanosleep:  sysNanosleepHandler,
	sysSchedYield: sysSchedYieldHandler,
	sysKill:       sysKillHandler,
	sysGettid:     sysGettidHandler,
	sysGetpid:     sysGetpidHandler,
	sysGetppid:    sysGetppidHandler,
	sysBrk:        sysBrkHandler,
}

// syscallFuture builds the future that resolves one TrapSyscall (spec.md
// §4.G step 3 Syscall): advance EPC, read id+args, await the handler
// wrapped in the interruptable combinator, write the result back.
func syscallFuture(t *task.Task) runtime.Future[struct{}] {
	cx := t.TCB.Cx
	cx.SetEPC(cx.EPC() + instructionWidth)

	no := cx.SyscallNo()
	var args Args
	for i := range args {
		args[i] = cx.Arg(i)
	}

	h, ok := table[no]
	if !ok {
		cx.SetReturn(errno.ENOSYS.Negated())
		return syncFuture(func() {})
	}

	inner := h(t, args)
	checker := func() bool { return t.HasPendingSignals(^uint64(0)) }
	wrapped := runtime.Interruptable(inner, checker)

	return &syscallDispatchFuture{t: t, inner: wrapped}
}

// syscallDispatchFuture adapts an Interruptable[int64] future into the
// struct{} shape dispatchUserTrap's other branches return, writing the
// resolved value (or -EINTR) into the trap context once.
type syscallDispatchFuture struct {
	t     *task.Task
	inner runtime.Future[runtime.InterruptResult[int64]]
}

func (f *syscallDispatchFuture) Poll(cx *runtime.Context) runtime.PollResult[struct{}] {
	res := f.inner.Poll(cx)
	if !res.Ready {
		return runtime.Pending[struct{}]()
	}

	if res.Value.Interrupted {
		f.t.TCB.Cx.SetReturn(errno.EINTR.Negated())
		f.t.TCB.TIF |= task.TIFSigPending
	} else {
		f.t.TCB.Cx.SetReturn(res.Value.Value)
	}
	return runtime.Ready(struct{}{})
}
