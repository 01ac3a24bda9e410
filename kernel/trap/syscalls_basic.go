package trap

import (
	"unsafe"

	"noaxiom/kernel/arch"
	"noaxiom/kernel/errno"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

// readyInt64 is the zero-suspension-point case: a handler whose result is
// already known on its first (and only) poll.
func readyInt64(v int64) runtime.Future[int64] {
	return runtime.FuncFuture[int64](func(cx *runtime.Context) runtime.PollResult[int64] {
		return runtime.Ready(v)
	})
}

// userBytes returns a slice over length bytes at addr in the calling
// task's own address space, for the duration of the enclosing read/write
// syscall only. Mirrors task.writeUserTID's EnableUserMemoryAccess use;
// real pointer validation (page-by-page, triggering a lazy page-in on
// fault per spec.md §4.D) belongs to a future VFS/copy_from_user layer,
// out of scope for the handlers below.
func userBytes(addr uintptr, length int) []byte {
	restore := arch.Current().EnableUserMemoryAccess()
	defer restore()
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}

func errnoOf(err error) errno.Errno {
	if e, ok := err.(errno.Errno); ok {
		return e
	}
	return errno.EIO
}

func sysWriteHandler(t *task.Task, args Args) runtime.Future[int64] {
	f, err := t.Fds.Get(int(args[0]))
	if err != nil {
		return readyInt64(errnoOf(err).Negated())
	}
	n, werr := f.Write(userBytes(uintptr(args[1]), int(args[2])))
	if werr != nil {
		return readyInt64(errnoOf(werr).Negated())
	}
	return readyInt64(int64(n))
}

func sysReadHandler(t *task.Task, args Args) runtime.Future[int64] {
	f, err := t.Fds.Get(int(args[0]))
	if err != nil {
		return readyInt64(errnoOf(err).Negated())
	}
	n, rerr := f.Read(userBytes(uintptr(args[1]), int(args[2])))
	if rerr != nil {
		return readyInt64(errnoOf(rerr).Negated())
	}
	return readyInt64(int64(n))
}

func sysCloseHandler(t *task.Task, args Args) runtime.Future[int64] {
	if err := t.Fds.Close(int(args[0])); err != nil {
		return readyInt64(errnoOf(err).Negated())
	}
	return readyInt64(0)
}

func sysDupHandler(t *task.Task, args Args) runtime.Future[int64] {
	f, err := t.Fds.Get(int(args[0]))
	if err != nil {
		return readyInt64(errnoOf(err).Negated())
	}
	fd, ierr := t.Fds.Install(f)
	if ierr != nil {
		return readyInt64(errnoOf(ierr).Negated())
	}
	return readyInt64(int64(fd))
}

func sysGetcwdHandler(t *task.Task, args Args) runtime.Future[int64] {
	// No VFS/cwd tracking exists yet (out of scope); report the root.
	buf := userBytes(uintptr(args[0]), int(args[1]))
	if len(buf) == 0 {
		return readyInt64(errno.EINVAL.Negated())
	}
	buf[0] = '/'
	return readyInt64(int64(args[0]))
}

func sysExitHandler(t *task.Task, args Args) runtime.Future[int64] {
	pcb, unlock := t.PCB()
	pcb.SetStatus(task.Zombie)
	pcb.ExitCode = int32(args[0])
	unlock()
	return readyInt64(0)
}

func sysSetTidAddrHandler(t *task.Task, args Args) runtime.Future[int64] {
	t.TCB.ClearChildTID = uintptr(args[0])
	return readyInt64(int64(t.TID))
}

func sysSchedYieldHandler(t *task.Task, args Args) runtime.Future[int64] {
	return &yieldToInt64{inner: runtime.YieldNow()}
}

type yieldToInt64 struct {
	inner runtime.Future[struct{}]
}

func (f *yieldToInt64) Poll(cx *runtime.Context) runtime.PollResult[int64] {
	if res := f.inner.Poll(cx); res.Ready {
		return runtime.Ready(int64(0))
	}
	return runtime.Pending[int64]()
}

func sysKillHandler(t *task.Task, args Args) runtime.Future[int64] {
	target := task.TaskManager().Get(task.TID(args[0]))
	if target == nil {
		return readyInt64(errno.ESRCH.Negated())
	}
	pcb, unlock := target.PCB()
	pcb.PendingSigs.Push(task.SigInfo{Signo: int32(args[1])})
	unlock()
	if w := target.TCB.Waker; w != nil {
		w.Wake()
	}
	return readyInt64(0)
}

func sysGetpidHandler(t *task.Task, args Args) runtime.Future[int64] { return readyInt64(int64(t.TGID)) }
func sysGettidHandler(t *task.Task, args Args) runtime.Future[int64] { return readyInt64(int64(t.TID)) }

func sysGetppidHandler(t *task.Task, args Args) runtime.Future[int64] {
	parent := t.Parent()
	if parent == nil {
		return readyInt64(0)
	}
	return readyInt64(int64(parent.TID))
}

func sysBrkHandler(t *task.Task, args Args) runtime.Future[int64] {
	newBrk, err := t.MemorySet.Brk(uintptr(args[0]))
	if err != nil {
		return readyInt64(errno.ENOMEM.Negated())
	}
	return readyInt64(int64(newBrk))
}

// SleepQueuePush registers (deadline, waker) with the calling hart's sleep
// manager; kernel/ipi installs the real container/heap-backed queue at
// init time (spec.md §4.H "a task calls sleep(duration), pushes
// (now+duration, own waker), and suspends"). The zero value never wakes
// the caller, which is harmless everywhere but a real boot: kernel/trap's
// own tests only ever drive a nanosleepFuture whose deadline is already
// due, or abandon it via signal interruption, before this matters.
var SleepQueuePush = func(hart uint32, deadline uint64, w task.Waker) {}

// nanosleepFuture resolves once Now() reaches deadline. sysNanosleepHandler
// rounds any requested duration below kconfig.TimeoutMinUS up to it, so
// every sleep lasts at least that long; a poll before the deadline parks
// the future on the hart's sleep queue and relies on the timer tick to
// wake it. No sleep busy-waits.
type nanosleepFuture struct {
	deadline uint64
	queued   bool
}

func (f *nanosleepFuture) Poll(cx *runtime.Context) runtime.PollResult[int64] {
	if arch.Current().Now() >= f.deadline {
		return runtime.Ready(int64(0))
	}
	if !f.queued {
		SleepQueuePush(arch.Current().HartID(), f.deadline, cx.Waker())
		f.queued = true
	}
	return runtime.Pending[int64]()
}

func sysNanosleepHandler(t *task.Task, args Args) runtime.Future[int64] {
	secs := args[0]
	nsecs := args[1]
	hz := arch.Current().TicksPerSecond()
	durTicks := secs*hz + (nsecs*hz)/1_000_000_000
	minTicks := kconfig.TimeoutMinUS * hz / 1_000_000
	if durTicks < minTicks {
		durTicks = minTicks
	}
	return &nanosleepFuture{deadline: arch.Current().Now() + durTicks}
}
