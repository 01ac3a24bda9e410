package trap

import (
	"testing"
	"unsafe"

	"noaxiom/kernel/errno"
	"noaxiom/kernel/task"
)

type fakeFile struct {
	written []byte
	toRead  []byte
}

func (f *fakeFile) Read(p []byte) (int, error) {
	n := copy(p, f.toRead)
	return n, nil
}
func (f *fakeFile) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}
func (f *fakeFile) Close() error { return nil }

func fakeCx(tk *task.Task) *fakeTrapContext {
	return tk.TCB.Cx.(*fakeTrapContext)
}

func TestSyscallFutureWriteRoundTrips(t *testing.T) {
	tk := newTestTask(t)
	ff := &fakeFile{}
	fd, err := tk.Fds.Install(ff)
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("hello")
	cx := fakeCx(tk)
	cx.syscallNo = sysWrite
	cx.args[0] = uint64(fd)
	cx.args[1] = uint64(uintptr(unsafe.Pointer(&msg[0])))
	cx.args[2] = uint64(len(msg))

	drive(syscallFuture(tk))

	if string(ff.written) != "hello" {
		t.Fatalf("expected the written bytes to round-trip; got %q", ff.written)
	}
	if cx.ret != int64(len(msg)) {
		t.Fatalf("expected sys_write to return the byte count; got %d", cx.ret)
	}
}

func TestSyscallFutureUnknownNumberReturnsENOSYS(t *testing.T) {
	tk := newTestTask(t)
	cx := fakeCx(tk)
	cx.syscallNo = 0xffff

	drive(syscallFuture(tk))
	if cx.ret != errno.ENOSYS.Negated() {
		t.Fatalf("expected -ENOSYS for an unknown syscall number; got %d", cx.ret)
	}
}

func TestSyscallFutureInterruptedBySignalReturnsEINTR(t *testing.T) {
	tk := newTestTask(t)
	cx := fakeCx(tk)
	cx.syscallNo = sysNanosleep
	cx.args[0] = 1 // 1 second: long enough that the pending signal wins the race

	pcb, unlock := tk.PCB()
	pcb.PendingSigs.Push(task.SigInfo{Signo: 2})
	unlock()

	drive(syscallFuture(tk))
	if cx.ret != errno.EINTR.Negated() {
		t.Fatalf("expected -EINTR once a signal is pending; got %d", cx.ret)
	}
	if tk.TCB.TIF&task.TIFSigPending == 0 {
		t.Fatal("expected TIFSigPending to be set on interruption")
	}
}

func TestSyscallFutureGetpidGettid(t *testing.T) {
	tk := newTestTask(t)
	cx := fakeCx(tk)
	cx.syscallNo = sysGetpid
	drive(syscallFuture(tk))
	if cx.ret != int64(tk.TGID) {
		t.Fatalf("expected getpid to return the tgid; got %d", cx.ret)
	}

	cx.syscallNo = sysGettid
	drive(syscallFuture(tk))
	if cx.ret != int64(tk.TID) {
		t.Fatalf("expected gettid to return the tid; got %d", cx.ret)
	}
}

func TestSyscallFutureExitFlipsStatusWithoutTearDown(t *testing.T) {
	tk := newTestTask(t)
	cx := fakeCx(tk)
	cx.syscallNo = sysExit
	cx.args[0] = 7

	drive(syscallFuture(tk))

	pcb, unlock := tk.PCB()
	defer unlock()
	if pcb.Status() != task.Zombie {
		t.Fatal("expected sys_exit to mark the task Zombie")
	}
	if pcb.ExitCode != 7 {
		t.Fatalf("expected the exit code to be recorded; got %d", pcb.ExitCode)
	}
	if task.TaskManager().Get(tk.TID) != tk {
		t.Fatal("expected sys_exit to leave the task registered until userLoop runs Exit")
	}
}

func TestSyscallFutureCloseBadFdReturnsEBADF(t *testing.T) {
	tk := newTestTask(t)
	cx := fakeCx(tk)
	cx.syscallNo = sysClose
	cx.args[0] = 99

	drive(syscallFuture(tk))
	if cx.ret != errno.EBADF.Negated() {
		t.Fatalf("expected -EBADF for an unopened fd; got %d", cx.ret)
	}
}

func TestSyscallFutureDupInstallsNewFd(t *testing.T) {
	tk := newTestTask(t)
	ff := &fakeFile{}
	fd, err := tk.Fds.Install(ff)
	if err != nil {
		t.Fatal(err)
	}

	cx := fakeCx(tk)
	cx.syscallNo = sysDup
	cx.args[0] = uint64(fd)
	drive(syscallFuture(tk))

	if cx.ret == int64(fd) || cx.ret < 0 {
		t.Fatalf("expected dup to install a distinct fd; got %d (original %d)", cx.ret, fd)
	}
	if got, err := tk.Fds.Get(int(cx.ret)); err != nil || got != ff {
		t.Fatalf("expected the duplicated fd to resolve to the same file; got %v, %v", got, err)
	}
}
