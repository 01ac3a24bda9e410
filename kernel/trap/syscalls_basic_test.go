package trap

import (
	"testing"
	"unsafe"

	"noaxiom/kernel/errno"
	"noaxiom/kernel/runtime"
)

func pollInt64(f runtime.Future[int64]) int64 {
	return runtime.BlockOn[int64](f)
}

func TestSysReadHandlerReadsIntoUserBuffer(t *testing.T) {
	tk := newTestTask(t)
	ff := &fakeFile{toRead: []byte("abc")}
	fd, err := tk.Fds.Install(ff)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 3)
	args := Args{}
	args[0] = uint64(fd)
	args[1] = uint64(uintptrFromSlice(buf))
	args[2] = uint64(len(buf))

	n := pollInt64(sysReadHandler(tk, args))
	if n != 3 || string(buf) != "abc" {
		t.Fatalf("expected the read bytes to land in the user buffer; got n=%d buf=%q", n, buf)
	}
}

func TestSysReadHandlerBadFdReturnsEBADF(t *testing.T) {
	tk := newTestTask(t)
	args := Args{}
	args[0] = 42
	if got := pollInt64(sysReadHandler(tk, args)); got != errno.EBADF.Negated() {
		t.Fatalf("expected -EBADF for an unopened fd; got %d", got)
	}
}

func TestSysGetppidHandlerNoParentReturnsZero(t *testing.T) {
	tk := newTestTask(t)
	if got := pollInt64(sysGetppidHandler(tk, Args{})); got != 0 {
		t.Fatalf("expected getppid with no parent to return 0; got %d", got)
	}
}

func TestSysBrkHandlerNoAreaReturnsENOMEM(t *testing.T) {
	tk := newTestTask(t)
	args := Args{}
	args[0] = 0x10000
	if got := pollInt64(sysBrkHandler(tk, args)); got != errno.ENOMEM.Negated() {
		t.Fatalf("expected brk against a memory set with no brk area to fail ENOMEM; got %d", got)
	}
}

func TestSysSchedYieldHandlerResolvesOnSecondPoll(t *testing.T) {
	tk := newTestTask(t)
	if got := pollInt64(sysSchedYieldHandler(tk, Args{})); got != 0 {
		t.Fatalf("expected sched_yield to report 0; got %d", got)
	}
}

func TestNanosleepFutureRespectsMinimumDuration(t *testing.T) {
	resetTrapTestState(t)
	fakeNow = 0
	tk := newTestTask(t)
	args := Args{}
	args[0] = 0
	args[1] = 0 // zero requested duration: floored to kconfig.TimeoutMinUS

	f := sysNanosleepHandler(tk, args).(*nanosleepFuture)
	if f.deadline == 0 {
		t.Fatal("expected even a zero-length sleep to floor to a minimum deadline")
	}
}

func uintptrFromSlice(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
