package trap

import (
	"unsafe"

	"noaxiom/kernel"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm/allocator"
	"noaxiom/kernel/mem/vmm"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

// pageInFuture drives a single faulting vpn to resolution (spec.md §4.G's
// memory_validate), resolving to nil on success or the kernel.Error that
// caused the fault to be unresolvable. MemorySet.Validate's fast paths
// (COW realize, lazy anon alloc) are synchronous; the file-backed slow
// path is carried out here too, since FileSource.ReadPage is itself a
// synchronous call in the (out-of-scope) VFS layer this kernel is built
// against - there is exactly one suspension point in the real system
// (the device read) and none in this one, so the future resolves on its
// first poll either way.
type pageInFuture struct {
	ms    *vmm.MemorySet
	addr  uintptr
	write bool
	done  bool
}

func (f *pageInFuture) Poll(cx *runtime.Context) runtime.PollResult[*kernel.Error] {
	if f.done {
		return runtime.Ready[*kernel.Error](nil)
	}
	f.done = true

	vpn := uintptr(vmm.PageFromAddress(f.addr))

	// A store into a present leaf that is still copy-on-write (the common
	// case right after Fork) must be realized in place - copy or reclaim
	// the shared frame - before anything else; Validate's nil-pte path
	// assumes no leaf is mapped yet and would otherwise map a fresh zeroed
	// frame over the shared one, losing its contents and leaking the
	// sharer's reference.
	if f.write {
		if err := vmm.HandlePageFault(f.addr, true); err == nil {
			return runtime.Ready[*kernel.Error](nil)
		}
	}

	err := f.ms.Validate(vpn, f.write, nil)
	if err == nil {
		return runtime.Ready[*kernel.Error](nil)
	}
	if err != vmm.ErrNeedsPageIn {
		return runtime.Ready(err)
	}

	area := f.ms.AreaAt(vpn)
	if area == nil || area.File == nil {
		return runtime.Ready(vmm.ErrInvalidMapping)
	}

	frame, ferr := allocator.FrameAllocator.AllocFrame()
	if ferr != nil {
		return runtime.Ready(ferr)
	}

	tmpPage, terr := vmm.MapTemporary(frame)
	if terr != nil {
		return runtime.Ready(terr)
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(tmpPage.Address())), int(mem.PageSize))
	fileOffset := area.FileOffset + int64(vpn-area.StartVPN)*int64(mem.PageSize)
	_, rerr := area.File.ReadPage(fileOffset, dst)
	vmm.Unmap(tmpPage)
	if rerr != nil {
		return runtime.Ready(vmm.ErrInvalidMapping)
	}

	return runtime.Ready(f.ms.InstallFileBackedPage(area, vpn, frame))
}

// userPageFaultFuture adapts pageInFuture to the struct{}-resolving shape
// dispatchUserTrap's other branches return, converting a resolution
// failure into a queued SIGSEGV/SIGBUS instead of propagating the error
// (spec.md §4.G: "on error, deliver SIGSEGV to the task").
type userPageFaultFuture struct {
	t     *task.Task
	addr  uintptr
	inner runtime.Future[*kernel.Error]
}

func newUserPageFaultFuture(t *task.Task, addr uintptr, write bool) runtime.Future[struct{}] {
	return &userPageFaultFuture{
		t:     t,
		addr:  addr,
		inner: &pageInFuture{ms: t.MemorySet, addr: addr, write: write},
	}
}

func (f *userPageFaultFuture) Poll(cx *runtime.Context) runtime.PollResult[struct{}] {
	res := f.inner.Poll(cx)
	if !res.Ready {
		return runtime.Pending[struct{}]()
	}
	if res.Value != nil {
		signo := sigSegv
		if res.Value == vmm.ErrInvalidMapping {
			signo = sigBus
		}
		raiseSignal(f.t, signo, f.addr)
	}
	return runtime.Ready(struct{}{})
}

// KernelPageFault resolves a page fault taken by kernel-mode code copying
// to or from a user address (spec.md §4.G Kernel trap cause (a)): block_on
// is the right adapter here since there is no outer executor servicing a
// bare kernel-mode fault handler.
func KernelPageFault(ms *vmm.MemorySet, addr uintptr, write bool) *kernel.Error {
	return runtime.BlockOn[*kernel.Error](&pageInFuture{ms: ms, addr: addr, write: write})
}
