package allocator

import (
	"reflect"
	"unsafe"

	"github.com/bits-and-blooms/bitset"

	"noaxiom/kernel"
	"noaxiom/kernel/hal"
	"noaxiom/kernel/kfmt/early"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm"
	"noaxiom/kernel/mem/vmm"
)

var (
	// FrameAllocator is a BitmapAllocator instance that serves as the
	// primary allocator for reserving pages.
	FrameAllocator BitmapAllocator

	// The following functions are used by tests to mock calls to the vmm package
	// and are automatically inlined by the compiler.
	reserveRegionFn = vmm.EarlyReserveRegion
	mapFn           = vmm.Map
)

type markAs bool

const (
	markReserved markAs = false
	markFree            = true
)

type framePool struct {
	// startFrame is the frame number for the first page in this pool.
	startFrame pmm.Frame

	// endFrame tracks the last frame in the pool.
	endFrame pmm.Frame

	// freeCount tracks the available pages in this pool, so the
	// allocator can skip fully allocated pools without scanning the
	// free bitmap.
	freeCount uint32

	// free tracks used/free pages in the pool; a set bit means free,
	// mirroring bitset.BitSet's natural "membership" reading instead of
	// the teacher's inverted "set bit means reserved" convention.
	free *bitset.BitSet
}

// BitmapAllocator implements a physical frame allocator that tracks frame
// reservations across the available memory pools using per-pool bitsets.
type BitmapAllocator struct {
	// totalPages tracks the total number of pages across all pools.
	totalPages uint32

	// reservedPages tracks the number of reserved pages across all pools.
	reservedPages uint32

	pools []framePool
}

// init allocates space for the allocator structures using the early bootmem
// allocator and flags any allocated pages as reserved.
func (alloc *BitmapAllocator) init() *kernel.Error {
	if err := alloc.setupPools(); err != nil {
		return err
	}

	alloc.reserveKernelFrames()
	alloc.reserveEarlyAllocatorFrames()
	alloc.printStats()
	return nil
}

// setupPools uses the early allocator and vmm region reservation helper to
// initialize the list of available pools, sized from the memory regions
// kernel/hal extracted from the device tree.
func (alloc *BitmapAllocator) setupPools() *kernel.Error {
	var (
		err            *kernel.Error
		sizeofPool     = unsafe.Sizeof(framePool{})
		pageSizeMinus1 = uint64(mem.PageSize - 1)
	)

	type regionExtent struct{ startFrame, endFrame pmm.Frame }
	var extents []regionExtent

	visitAvailableRegions(func(region hal.MemRegion) bool {
		regionStartFrame := pmm.Frame(((uint64(region.Base) + pageSizeMinus1) & ^pageSizeMinus1) >> mem.PageShift)
		regionEndFrame := pmm.Frame(((uint64(region.Base)+uint64(region.Size)) & ^pageSizeMinus1)>>mem.PageShift) - 1
		extents = append(extents, regionExtent{regionStartFrame, regionEndFrame})
		alloc.totalPages += uint32(regionEndFrame - regionStartFrame)
		return true
	})

	// Reserve enough pages to hold the BitmapAllocator.pools slice itself;
	// the per-pool bitsets are allocated separately via bitset.New, which
	// carves its own []uint64 words from the Go heap.
	requiredBytes := mem.Size((uint64(len(extents))*uint64(sizeofPool) + pageSizeMinus1) & ^pageSizeMinus1)
	requiredPages := requiredBytes >> mem.PageShift

	poolsAddr, err := reserveRegionFn(requiredBytes)
	if err != nil {
		return err
	}
	for page, index := vmm.PageFromAddress(poolsAddr), mem.Size(0); index < requiredPages; page, index = page+1, index+1 {
		nextFrame, ferr := earlyAllocFrame()
		if ferr != nil {
			return ferr
		}
		if ferr = mapFn(page, nextFrame, vmm.FlagPresent|vmm.FlagRW|vmm.FlagNoExecute); ferr != nil {
			return ferr
		}
		mem.Memset(page.Address(), 0, mem.PageSize)
	}

	poolsHdr := reflect.SliceHeader{Data: poolsAddr, Len: len(extents), Cap: len(extents)}
	alloc.pools = *(*[]framePool)(unsafe.Pointer(&poolsHdr))

	for i, ext := range extents {
		bitCount := uint(ext.endFrame - ext.startFrame + 1)
		alloc.pools[i] = framePool{
			startFrame: ext.startFrame,
			endFrame:   ext.endFrame,
			freeCount:  uint32(bitCount),
			free:       newFreeBitset(bitCount),
		}
	}

	return nil
}

// newFreeBitset returns a bitset of bitCount bits, all set, so a freshly
// added pool starts out fully free.
func newFreeBitset(bitCount uint) *bitset.BitSet {
	return bitset.New(bitCount).Complement()
}

// markFrame updates the reservation flag for the bit that corresponds to
// the supplied frame.
func (alloc *BitmapAllocator) markFrame(poolIndex int, frame pmm.Frame, flag markAs) {
	if poolIndex < 0 || frame > alloc.pools[poolIndex].endFrame {
		return
	}

	pool := &alloc.pools[poolIndex]
	bit := uint(frame - pool.startFrame)
	switch flag {
	case markFree:
		if !pool.free.Test(bit) {
			pool.free.Set(bit)
			pool.freeCount++
			alloc.reservedPages--
		}
	case markReserved:
		if pool.free.Test(bit) {
			pool.free.Clear(bit)
			pool.freeCount--
			alloc.reservedPages++
		}
	}
}

// poolForFrame returns the index of the pool that contains frame or -1 if
// the frame is not contained in any of the available memory pools (e.g it
// points to a reserved memory region).
func (alloc *BitmapAllocator) poolForFrame(frame pmm.Frame) int {
	for poolIndex, pool := range alloc.pools {
		if frame >= pool.startFrame && frame <= pool.endFrame {
			return poolIndex
		}
	}
	return -1
}

// AllocFrame returns the next available frame, preferring pools with free
// capacity left, and marks it reserved.
func (alloc *BitmapAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	for poolIndex := range alloc.pools {
		pool := &alloc.pools[poolIndex]
		if pool.freeCount == 0 {
			continue
		}
		bit, ok := pool.free.NextSet(0)
		if !ok {
			continue
		}
		frame := pool.startFrame + pmm.Frame(bit)
		alloc.markFrame(poolIndex, frame, markReserved)
		return frame, nil
	}
	return pmm.InvalidFrame, errBootAllocOutOfMemory
}

// FreeFrame returns frame to its pool's free set.
func (alloc *BitmapAllocator) FreeFrame(frame pmm.Frame) {
	alloc.markFrame(alloc.poolForFrame(frame), frame, markFree)
}

// reserveKernelFrames makes as reserved the bitmap entries for the frames
// occupied by the kernel image.
func (alloc *BitmapAllocator) reserveKernelFrames() {
	// Flag frames used by kernel image as reserved. Since the kernel must
	// occupy a contiguous memory block we assume that all its frames will
	// fall into one of the available memory pools
	poolIndex := alloc.poolForFrame(earlyAllocator.kernelStartFrame)
	for frame := earlyAllocator.kernelStartFrame; frame <= earlyAllocator.kernelEndFrame; frame++ {
		alloc.markFrame(poolIndex, frame, markReserved)
	}
}

// reserveEarlyAllocatorFrames makes as reserved the bitmap entries for the
// frames already allocated by the early allocator.
func (alloc *BitmapAllocator) reserveEarlyAllocatorFrames() {
	// We now need to decommission the early allocator by flagging all
	// frames allocated by it as reserved. The allocator itself does not
	// track individual frames but only a counter of allocated frames. To
	// get the list of frames we reset its internal state and "replay"
	// the allocation requests to get the correct frames.
	allocCount := earlyAllocator.allocCount
	earlyAllocator.allocCount, earlyAllocator.lastAllocFrame = 0, 0
	for i := uint64(0); i < allocCount; i++ {
		frame, _ := earlyAllocator.AllocFrame()
		alloc.markFrame(
			alloc.poolForFrame(frame),
			frame,
			markReserved,
		)
	}
}

func (alloc *BitmapAllocator) printStats() {
	early.Printf(
		"[bitmap_alloc] page stats: free: %d/%d (%d reserved)\n",
		alloc.totalPages-alloc.reservedPages,
		alloc.totalPages,
		alloc.reservedPages,
	)
}

// earlyAllocFrame is a helper that delegates a frame allocation request to the
// early allocator instance. This function is passed as an argument to
// vmm.SetFrameAllocator instead of earlyAllocator.AllocFrame. The latter
// confuses the compiler's escape analysis into thinking that
// earlyAllocator.Frame escapes to heap.
func earlyAllocFrame() (pmm.Frame, *kernel.Error) {
	return earlyAllocator.AllocFrame()
}

// Init sets up the kernel physical memory allocation sub-system.
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	earlyAllocator.init(kernelStart, kernelEnd)
	earlyAllocator.printMemoryMap()

	vmm.SetFrameAllocator(earlyAllocFrame)
	return FrameAllocator.init()
}
