package riscv64

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/pmm"
)

// func trapReturn(ctx *TrapContext) (scause uint64, stval uint64)
func trapReturn(ctx *TrapContext) (uint64, uint64)

// scause cause codes this kernel recognises; bit 63 set marks an
// interrupt rather than an exception.
const (
	causeInterruptBit    = uint64(1) << 63
	causeSupervisorTimer = causeInterruptBit | 5
	causeSupervisorExt   = causeInterruptBit | 9
	causeSupervisorSoft  = causeInterruptBit | 1

	causeUserEnvCall        = 8
	causeBreakpoint         = 3
	causeIllegalInstruction = 2
	causeLoadPageFault      = 13
	causeStorePageFault     = 15
	causeFetchPageFault     = 12
)

// Riscv64 implements arch.Arch for rv64gc/Sv39.
type Riscv64 struct {
	hartID uint32
}

var _ arch.Arch = (*Riscv64)(nil)

// New returns the arch.Arch implementation for the given hart.
func New(hartID uint32) *Riscv64 { return &Riscv64{hartID: hartID} }

func (a *Riscv64) HartID() uint32 { return a.hartID }

func (a *Riscv64) NewTrapContext(entry, userSP uintptr) arch.TrapContext {
	return newUserTrapContext(entry, userSP)
}

func (a *Riscv64) TrapRestore(ctx arch.TrapContext) arch.Trap {
	rv := ctx.(*TrapContext)
	scause, stval := trapReturn(rv)
	return decodeTrap(scause, stval)
}

func decodeTrap(scause, stval uint64) arch.Trap {
	switch scause {
	case causeUserEnvCall:
		return arch.Trap{Kind: arch.TrapSyscall}
	case causeBreakpoint:
		return arch.Trap{Kind: arch.TrapBreakpoint}
	case causeIllegalInstruction:
		return arch.Trap{Kind: arch.TrapIllegalInstruction}
	case causeLoadPageFault:
		return arch.Trap{Kind: arch.TrapPageFaultLoad, Addr: uintptr(stval)}
	case causeStorePageFault:
		return arch.Trap{Kind: arch.TrapPageFaultStore, Addr: uintptr(stval)}
	case causeFetchPageFault:
		return arch.Trap{Kind: arch.TrapPageFaultFetch, Addr: uintptr(stval)}
	case causeSupervisorTimer:
		return arch.Trap{Kind: arch.TrapTimer}
	case causeSupervisorSoft:
		return arch.Trap{Kind: arch.TrapSoftwareIPI}
	case causeSupervisorExt:
		return arch.Trap{Kind: arch.TrapExternal, ExtIRQ: uint32(stval)}
	default:
		return arch.Trap{Kind: arch.TrapUnknown}
	}
}

func (a *Riscv64) EnableInterrupts() bool {
	prev := readSstatus()&sstatusSIE != 0
	writeSstatus(readSstatus() | sstatusSIE)
	return prev
}

func (a *Riscv64) DisableInterrupts() bool {
	prev := readSstatus()&sstatusSIE != 0
	writeSstatus(readSstatus() &^ sstatusSIE)
	return prev
}

func (a *Riscv64) InterruptsEnabled() bool {
	return readSstatus()&sstatusSIE != 0
}

func (a *Riscv64) EnableUserMemoryAccess() func() {
	prev := readSstatus()
	writeSstatus(prev | sstatusSUM)
	return func() { writeSstatus(prev) }
}

func (a *Riscv64) FlushTLBEntry(va uintptr) { sfenceVMA(va) }
func (a *Riscv64) FlushTLBAll()              { sfenceVMA(0) }

func (a *Riscv64) SetRootPPN(ppn pmm.Frame) {
	writeSatp(satpModeSv39<<60 | uint64(ppn)&satpPPNMask)
}

func (a *Riscv64) RootPPN() pmm.Frame {
	return pmm.Frame(readSatp() & satpPPNMask)
}

func (a *Riscv64) SetTimer(absoluteTicks uint64) { setTimecmp(absoluteTicks) }
func (a *Riscv64) Now() uint64                   { return readTime() }

// TicksPerSecond is QEMU's virt-machine CLINT frequency. It always returns
// this fixed value; the timebase-frequency that kernel/hal records from the
// device tree is not consulted here.
func (a *Riscv64) TicksPerSecond() uint64 { return 10_000_000 }

func (a *Riscv64) SendIPI(hart uint32, kind arch.IPIKind) {
	pendingIPI[hart] = kind
	sendIPI(hart)
}

// pendingIPI records the most recent IPI kind sent to each hart so the
// software-interrupt handler can tell Resched from TLBShootdown; it is
// not a queue, matching spec.md §4.H's "IPIs coalesce" allowance.
var pendingIPI [maxHarts]arch.IPIKind

const maxHarts = 256

// ClearIPI acknowledges a software interrupt on the current hart and
// reports which kind was pending, clearing the supervisor software
// interrupt pending bit (sip.SSIP) via the matching CSR on real hardware;
// modeled here as a plain read since sip is read-only from S-mode and
// the SBI clears it on the ecall path that raised it.
func ClearIPI(hart uint32) arch.IPIKind {
	return pendingIPI[hart]
}

// PageTableLevels and VPNBitsPerLevel describe Sv39's 3-level, 9-bit-per-level
// layout; kernel/mem/vmm uses these to walk/allocate page tables.
const (
	PageTableLevels = 3
	VPNBitsPerLevel = 9
)
