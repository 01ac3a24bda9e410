package loong64

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem/pmm"
)

func trapReturn(ctx *TrapContext) (uint64, uint64)

// Ecode values from ESTAT[21:16], the subset this kernel recognises.
const (
	ecodeSyscall    = 0x0b
	ecodeBreakpoint = 0x0c
	ecodeIllegal    = 0x0d
	ecodeLoadFault  = 0x01
	ecodeStoreFault = 0x02
	ecodeFetchFault = 0x03
	ecodeTimer      = 0x40 | 11 // synthesized: interrupt bit | IS bit index
	ecodeSoftIPI    = 0x40 | 2
	ecodeExternal   = 0x40 | 3
)

// Loong64 implements arch.Arch for LA64.
type Loong64 struct {
	coreID uint32
}

var _ arch.Arch = (*Loong64)(nil)

func New(coreID uint32) *Loong64 { return &Loong64{coreID: coreID} }

func (a *Loong64) HartID() uint32 { return a.coreID }

func (a *Loong64) NewTrapContext(entry, userSP uintptr) arch.TrapContext {
	return newUserTrapContext(entry, userSP)
}

func (a *Loong64) TrapRestore(ctx arch.TrapContext) arch.Trap {
	la := ctx.(*TrapContext)
	ecode, badv := trapReturn(la)
	return decodeTrap(ecode, badv)
}

func decodeTrap(ecode, badv uint64) arch.Trap {
	switch ecode {
	case ecodeSyscall:
		return arch.Trap{Kind: arch.TrapSyscall}
	case ecodeBreakpoint:
		return arch.Trap{Kind: arch.TrapBreakpoint}
	case ecodeIllegal:
		return arch.Trap{Kind: arch.TrapIllegalInstruction}
	case ecodeLoadFault:
		return arch.Trap{Kind: arch.TrapPageFaultLoad, Addr: uintptr(badv)}
	case ecodeStoreFault:
		return arch.Trap{Kind: arch.TrapPageFaultStore, Addr: uintptr(badv)}
	case ecodeFetchFault:
		return arch.Trap{Kind: arch.TrapPageFaultFetch, Addr: uintptr(badv)}
	case ecodeTimer:
		return arch.Trap{Kind: arch.TrapTimer}
	case ecodeSoftIPI:
		return arch.Trap{Kind: arch.TrapSoftwareIPI}
	case ecodeExternal:
		return arch.Trap{Kind: arch.TrapExternal, ExtIRQ: uint32(badv)}
	default:
		return arch.Trap{Kind: arch.TrapUnknown}
	}
}

func (a *Loong64) EnableInterrupts() bool {
	prev := readCRMD()&crmdIE != 0
	writeCRMD(readCRMD() | crmdIE)
	return prev
}

func (a *Loong64) DisableInterrupts() bool {
	prev := readCRMD()&crmdIE != 0
	writeCRMD(readCRMD() &^ crmdIE)
	return prev
}

func (a *Loong64) InterruptsEnabled() bool { return readCRMD()&crmdIE != 0 }

// EnableUserMemoryAccess is a no-op on LoongArch: privilege-level checks
// on user pages are controlled by PLV in the page table entry, not by a
// separate supervisor-mode override bit (original_source's la64 arch
// notes this is "riscv specific").
func (a *Loong64) EnableUserMemoryAccess() func() { return func() {} }

func (a *Loong64) FlushTLBEntry(va uintptr) { invalidateTLB(va) }
func (a *Loong64) FlushTLBAll()              { invalidateTLB(0) }

func (a *Loong64) SetRootPPN(ppn pmm.Frame) {
	writePGDL(uint64(ppn.Address()))
	invalidateTLB(0)
}

func (a *Loong64) RootPPN() pmm.Frame {
	return pmm.Frame(uintptr(readPGDL()) >> 12)
}

func (a *Loong64) SetTimer(absoluteTicks uint64) {
	writeTCFG(absoluteTicks<<2 | tcfgEn | tcfgPer)
}

func (a *Loong64) Now() uint64 { return readStableCounter() }

// TicksPerSecond is the LoongArch stable-counter frequency reported by
// QEMU's loongson3-virt machine; real hardware reads this from the
// device tree instead.
func (a *Loong64) TicksPerSecond() uint64 { return 100_000_000 }

func (a *Loong64) SendIPI(hart uint32, kind arch.IPIKind) {
	pendingIPI[hart] = kind
	sendIPI(hart)
}

var pendingIPI [maxCores]arch.IPIKind

const maxCores = 256

func ClearIPI(core uint32) arch.IPIKind {
	clearTimerInterrupt()
	return pendingIPI[core]
}

// Page-table geometry: LA64 uses a 4-level walk with 9 bits per level
// below the top, matching the teacher's per-arch constants file pattern
// (kernel/mem/constants_amd64.go) now split across kernel/mem/constants_loong64.go
// (VAWidth/PAWidth) and this package (level count).
const PageTableLevels = 4
