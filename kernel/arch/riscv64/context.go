package riscv64

import "noaxiom/kernel/arch"

// regCount is the number of general-purpose registers saved per trap,
// x0 (always zero) included for layout simplicity.
const regCount = 32

// Register indices into TrapContext.regs, following the standard RISC-V
// calling convention (original_source/NoAxiom/kernel/src/trap/context.rs).
const (
	regRA = 1
	regSP = 2
	regTP = 4
	regA0 = 10
)

// TrapContext is the riscv64 implementation of arch.TrapContext: the
// layout trapEntry (trap_riscv64.s) saves to and trapExit restores from.
type TrapContext struct {
	regs    [regCount]uint64
	sstatus uint64
	sepc    uint64
	// kernelSP/kernelRA let the trap trampoline return into the hart's Go
	// call stack (inside Arch.TrapRestore) instead of a fixed handler
	// address, so TrapRestore can be an ordinary blocking Go call.
	kernelSP uint64
	kernelRA uint64
}

var _ arch.TrapContext = (*TrapContext)(nil)

func (c *TrapContext) EPC() uintptr      { return uintptr(c.sepc) }
func (c *TrapContext) SetEPC(pc uintptr) { c.sepc = uint64(pc) }
func (c *TrapContext) SP() uintptr       { return uintptr(c.regs[regSP]) }
func (c *TrapContext) SetSP(sp uintptr)  { c.regs[regSP] = uint64(sp) }
func (c *TrapContext) RA() uintptr       { return uintptr(c.regs[regRA]) }
func (c *TrapContext) TP() uintptr       { return uintptr(c.regs[regTP]) }
func (c *TrapContext) SetTP(tp uintptr)  { c.regs[regTP] = uint64(tp) }

// Arg returns syscall argument i from a0..a5 (regs[10..16)).
func (c *TrapContext) Arg(i int) uint64 { return c.regs[regA0+i] }

func (c *TrapContext) SetArg(i int, v uint64) { c.regs[regA0+i] = v }

// SyscallNo reads a7 (regs[17]), the RISC-V Linux syscall-number register.
func (c *TrapContext) SyscallNo() uint64 { return c.regs[regA0+7] }

// SetReturn writes a syscall's result into a0, the same slot Arg(0) reads,
// matching the RISC-V Linux syscall ABI.
func (c *TrapContext) SetReturn(v int64) { c.regs[regA0] = uint64(v) }

func (c *TrapContext) Clone() arch.TrapContext {
	clone := *c
	return &clone
}

// newUserTrapContext builds a zeroed context for a task about to run for
// the first time: sepc at entry, sp at the top of its user stack, and
// sstatus.SPP cleared so sret drops to user mode (spec.md §4.A).
func newUserTrapContext(entry, userSP uintptr) *TrapContext {
	c := &TrapContext{
		sepc:    uint64(entry),
		sstatus: readSstatus() &^ sstatusSPP,
	}
	c.regs[regSP] = uint64(userSP)
	return c
}
