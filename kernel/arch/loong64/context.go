package loong64

import "noaxiom/kernel/arch"

const regCount = 32

// Register indices, per the LoongArch calling convention: r1=ra, r2=tp,
// r3=sp, r4..r11=a0..a7 (syscall args and number).
const (
	regRA = 1
	regTP = 2
	regSP = 3
	regA0 = 4
)

// TrapContext is the loong64 implementation of arch.TrapContext.
type TrapContext struct {
	regs [regCount]uint64
	crmd uint64
	era  uint64

	kernelSP uint64
	kernelRA uint64
}

var _ arch.TrapContext = (*TrapContext)(nil)

func (c *TrapContext) EPC() uintptr      { return uintptr(c.era) }
func (c *TrapContext) SetEPC(pc uintptr) { c.era = uint64(pc) }
func (c *TrapContext) SP() uintptr       { return uintptr(c.regs[regSP]) }
func (c *TrapContext) SetSP(sp uintptr)  { c.regs[regSP] = uint64(sp) }
func (c *TrapContext) RA() uintptr       { return uintptr(c.regs[regRA]) }
func (c *TrapContext) TP() uintptr       { return uintptr(c.regs[regTP]) }
func (c *TrapContext) SetTP(tp uintptr)  { c.regs[regTP] = uint64(tp) }

func (c *TrapContext) Arg(i int) uint64       { return c.regs[regA0+i] }
func (c *TrapContext) SetArg(i int, v uint64) { c.regs[regA0+i] = v }

// SyscallNo reads a7 (regs[11]), the LoongArch syscall-number register.
func (c *TrapContext) SyscallNo() uint64 { return c.regs[regA0+7] }

func (c *TrapContext) SetReturn(v int64) { c.regs[regA0] = uint64(v) }

func (c *TrapContext) Clone() arch.TrapContext {
	clone := *c
	return &clone
}

func newUserTrapContext(entry, userSP uintptr) *TrapContext {
	c := &TrapContext{
		era:  uint64(entry),
		crmd: readCRMD() &^ (uint64(3) << 3), // PLV = 0 (user) on eret
	}
	c.regs[regSP] = uint64(userSP)
	return c
}
