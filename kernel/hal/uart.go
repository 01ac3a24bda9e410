package hal

import "unsafe"

// ns16550a registers, byte offsets from the device's base MMIO address;
// the subset this driver touches (grounded on
// original_source/NoAxiom/kernel/src/driver/uart's uart8250 family).
const (
	regTHR = 0 // transmit holding register (write)
	regLSR = 5 // line status register (read)

	lsrTxIdle = 1 << 5
)

// ns16550a is a polling MMIO driver for the 8250-derived UART QEMU's
// riscv64/loong64 virt machines expose. It never blocks indefinitely: a
// full transmit FIFO is waited out with a bounded spin, matching the
// original's wait_for! timeout macro rather than looping forever on dead
// hardware.
type ns16550a struct {
	base uintptr
}

func newNS16550A(base uintptr) *ns16550a {
	return &ns16550a{base: base}
}

func (u *ns16550a) reg(offset uintptr) *byte {
	return (*byte)(unsafe.Pointer(u.base + offset))
}

func (u *ns16550a) WriteByte(b byte) {
	if b == '\n' {
		u.putByte('\r')
	}
	u.putByte(b)
}

func (u *ns16550a) putByte(b byte) {
	const maxSpin = 10_000_000
	for spin := 0; spin < maxSpin && *u.reg(regLSR)&lsrTxIdle == 0; spin++ {
	}
	*u.reg(regTHR) = b
}

func (u *ns16550a) Write(p []byte) (int, error) {
	for _, b := range p {
		u.WriteByte(b)
	}
	return len(p), nil
}
