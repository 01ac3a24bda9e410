// Package driver declares the capability contracts the core kernel consumes
// from device drivers without depending on any concrete one (spec.md §6
// "Device-driver interfaces consumed"). Concrete block/char/net/interrupt-
// controller drivers, the FAT/EXT4 on-disk formats, and PCI/MMIO probing are
// deliberately external collaborators per spec.md's Non-goals; this package
// only fixes the shape a concrete driver presents to the core (interrupts
// reach drivers through kernel/trap's ExternalInterruptHandler hook; no
// package in this module imports kernel/driver), mirroring the teacher's
// gopheros/device.Driver contract-without-implementation pattern.
package driver

import (
	"noaxiom/kernel"
	"noaxiom/kernel/errors"
)

// Driver is the identity every concrete device driver exposes, carried
// verbatim from the teacher's gopheros/device.Driver.
type Driver interface {
	DriverName() string
	DriverVersion() (major, minor, patch uint16)
	DriverInit() *kernel.Error
}

// ErrDeviceBusy is the sentinel a BlockIOFuture.Poll returns when the
// device needs retrying rather than the request having failed (spec.md §7
// "Recoverable kernel condition: ... block-device busy retried"). It uses
// the teacher's lightweight kernel/errors.KernelError rather than
// kernel.Error: a concrete driver outside the CORE module set is exactly
// the singleton-sentinel case that tier is for (spec.md §1.1 reserves
// kernel.Error for every CORE component's public API; drivers are external
// collaborators, not CORE).
var ErrDeviceBusy = errors.KernelError("driver: device busy, retry")

// BlockDevice is the async block-storage contract (spec.md §6): block size
// is fixed at BlockSize bytes; devices report their capacity in blocks.
type BlockDevice interface {
	Driver

	// ReadBlock reads block blockID into buf, which must be exactly
	// BlockSize long. The returned future resolves once the transfer
	// completes (or fails); this core never blocks a hart on device I/O.
	ReadBlock(blockID uint64, buf []byte) BlockIOFuture

	// WriteBlock writes buf (exactly BlockSize long) to block blockID.
	WriteBlock(blockID uint64, buf []byte) BlockIOFuture

	// SyncAll flushes any device-side write cache.
	SyncAll() BlockIOFuture

	// CapacityBlocks reports the device size in BlockSize units.
	CapacityBlocks() uint64
}

// BlockSize is the fixed block size spec.md §6 assigns to every block
// device this core talks to.
const BlockSize = 512

// BlockIOFuture is the poll contract a block-device operation resolves
// through, matching kernel/runtime.Future[int64]'s Poll shape so a
// BlockDevice implementation can be driven by the same executor that runs
// everything else without kernel/driver importing kernel/runtime (avoiding
// a dependency cycle, since a concrete driver package sits below
// kernel/runtime in link order but must still return something the
// scheduler can poll).
type BlockIOFuture interface {
	// Poll attempts to make progress. ok reports whether the operation
	// is done; n is the byte count transferred (0 for SyncAll) and err
	// is non-nil only once ok is true and the operation failed.
	Poll() (n int, err error, ok bool)
}

// CharDevice is the byte-oriented console/serial contract (spec.md §6).
type CharDevice interface {
	Driver

	// PutChar writes one byte, blocking the caller's forward progress
	// (not the hart) until the device accepts it.
	PutChar(b byte)

	// GetChar returns the next buffered byte, or ok=false if none is
	// available yet.
	GetChar() (b byte, ok bool)
}

// InterruptController is the PLIC/AIA-style contract spec.md §6 names.
type InterruptController interface {
	Driver

	// Claim returns the highest-priority pending IRQ for the calling
	// hart, or 0 if none is pending.
	Claim(hart uint32) (irq uint32)

	// Complete acknowledges irq, letting the controller raise it again.
	Complete(hart uint32, irq uint32)

	// Enable/Disable gate delivery of irq to hart.
	Enable(hart uint32, irq uint32)
	Disable(hart uint32, irq uint32)

	// SetPriority sets irq's priority level.
	SetPriority(irq uint32, prio uint32)

	// SetThreshold sets the minimum priority hart will take an
	// interrupt for.
	SetThreshold(hart uint32, prio uint32)
}

// RxToken and TxToken are the smoltcp-style per-packet handles spec.md §6
// describes: a token borrows the underlying receive/transmit buffer only
// for the duration of the callback, so a NetDevice never hands out a
// pointer the core could hold past the packet's lifetime.
type RxToken interface {
	// Consume hands buf (the received frame) to fn and returns fn's
	// result; buf is only valid for the duration of the call.
	Consume(fn func(buf []byte) error) error
}

type TxToken interface {
	// Consume lets fn write up to len bytes into a device-owned buffer,
	// then transmits it.
	Consume(length int, fn func(buf []byte) error) error
}

// NetDevice is the packet-token contract spec.md §6 names (smoltcp's
// Device trait, without the smoltcp SocketSet type itself: polling the
// socket stack is a user-space-adjacent concern out of this core's scope).
type NetDevice interface {
	Driver

	// Receive returns a ready (RxToken, TxToken) pair if a frame is
	// waiting, or ok=false otherwise. The TxToken lets a protocol stack
	// reply (e.g. an ARP response) without a second allocation.
	Receive() (rx RxToken, tx TxToken, ok bool)

	// Transmit returns a TxToken for sending a frame unprompted by a
	// received one, or ok=false if no transmit buffer is free.
	Transmit() (tx TxToken, ok bool)

	// MTU reports the device's maximum transmission unit in bytes.
	MTU() int
}
