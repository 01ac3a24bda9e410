// Package ipi is the inter-hart notification layer (spec.md §4.H): a
// per-hart incoming-message slot for Resched/TlbShootdown, and the sleep
// manager the timer tick drains. Grounded on
// original_source/NoAxiom/kernel/src/trap/ipi.rs's IPI_MANAGER/send_ipi/
// ipi_handler shape, adapted from that file's per-signal IpiType enum to
// a payload struct since arch.IPIKind here only classifies the hardware
// interrupt, not what to do once it lands.
package ipi

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/kconfig"
	"noaxiom/kernel/sync"
	"noaxiom/kernel/task"
)

// Kind classifies what a received IPI asks the hart to do.
type Kind uint8

const (
	KindNone Kind = iota
	KindResched
	KindTLBShootdown
)

// Message is the payload a hart's incoming IPI slot holds until drained
// (original_source's IpiType::Resched{waker} / TlbShootdown).
type Message struct {
	Kind  Kind
	Waker task.Waker // set for KindResched
}

type inboxSlot struct {
	lock sync.SpinLock
	msg  Message
}

var inbox [kconfig.MaxHarts]inboxSlot

// Send writes msg into hart's incoming slot and fires the arch-level IPI.
// A second TlbShootdown arriving before the first is drained coalesces
// into the slot already there instead of queuing (spec.md §4.H "multiple
// coalesced TLB shootdowns collapse into a single flush-all"); a Resched
// waiting to be drained is never overwritten by a later TlbShootdown,
// since dropping a pending wakeup is observable but a redundant TLB flush
// is not.
func Send(hart uint32, msg Message) {
	slot := &inbox[hart]
	slot.lock.Acquire()
	if slot.msg.Kind == KindNone || msg.Kind == KindResched {
		slot.msg = msg
	}
	slot.lock.Release()

	var ak arch.IPIKind
	if msg.Kind == KindResched {
		ak = arch.IPIResched
	} else {
		ak = arch.IPITLBShootdown
	}
	arch.Current().SendIPI(hart, ak)
}

// SendResched asks hart to wake w (original_source's send_ipi(hart,
// Resched{waker})); used to resume a task parked on a different hart than
// the one currently calling Wake.
func SendResched(hart uint32, w task.Waker) {
	Send(hart, Message{Kind: KindResched, Waker: w})
}

// SendTLBShootdown asks hart to flush its entire TLB, used after unmapping
// a page that may be cached in a peer hart's TLB (spec.md §4.D "Cross-hart
// flushes are requested by sending a TLB-shootdown IPI to the harts whose
// task list intersects this MemorySet").
func SendTLBShootdown(hart uint32) {
	Send(hart, Message{Kind: KindTLBShootdown})
}

// Handle drains the calling hart's incoming slot and performs its effect
// (original_source's ipi_handler). Installed as kernel/trap's
// SoftwareIPIHandler hook by this package's init.
func Handle(hart uint32) {
	slot := &inbox[hart]
	slot.lock.Acquire()
	msg := slot.msg
	slot.msg = Message{}
	slot.lock.Release()

	switch msg.Kind {
	case KindResched:
		if msg.Waker != nil {
			msg.Waker.Wake()
		}
	case KindTLBShootdown:
		arch.Current().FlushTLBAll()
	}
}
