package vmm

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/mem"
	"noaxiom/kernel/mem/pmm"
)

// flushTLBEntry flushes the TLB entry for a single virtual address on the
// current hart.
func flushTLBEntry(virtAddr uintptr) {
	arch.Current().FlushTLBEntry(virtAddr)
}

// switchPDT installs pdtPhysAddr as the active root page table and flushes
// the hart's TLB.
func switchPDT(pdtPhysAddr uintptr) {
	arch.Current().SetRootPPN(pmm.Frame(pdtPhysAddr >> mem.PageShift))
}

// activePDT returns the physical address of the currently active root page
// table.
func activePDT() uintptr {
	return arch.Current().RootPPN().Address()
}
