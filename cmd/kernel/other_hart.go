package main

import "noaxiom/kernel/kmain"

// otherHartID is the register value the early assembly at
// _entry_other_hart would load before calling OtherHartMain, the same
// prevent-the-call-from-being-optimized-away device main() uses for
// hartID/dtbPhys above.
var otherHartID uint32

// OtherHartMain is the entry point _entry_other_hart jumps to on every
// hart other than the boot hart (spec.md §6). It is a distinct exported
// symbol rather than a second call to main() because the two entry points
// run a different one-time-vs-per-hart initialization sequence
// (kmain.Kmain vs kmain.KmainOtherHart).
func OtherHartMain() {
	kmain.KmainOtherHart(otherHartID)
}
