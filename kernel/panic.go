package kernel

import (
	"noaxiom/kernel/arch"
	"noaxiom/kernel/kfmt/early"
)

var (
	// haltFn is mocked by tests and is automatically inlined by the compiler.
	haltFn = haltCurrentHart

	// hartIDFn is mocked by tests since arch.Current() is nil until the
	// boot hart calls arch.Init.
	hartIDFn = func() uint32 { return arch.Current().HartID() }

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// haltCurrentHart disables interrupts and parks the calling hart forever.
// There is no portable WFI/IDLE hook on arch.Arch, so this is a plain
// spin; real hardware still draws less power than it would servicing
// further traps because DisableInterrupts has already run.
func haltCurrentHart() {
	arch.Current().DisableInterrupts()
	for {
	}
}

// Panic outputs the supplied error (if not nil) to the console and halts the
// current hart. Calls to Panic never return. Panic also works as a
// redirection target for calls to panic() (resolved via runtime.gopanic)
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	early.Printf("\n-----------------------------------\n")
	early.Printf("[hart %d] ", hartIDFn())
	if err != nil {
		early.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	early.Printf("*** kernel panic: system halted ***")
	early.Printf("\n-----------------------------------\n")

	haltFn()
}
