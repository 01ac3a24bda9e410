package riscv64

import (
	"testing"

	"noaxiom/kernel/arch"
)

func TestDecodeTrap(t *testing.T) {
	cases := []struct {
		name   string
		scause uint64
		stval  uint64
		want   arch.TrapKind
	}{
		{"syscall", causeUserEnvCall, 0, arch.TrapSyscall},
		{"breakpoint", causeBreakpoint, 0, arch.TrapBreakpoint},
		{"illegal", causeIllegalInstruction, 0, arch.TrapIllegalInstruction},
		{"load-fault", causeLoadPageFault, 0x1000, arch.TrapPageFaultLoad},
		{"store-fault", causeStorePageFault, 0x2000, arch.TrapPageFaultStore},
		{"fetch-fault", causeFetchPageFault, 0x3000, arch.TrapPageFaultFetch},
		{"timer", causeSupervisorTimer, 0, arch.TrapTimer},
		{"soft-ipi", causeSupervisorSoft, 0, arch.TrapSoftwareIPI},
		{"external", causeSupervisorExt, 7, arch.TrapExternal},
		{"unknown", 0xff, 0, arch.TrapUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeTrap(tc.scause, tc.stval)
			if got.Kind != tc.want {
				t.Fatalf("decodeTrap(%#x, %#x).Kind = %v; want %v", tc.scause, tc.stval, got.Kind, tc.want)
			}
		})
	}
}

func TestDecodeTrapCarriesFaultAddr(t *testing.T) {
	got := decodeTrap(causeLoadPageFault, 0xdead0000)
	if got.Addr != 0xdead0000 {
		t.Fatalf("Addr = %#x; want 0xdead0000", got.Addr)
	}
}

func TestDecodeTrapCarriesExtIRQ(t *testing.T) {
	got := decodeTrap(causeSupervisorExt, 42)
	if got.ExtIRQ != 42 {
		t.Fatalf("ExtIRQ = %d; want 42", got.ExtIRQ)
	}
}

func TestClearIPIReportsLastSentKind(t *testing.T) {
	pendingIPI[3] = arch.IPITLBShootdown
	if got := ClearIPI(3); got != arch.IPITLBShootdown {
		t.Fatalf("ClearIPI = %v; want IPITLBShootdown", got)
	}
}
