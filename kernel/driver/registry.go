package driver

import "noaxiom/kernel"

// ProbeFn attempts to bind a driver to a device-tree node identified by its
// compatible string. It returns a Driver on success, or ok=false if the
// node does not match what this probe handles. Mirrors the teacher's
// gopheros/device.ProbeFn, generalized from gopher-os's PCI/ISA bus probing
// to the compatible-string enumeration spec.md §6 describes ("consumers
// enumerate nodes by compatible to find PLIC, virtio-mmio, PCI-ECAM").
type ProbeFn func(compatible string, regBase uintptr) (drv Driver, ok bool)

var probes []ProbeFn

// Register adds fn to the set ProbeAll tries for every device-tree
// node. Concrete driver packages call this from their own init(), the same
// registration-by-side-effect idiom the teacher's console/tty packages use
// for console.ProbeFuncs.
func Register(fn ProbeFn) {
	probes = append(probes, fn)
}

// ProbeAll runs every registered probe against (compatible, regBase) in
// registration order and returns the first match.
func ProbeAll(compatible string, regBase uintptr) (Driver, *kernel.Error) {
	for _, p := range probes {
		if drv, ok := p(compatible, regBase); ok {
			if err := drv.DriverInit(); err != nil {
				return nil, err
			}
			return drv, nil
		}
	}
	return nil, nil
}
