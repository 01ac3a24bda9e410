package hal

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

// Flattened device tree token/header constants, the decode-direction
// mirror of tinyrange-cc's internal/fdt encoder (internal/fdt/build.go).
const (
	fdtMagic       = 0xd00dfeed
	fdtHeaderSize  = 0x28
	beginNodeToken = 0x1
	endNodeToken   = 0x2
	propToken      = 0x3
	nopToken       = 0x4
	endToken       = 0x9
)

type fdtHeader struct {
	Magic          uint32
	TotalSize      uint32
	OffDtStruct    uint32
	OffDtStrings   uint32
	OffMemRsvmap   uint32
	Version        uint32
	LastCompVer    uint32
	BootCPUIDPhys  uint32
	SizeDtStrings  uint32
	SizeDtStruct   uint32
}

var errBadMagic = errors.New("hal: device tree blob has bad magic")

// parseFDT walks the device tree blob at addr looking for exactly the
// information boot needs: the /memory node's reg property, a uart node's
// reg property, and /cpus' timebase-frequency. It is a single linear scan,
// not a general-purpose FDT library, since boot has no allocator yet to
// build a node tree with.
func parseFDT(addr uintptr) (Info, error) {
	if addr == 0 {
		return Info{}, errBadMagic
	}

	blob := unsafe.Slice((*byte)(unsafe.Pointer(addr)), 1<<20)
	if binary.BigEndian.Uint32(blob[0:4]) != fdtMagic {
		return Info{}, errBadMagic
	}

	var hdr fdtHeader
	hdr.Magic = binary.BigEndian.Uint32(blob[0:4])
	hdr.TotalSize = binary.BigEndian.Uint32(blob[4:8])
	hdr.OffDtStruct = binary.BigEndian.Uint32(blob[8:12])
	hdr.OffDtStrings = binary.BigEndian.Uint32(blob[12:16])
	hdr.SizeDtStrings = binary.BigEndian.Uint32(blob[32:36])

	blob = blob[:hdr.TotalSize]
	strings := blob[hdr.OffDtStrings : hdr.OffDtStrings+hdr.SizeDtStrings]

	info := Info{}
	off := hdr.OffDtStruct
	var curNodeName string

	for off < hdr.TotalSize {
		token := binary.BigEndian.Uint32(blob[off : off+4])
		off += 4

		switch token {
		case beginNodeToken:
			name, adv := cStringAt(blob[off:])
			curNodeName = name
			off += uint32(adv)
			off = align4(off)
		case endNodeToken:
			curNodeName = ""
		case nopToken:
			// no-op
		case propToken:
			length := binary.BigEndian.Uint32(blob[off : off+4])
			nameOff := binary.BigEndian.Uint32(blob[off+4 : off+8])
			off += 8
			value := blob[off : off+length]
			propName, _ := cStringAt(strings[nameOff:])

			applyProperty(&info, curNodeName, propName, value)

			off += length
			off = align4(off)
		case endToken:
			return info, nil
		default:
			return info, nil
		}
	}
	return info, nil
}

func applyProperty(info *Info, nodeName, propName string, value []byte) {
	switch {
	case propName == "reg" && isMemoryNode(nodeName) && len(value) >= 16:
		info.Regions = append(info.Regions, MemRegion{
			Base: uintptr(binary.BigEndian.Uint64(value[0:8])),
			Size: uintptr(binary.BigEndian.Uint64(value[8:16])),
		})
	case propName == "reg" && isUARTNode(nodeName) && len(value) >= 8:
		info.UARTBase = uintptr(binary.BigEndian.Uint64(value[0:8]))
	case propName == "timebase-frequency" && len(value) >= 4:
		info.TimebaseFrequency = uint64(binary.BigEndian.Uint32(value[0:4]))
	}
}

func isMemoryNode(name string) bool {
	return len(name) >= 6 && name[:6] == "memory"
}

func isUARTNode(name string) bool {
	return hasPrefix(name, "uart") || hasPrefix(name, "serial") || hasPrefix(name, "ns16550")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func cStringAt(b []byte) (string, int) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), i + 1
		}
	}
	return string(b), len(b)
}

func align4(off uint32) uint32 {
	return (off + 3) &^ 3
}
