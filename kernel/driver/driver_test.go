package driver

import "testing"

// fakeBlockIOFuture resolves immediately, enough to exercise BlockDevice
// callers that poll to completion without a real executor involved.
type fakeBlockIOFuture struct {
	n   int
	err error
}

func (f *fakeBlockIOFuture) Poll() (int, error, bool) { return f.n, f.err, true }

type fakeBlockDevice struct {
	fakeDriver
	blocks       map[uint64][]byte
	cap          uint64
	busyNextRead bool
}

func (d *fakeBlockDevice) ReadBlock(id uint64, buf []byte) BlockIOFuture {
	if d.busyNextRead {
		d.busyNextRead = false
		return &fakeBlockIOFuture{err: ErrDeviceBusy}
	}
	n := copy(buf, d.blocks[id])
	return &fakeBlockIOFuture{n: n}
}
func (d *fakeBlockDevice) WriteBlock(id uint64, buf []byte) BlockIOFuture {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	d.blocks[id] = cp
	return &fakeBlockIOFuture{n: len(buf)}
}
func (d *fakeBlockDevice) SyncAll() BlockIOFuture  { return &fakeBlockIOFuture{} }
func (d *fakeBlockDevice) CapacityBlocks() uint64 { return d.cap }

func TestReadBlockSurfacesErrDeviceBusy(t *testing.T) {
	dev := &fakeBlockDevice{fakeDriver: fakeDriver{name: "ramdisk"}, blocks: map[uint64][]byte{}}
	var dev0 BlockDevice = dev
	dev.busyNextRead = true

	buf := make([]byte, BlockSize)
	_, err, ok := dev0.ReadBlock(0, buf).Poll()
	if !ok || err != ErrDeviceBusy {
		t.Fatalf("expected ReadBlock to surface ErrDeviceBusy; got err=%v ok=%v", err, ok)
	}
	if err.Error() != "driver: device busy, retry" {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
}

func TestBlockDeviceRoundTripsThroughReadWrite(t *testing.T) {
	dev := &fakeBlockDevice{
		fakeDriver: fakeDriver{name: "ramdisk"},
		blocks:     map[uint64][]byte{},
		cap:        16,
	}
	var dev0 BlockDevice = dev

	payload := make([]byte, BlockSize)
	copy(payload, "hello block")
	wf := dev0.WriteBlock(3, payload)
	if n, err, ok := wf.Poll(); !ok || err != nil || n != BlockSize {
		t.Fatalf("expected the write to complete with n=%d; got n=%d err=%v ok=%v", BlockSize, n, err, ok)
	}

	buf := make([]byte, BlockSize)
	rf := dev0.ReadBlock(3, buf)
	if n, err, ok := rf.Poll(); !ok || err != nil || n != BlockSize {
		t.Fatalf("expected the read to complete with n=%d; got n=%d err=%v ok=%v", BlockSize, n, err, ok)
	}
	if string(buf[:len("hello block")]) != "hello block" {
		t.Fatalf("expected the written bytes to round-trip; got %q", buf[:len("hello block")])
	}
	if dev0.CapacityBlocks() != 16 {
		t.Fatal("expected CapacityBlocks to report the configured capacity")
	}
}

type fakeCharDevice struct {
	fakeDriver
	out []byte
	in  []byte
}

func (d *fakeCharDevice) PutChar(b byte) { d.out = append(d.out, b) }
func (d *fakeCharDevice) GetChar() (byte, bool) {
	if len(d.in) == 0 {
		return 0, false
	}
	b := d.in[0]
	d.in = d.in[1:]
	return b, true
}

func TestCharDevicePutGetRoundTrip(t *testing.T) {
	var dev CharDevice = &fakeCharDevice{fakeDriver: fakeDriver{name: "uart"}, in: []byte("ab")}
	if b, ok := dev.GetChar(); !ok || b != 'a' {
		t.Fatalf("expected the first buffered byte 'a'; got %q ok=%v", b, ok)
	}
	dev.PutChar('x')
	fd := dev.(*fakeCharDevice)
	if string(fd.out) != "x" {
		t.Fatalf("expected PutChar to append to out; got %q", fd.out)
	}
}

type fakePLIC struct {
	fakeDriver
	claimed map[uint32]uint32
}

func (p *fakePLIC) Claim(hart uint32) uint32 { return p.claimed[hart] }
func (p *fakePLIC) Complete(hart uint32, irq uint32) {
	if p.claimed[hart] == irq {
		delete(p.claimed, hart)
	}
}
func (p *fakePLIC) Enable(hart, irq uint32)      {}
func (p *fakePLIC) Disable(hart, irq uint32)     {}
func (p *fakePLIC) SetPriority(irq, prio uint32) {}
func (p *fakePLIC) SetThreshold(hart, prio uint32) {}

func TestInterruptControllerClaimComplete(t *testing.T) {
	var ic InterruptController = &fakePLIC{fakeDriver: fakeDriver{name: "plic"}, claimed: map[uint32]uint32{2: 7}}
	if got := ic.Claim(2); got != 7 {
		t.Fatalf("expected Claim(2) to return irq 7; got %d", got)
	}
	ic.Complete(2, 7)
	if got := ic.Claim(2); got != 0 {
		t.Fatalf("expected Claim(2) to report no pending irq after Complete; got %d", got)
	}
}

type fakeRxToken struct{ frame []byte }

func (t *fakeRxToken) Consume(fn func([]byte) error) error { return fn(t.frame) }

type fakeTxToken struct{ sent *[]byte }

func (t *fakeTxToken) Consume(length int, fn func([]byte) error) error {
	buf := make([]byte, length)
	if err := fn(buf); err != nil {
		return err
	}
	*t.sent = buf
	return nil
}

type fakeNetDevice struct {
	fakeDriver
	pending []byte
	sent    []byte
	mtu     int
}

func (d *fakeNetDevice) Receive() (RxToken, TxToken, bool) {
	if d.pending == nil {
		return nil, nil, false
	}
	rx := &fakeRxToken{frame: d.pending}
	tx := &fakeTxToken{sent: &d.sent}
	d.pending = nil
	return rx, tx, true
}
func (d *fakeNetDevice) Transmit() (TxToken, bool) { return &fakeTxToken{sent: &d.sent}, true }
func (d *fakeNetDevice) MTU() int                  { return d.mtu }

func TestNetDeviceReceiveAndReplyThroughTokens(t *testing.T) {
	var nd NetDevice = &fakeNetDevice{fakeDriver: fakeDriver{name: "virtio-net"}, pending: []byte("frame"), mtu: 1500}

	rx, tx, ok := nd.Receive()
	if !ok {
		t.Fatal("expected a pending frame to be receivable")
	}
	var got []byte
	if err := rx.Consume(func(buf []byte) error {
		got = append(got, buf...)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error consuming rx token: %v", err)
	}
	if string(got) != "frame" {
		t.Fatalf("expected the consumed frame to be %q; got %q", "frame", got)
	}

	if err := tx.Consume(5, func(buf []byte) error {
		copy(buf, "reply")
		return nil
	}); err != nil {
		t.Fatalf("unexpected error consuming tx token: %v", err)
	}

	dev := nd.(*fakeNetDevice)
	if string(dev.sent) != "reply" {
		t.Fatalf("expected the transmitted bytes to be recorded; got %q", dev.sent)
	}
	if nd.MTU() != 1500 {
		t.Fatal("expected MTU to report the configured value")
	}
}
