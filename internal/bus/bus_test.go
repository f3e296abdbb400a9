package bus_test

import (
	"testing"

	"github.com/rcornwell/pdp1170/internal/bus"
	"github.com/rcornwell/pdp1170/internal/cpu"
	"github.com/rcornwell/pdp1170/internal/memory"
	"github.com/rcornwell/pdp1170/internal/mmu"
)

func newBus() (*bus.Bus, *cpu.CPU) {
	mem := memory.New(1)
	mmuRef := mmu.New()
	cpuRef := cpu.New(mmuRef)
	busRef := bus.New(mem, mmuRef, cpuRef)
	cpuRef.AttachBus(busRef)
	return busRef, cpuRef
}

func TestWordReadWriteRoundTrip(t *testing.T) {
	b, _ := newBus()
	if _, flt := b.Write(0100, cpu.Word, 0x1234, cpu.CurMode, mmu.DSpace); flt != nil {
		t.Fatalf("Write: %v", flt)
	}
	v, flt := b.Read(0100, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt != nil {
		t.Fatalf("Read: %v", flt)
	}
	if v != 0x1234 {
		t.Errorf("Read = %#x, want 0x1234", v)
	}
}

func TestOddAddressWordAccessFaults(t *testing.T) {
	b, _ := newBus()
	_, flt := b.Read(0101, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt == nil || flt.Vector != 4 {
		t.Fatalf("expected bus-error vector 4 for odd word address, got %+v", flt)
	}
}

func TestNonExistentMemoryFaults(t *testing.T) {
	b, _ := newBus()
	// memory.New(1) is one 8KiB page; well past the end is NXM.
	_, flt := b.Read(0100000, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt == nil || flt.Vector != 4 {
		t.Fatalf("expected NXM fault, got %+v", flt)
	}
}

func TestPswRegisterWindowRoundTrip(t *testing.T) {
	b, _ := newBus()
	isPSW, flt := b.Write(0177776, cpu.Word, 0000340, cpu.CurMode, mmu.DSpace)
	if flt != nil {
		t.Fatalf("Write PSW: %v", flt)
	}
	if !isPSW {
		t.Error("writing 0177776 should report isPSW=true")
	}
	v, flt := b.Read(0177776, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt != nil {
		t.Fatalf("Read PSW: %v", flt)
	}
	if v != 0000340 {
		t.Errorf("PSW readback = %#o, want 0000340", v)
	}
}

type fakeDevice struct {
	reg      uint16
	resetHit bool
}

func (d *fakeDevice) ReadWord(ioAddr uint32) (uint16, bool) { return d.reg, true }
func (d *fakeDevice) WriteWord(ioAddr uint32, value uint16) bool {
	d.reg = value
	return true
}
func (d *fakeDevice) Reset() { d.resetHit = true }

func TestRegisteredDeviceDispatch(t *testing.T) {
	b, _ := newBus()
	dev := &fakeDevice{}
	const devAddr = 0160000 // lowest address of the I/O page window
	b.RegisterDevice(devAddr, devAddr+2, dev)

	if _, flt := b.Write(uint16(devAddr), cpu.Word, 0xBEEF, cpu.CurMode, mmu.DSpace); flt != nil {
		t.Fatalf("Write to device: %v", flt)
	}
	if dev.reg != 0xBEEF {
		t.Errorf("device register = %#x, want 0xBEEF", dev.reg)
	}

	v, flt := b.Read(uint16(devAddr), cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt != nil {
		t.Fatalf("Read from device: %v", flt)
	}
	if v != 0xBEEF {
		t.Errorf("Read = %#x, want 0xBEEF", v)
	}

	b.Reset()
	if !dev.resetHit {
		t.Error("Bus.Reset should reset every registered device")
	}
}

func TestIOPageReachableThrough18BitTranslation(t *testing.T) {
	mem := memory.New(1)
	mmuRef := mmu.New()
	cpuRef := cpu.New(mmuRef)
	b := bus.New(mem, mmuRef, cpuRef)
	cpuRef.AttachBus(b)

	dev := &fakeDevice{reg: 0x55AA}
	b.RegisterDevice(0177546, 0177550, dev)

	// Map kernel page 7 at the top of the 18-bit space, where the I/O
	// page lives while MMR3 keeps the MMU in 18-bit mode.
	mmuRef.SetPAR(mmu.Kernel, mmu.ISpace, 7, 07600)
	mmuRef.SetPDR(mmu.Kernel, mmu.ISpace, 7, (0177<<8)|06)
	mmuRef.WriteRegister(0177572, 1)

	v, flt := b.Read(0177546, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt != nil {
		t.Fatalf("Read through 18-bit window: %v", flt)
	}
	if v != 0x55AA {
		t.Errorf("Read = %#x, want 0x55AA", v)
	}
}

func TestByteWriteMergesIntoDeviceRegisterHalf(t *testing.T) {
	b, _ := newBus()
	dev := &fakeDevice{reg: 0x1234}
	const devAddr = 0160100
	b.RegisterDevice(devAddr, devAddr+2, dev)

	if _, flt := b.Write(uint16(devAddr+1), cpu.Byte, 0xAB, cpu.CurMode, mmu.DSpace); flt != nil {
		t.Fatalf("byte write to high half: %v", flt)
	}
	if dev.reg != 0xAB34 {
		t.Errorf("device register = %#x, want 0xAB34", dev.reg)
	}

	v, flt := b.Read(uint16(devAddr+1), cpu.Byte, cpu.CurMode, false, mmu.DSpace)
	if flt != nil {
		t.Fatalf("byte read of high half: %v", flt)
	}
	if v != 0xAB {
		t.Errorf("byte read = %#x, want 0xAB", v)
	}
}

func TestUnmappedIOPageAddressFaults(t *testing.T) {
	b, _ := newBus()
	_, flt := b.Read(0162000, cpu.Word, cpu.CurMode, false, mmu.DSpace)
	if flt == nil || flt.Vector != 4 {
		t.Fatalf("expected abort for unmapped I/O page address, got %+v", flt)
	}
}
