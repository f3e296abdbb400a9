// Package bus implements the PDP-11/70 bus: translated physical-address
// routing between main memory, the register windows the CPU/MMU expose
// as I/O-page locations, and device handlers.
//
// Any I/O-page physical address is folded into a 16-bit window
// (0160000-0177777) before table lookup, so every device and CPU/MMU
// register decode can be written against the same literal octal
// addresses the processor handbook uses regardless of 18- vs 22-bit
// physical addressing.
package bus

import (
	"github.com/rcornwell/pdp1170/internal/cpu"
	"github.com/rcornwell/pdp1170/internal/device"
	"github.com/rcornwell/pdp1170/internal/memory"
	"github.com/rcornwell/pdp1170/internal/mmu"
)

const (
	ioWindowBase = 0160000 // normalized window start, inclusive
	ioWindowSize = 0020000 // 8 KiB

	ioBase18      uint32 = 0760000  // 18-bit physical: top 8 KiB reserved for I/O page
	ioBase22Addr  uint32 = 0x3FE000 // 22-bit physical: top 8 KiB reserved for I/O page
)

// deviceRange is one delegated [start,end) window of normalized I/O
// addresses mapped to a single device.Register.
type deviceRange struct {
	start, end uint32
	reg        device.Register
}

// Bus owns Memory, the MMU, a back-reference to the CPU for its
// register windows, and the device table keyed by I/O-page address.
// Nothing here is a package-level singleton.
type Bus struct {
	mem     *memory.Memory
	mmuRef  *mmu.MMU
	cpuRef  *cpu.CPU
	ranges  []deviceRange
	sysSize uint16
}

// New creates a Bus over mem/mmuRef, with cpuRef wired in for its
// register-window dispatch. Call cpuRef.AttachBus(busInstance)
// afterwards to complete the two-phase construction (see package
// cpu's AttachBus doc comment).
func New(mem *memory.Memory, mmuRef *mmu.MMU, cpuRef *cpu.CPU) *Bus {
	return &Bus{
		mem:     mem,
		mmuRef:  mmuRef,
		cpuRef:  cpuRef,
		sysSize: uint16(mem.Size() / memory.PageSize),
	}
}

// RegisterDevice delegates the normalized I/O-page address range
// [start, end) to reg. Ranges must not overlap; callers (package
// config/machine) are responsible for non-overlapping device maps.
func (b *Bus) RegisterDevice(start, end uint32, reg device.Register) {
	b.ranges = append(b.ranges, deviceRange{start: start, end: end, reg: reg})
}

// ioOffset reports whether phys (a translated physical byte address)
// falls in a top-of-space I/O page, and its offset within the page. The
// 22-bit window always routes to the I/O page (a disabled MMU relocates
// 0160000-0177777 there regardless of MMR3); the 18-bit window applies
// only while the MMU runs in 18-bit mode.
func (b *Bus) ioOffset(phys uint32) (uint32, bool) {
	if phys >= ioBase22Addr && phys < ioBase22Addr+ioWindowSize {
		return phys - ioBase22Addr, true
	}
	if !b.mmuRef.Is22Bit() && phys >= ioBase18 && phys < ioBase18+ioWindowSize {
		return phys - ioBase18, true
	}
	return 0, false
}

// isRegFile reports whether norm addresses the per-address CPU register
// file (0177700-0177717): unlike every other I/O-page location, each of
// these consecutive addresses is a full 16-bit register of its own, so
// odd addresses there are registers, not high bytes.
func isRegFile(norm uint32) bool {
	return norm >= regKernelR0 && norm <= regUserSP
}

func effectiveMode(c *cpu.CPU, sel cpu.ModeSel) mmu.Mode {
	if sel == cpu.PrevMode {
		return c.PrevMode()
	}
	return c.CurMode()
}

// Read implements cpu.BusAccess: translate virt through the MMU under
// the selected mode/space, then dispatch to RAM, a CPU/MMU register
// window, or a device. A non-aborting MMU trap (vector 0250) still
// performs the access; the fault is returned alongside the value so the
// CPU can take the trap after the reference completes.
func (b *Bus) Read(virt uint16, sz cpu.WordSize, modeSel cpu.ModeSel, peek bool, space mmu.Space) (uint16, *mmu.Fault) {
	mode := effectiveMode(b.cpuRef, modeSel)

	if sz == cpu.Word && virt&1 != 0 {
		b.mmuRef.NoteBusFault(mode, space, virt, false)
		return 0, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
	}

	kind := mmu.AccessRead
	if peek {
		kind = mmu.AccessPeek
	}
	phys, flt := b.mmuRef.Translate(mode, virt, kind, space)
	if flt != nil && flt.Kind == mmu.FaultAbort {
		return 0, flt
	}

	if off, isIO := b.ioOffset(phys); isIO {
		norm := ioWindowBase + off
		aligned, high := norm, false
		if norm&1 != 0 && !isRegFile(norm) {
			aligned, high = norm&^1, true
		}
		v, ok := b.readRegisterWindow(aligned)
		if !ok {
			v, ok = b.readDeviceTable(aligned)
		}
		if !ok {
			b.mmuRef.NoteBusFault(mode, space, virt, true)
			return 0, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
		}
		if sz == cpu.Byte {
			if high {
				v >>= 8
			}
			v &= 0xff
		}
		return v, flt
	}

	if !b.mem.InRange(phys) {
		b.mmuRef.NoteBusFault(mode, space, virt, true)
		return 0, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
	}
	if sz == cpu.Byte {
		return uint16(b.mem.ReadByte(phys)), flt
	}
	return b.mem.ReadWord(phys), flt
}

// Write implements cpu.BusAccess. isPSW tells the caller the write hit
// the PSW register window, so the caller's own flag-setting for the
// instruction that produced this store must be suppressed: when the
// destination is the PSW, the flag updates from the instruction itself
// are suppressed in favor of whatever value was just stored.
func (b *Bus) Write(virt uint16, sz cpu.WordSize, value uint16, modeSel cpu.ModeSel, space mmu.Space) (bool, *mmu.Fault) {
	mode := effectiveMode(b.cpuRef, modeSel)

	if sz == cpu.Word && virt&1 != 0 {
		b.mmuRef.NoteBusFault(mode, space, virt, false)
		return false, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
	}

	phys, flt := b.mmuRef.Translate(mode, virt, mmu.AccessWrite, space)
	if flt != nil && flt.Kind == mmu.FaultAbort {
		return false, flt
	}

	if off, isIO := b.ioOffset(phys); isIO {
		norm := ioWindowBase + off
		aligned, high := norm, false
		if norm&1 != 0 && !isRegFile(norm) {
			aligned, high = norm&^1, true
		}
		if sz == cpu.Byte {
			cur, ok := b.readRegisterWindow(aligned)
			if !ok {
				cur, ok = b.readDeviceTable(aligned)
			}
			if !ok {
				b.mmuRef.NoteBusFault(mode, space, virt, true)
				return false, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
			}
			if high {
				value = (cur & 0x00ff) | (value&0xff)<<8
			} else {
				value = (cur & 0xff00) | (value & 0xff)
			}
		}
		isPSW, ok := b.writeRegisterWindow(aligned, value)
		if !ok {
			ok = b.writeDeviceTable(aligned, value)
		}
		if !ok {
			b.mmuRef.NoteBusFault(mode, space, virt, true)
			return false, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
		}
		return isPSW, flt
	}

	if !b.mem.InRange(phys) {
		b.mmuRef.NoteBusFault(mode, space, virt, true)
		return false, &mmu.Fault{Kind: mmu.FaultAbort, Vector: 4}
	}
	if sz == cpu.Byte {
		b.mem.WriteByte(phys, uint8(value))
	} else {
		b.mem.WriteWord(phys, value)
	}
	return false, flt
}

func (b *Bus) readDeviceTable(norm uint32) (uint16, bool) {
	for _, r := range b.ranges {
		if norm >= r.start && norm < r.end {
			return r.reg.ReadWord(norm)
		}
	}
	return 0, false
}

func (b *Bus) writeDeviceTable(norm uint32, value uint16) bool {
	for _, r := range b.ranges {
		if norm >= r.start && norm < r.end {
			return r.reg.WriteWord(norm, value)
		}
	}
	return false
}

// ResetDevices implements the RESET instruction's device-reset pulse:
// every registered device reinitializes its register state, without
// touching the MMU or CPU.
func (b *Bus) ResetDevices() {
	for _, r := range b.ranges {
		r.reg.Reset()
	}
}

// Reset reinitializes MMU state and every registered device's register
// state, but not RAM or attached media.
func (b *Bus) Reset() {
	b.mmuRef.Reset()
	b.ResetDevices()
}
