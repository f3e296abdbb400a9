package cpu

import (
	"sync"

	"github.com/rcornwell/pdp1170/internal/mmu"
)

// CPU holds the PDP-11/70 processor state: two general register banks
// (PSW bit 11 selects between them), four stack pointers (kernel,
// super, illegal, user), the program counter, PSW, and the interrupt
// controller's pending-request sets.
//
// The CPU does not reach out to a package-level Bus singleton; instead
// it holds a BusAccess back-reference installed by whoever constructs
// the machine (see package machine), breaking what would otherwise be
// a CPU<->Bus import cycle.
type CPU struct {
	regs [2][6]uint16 // R0-R5, banked by PSW bit 11
	sp   [4]uint16    // stack pointers: kernel, super, (unused), user
	pc   uint16
	psw  uint16

	stackLimit uint16

	mmuRef *mmu.MMU
	bus    BusAccess

	debug int

	mu      sync.Mutex
	cond    *sync.Cond
	pending [8]map[uint8]bool // pending[level] = set of vectors
	waiting bool

	tSuppress bool // RTT defers the T-bit trace trap one instruction

	stop StopReason

	bp *breakpointTree
}

// New creates a CPU wired to mmuRef for MMR1/MMR2 bookkeeping. Call
// AttachBus once the owning Bus exists.
func New(mmuRef *mmu.MMU) *CPU {
	c := &CPU{mmuRef: mmuRef}
	for i := range c.pending {
		c.pending[i] = make(map[uint8]bool)
	}
	c.cond = sync.NewCond(&c.mu)
	c.Reset()
	return c
}

// AttachBus completes two-phase construction: the bus needs a *CPU to
// build its register-window dispatch, and the CPU needs the finished
// Bus to perform memory accesses, so whichever is built first holds a
// forward reference until the other exists.
func (c *CPU) AttachBus(bus BusAccess) {
	c.bus = bus
}

// SetDebug configures trace/trap/irq logging by option name.
func (c *CPU) SetDebug(names []string) {
	c.debug = 0
	for _, n := range names {
		c.debug |= debugOption[n]
	}
}

// Reset implements the CPU portion of a machine reset: PC=0, PSW=0
// (kernel mode, IPL 0), all registers and stack pointers zero, pending
// interrupts cleared. RAM and device state are not touched here.
func (c *CPU) Reset() {
	c.regs = [2][6]uint16{}
	c.sp = [4]uint16{}
	c.pc = 0
	c.psw = 0
	c.stackLimit = 0
	for i := range c.pending {
		c.pending[i] = make(map[uint8]bool)
	}
	c.waiting = false
	c.tSuppress = false
	c.stop = StopNone
}

// -- PSW / mode helpers --------------------------------------------------

func (c *CPU) curMode() mmu.Mode  { return mmu.Mode((c.psw & pswCurMask) >> pswCurShift) }
func (c *CPU) prevMode() mmu.Mode { return mmu.Mode((c.psw & pswPrevMask) >> pswPrevShift) }

// CurMode and PrevMode expose the CPU's current/previous mode fields
// for the bus's mode_sel dispatch.
func (c *CPU) CurMode() mmu.Mode  { return c.curMode() }
func (c *CPU) PrevMode() mmu.Mode { return c.prevMode() }

func (c *CPU) setCurMode(m mmu.Mode) {
	c.psw = (c.psw &^ pswCurMask) | (uint16(m) << pswCurShift)
}

func (c *CPU) setPrevMode(m mmu.Mode) {
	c.psw = (c.psw &^ pswPrevMask) | (uint16(m) << pswPrevShift)
}

func (c *CPU) pushModes(newMode mmu.Mode) {
	c.setPrevMode(c.curMode())
	c.setCurMode(newMode)
}

// IPL returns the current processor interrupt priority level, 0-7.
func (c *CPU) IPL() int { return int((c.psw & pswIPLMask) >> pswIPLShift) }

func (c *CPU) setIPL(level int) {
	c.psw = (c.psw &^ pswIPLMask) | (uint16(level&7) << pswIPLShift)
}

// PSW returns the full processor status word.
func (c *CPU) PSW() uint16 { return c.psw }

// SetPSW loads the PSW. limited=false keeps every
// settable field from v (mask 0174377: C,V,Z,N,T,IPL,reg-set,mode
// bits); limited=true additionally preserves the old IPL field
// (mask 0174037), the restricted form RTT uses. Register bank and active stack pointer are
// addressed live from c.psw on every register access, so no explicit
// bank-switch copy is needed here.
func (c *CPU) SetPSW(v uint16, limited bool) {
	if limited {
		c.psw = (v & pswRestrictedMask) | (c.psw &^ pswRestrictedMask)
	} else {
		c.psw = v & pswWritableMask
	}
}

// WritePSW applies a store to the PSW's I/O-page address (0177776).
// The T bit and the current/previous mode fields cannot be changed this
// way; everything else in the writable mask is taken from v.
func (c *CPU) WritePSW(v uint16) {
	keep := pswT | pswCurMask | pswPrevMask
	c.psw = (v & pswWritableMask &^ keep) | (c.psw & keep)
}

func (c *CPU) bank() int {
	if c.psw&pswRegSet != 0 {
		return 1
	}
	return 0
}

// PC returns the program counter (R7).
func (c *CPU) PC() uint16 { return c.pc }

// SetPC loads the program counter, for bootstrap and tests.
func (c *CPU) SetPC(v uint16) { c.pc = v }

// SP returns the active stack pointer, banked by current mode (bits
// 14-15 of the PSW), not by the register-set bit.
func (c *CPU) SP() uint16 { return c.sp[c.curMode()] }

func (c *CPU) setSP(v uint16) { c.sp[c.curMode()] = v }

// reg returns a pointer-free read of general register n (0-7); 6 is the
// active SP, 7 is PC. Register access is always through the live bank,
// matching how a real 11/70 decodes RN fields against the current PSW.
func (c *CPU) reg(n uint8) uint16 {
	switch n {
	case 6:
		return c.SP()
	case 7:
		return c.pc
	default:
		return c.regs[c.bank()][n]
	}
}

func (c *CPU) setReg(n uint8, v uint16) {
	switch n {
	case 6:
		c.setSP(v)
	case 7:
		c.pc = v
	default:
		c.regs[c.bank()][n] = v
	}
}

// Registers returns a snapshot of the live register bank R0-R7, for
// disassembly/trace and tests.
func (c *CPU) Registers() [8]uint16 {
	var out [8]uint16
	for i := uint8(0); i < 8; i++ {
		out[i] = c.reg(i)
	}
	return out
}

// StackPointer returns the stack pointer saved for mode m, for trace
// and tests.
func (c *CPU) StackPointer(m mmu.Mode) uint16 {
	return c.sp[m]
}

// SetStackPointer loads the stack pointer saved for mode m, for the
// bus's kernel/supervisor/user SP register windows.
func (c *CPU) SetStackPointer(m mmu.Mode, v uint16) {
	c.sp[m] = v
}

// BankRegister and SetBankRegister address R0-R5 by explicit register
// bank (0 or 1) rather than through the live PSW bit-11 selection, for
// the bus's "Kernel R0-R5"/"User R0-R5" register windows, which name a
// bank directly regardless of which is live.
func (c *CPU) BankRegister(bank int, n uint8) uint16 {
	return c.regs[bank][n]
}

func (c *CPU) SetBankRegister(bank int, n uint8, v uint16) {
	c.regs[bank][n] = v
}

// StackLimit returns the stack-limit register (high byte significant;
// low byte reads as 0 on real hardware, preserved here as written).
func (c *CPU) StackLimit() uint16 { return c.stackLimit }

// SetStackLimit loads the stack-limit register. A nonzero limit makes
// kernel-mode pushes below it fault to vector 4 (see pushWord); there
// is no yellow/red zone distinction.
func (c *CPU) SetStackLimit(v uint16) { c.stackLimit = v }

// -- condition codes ------------------------------------------------------

func (c *CPU) setCC(n, z, v, cy bool) {
	c.psw &^= pswN | pswZ | pswV | pswC
	if n {
		c.psw |= pswN
	}
	if z {
		c.psw |= pswZ
	}
	if v {
		c.psw |= pswV
	}
	if cy {
		c.psw |= pswC
	}
}

func (c *CPU) setNZ16(v uint16) {
	c.psw &^= pswN | pswZ
	if v&0x8000 != 0 {
		c.psw |= pswN
	}
	if v == 0 {
		c.psw |= pswZ
	}
}

func (c *CPU) setNZ8(v uint8) {
	c.psw &^= pswN | pswZ
	if v&0x80 != 0 {
		c.psw |= pswN
	}
	if v == 0 {
		c.psw |= pswZ
	}
}

func (c *CPU) flagC() bool { return c.psw&pswC != 0 }
func (c *CPU) flagV() bool { return c.psw&pswV != 0 }
func (c *CPU) flagZ() bool { return c.psw&pswZ != 0 }
func (c *CPU) flagN() bool { return c.psw&pswN != 0 }

func (c *CPU) setC(b bool) {
	if b {
		c.psw |= pswC
	} else {
		c.psw &^= pswC
	}
}

func (c *CPU) setV(b bool) {
	if b {
		c.psw |= pswV
	} else {
		c.psw &^= pswV
	}
}

// StopReason returns the last reason the run loop should halt, cleared
// by ClearStop.
func (c *CPU) StopReason() StopReason { return c.stop }

// ClearStop resets the stop condition, for the run loop after handling it.
func (c *CPU) ClearStop() { c.stop = StopNone }
