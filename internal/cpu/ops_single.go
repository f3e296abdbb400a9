package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

type singleOp int

const (
	opCLR singleOp = iota
	opCOM
	opINC
	opDEC
	opNEG
	opADC
	opSBC
	opTST
	opROR
	opROL
	opASR
	opASL
)

// singleOperand executes the CLR/COM/INC/DEC/NEG/ADC/SBC/TST/ROR/ROL/
// ASR/ASL family: one read-modify-write operand, no source.
func (c *CPU) singleOperand(op singleOp, word uint16, sz WordSize) *mmu.Fault {
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	operand, flt := c.resolveOperand(mode, reg, sz)
	if flt != nil {
		return flt
	}

	var v uint16
	if op != opCLR {
		v, flt = c.readOperand(operand, sz)
		if flt != nil {
			return flt
		}
	}

	signBit := uint16(0x8000)
	maxv := uint16(0xffff)
	if sz == Byte {
		signBit = 0x80
		maxv = 0xff
		v &= 0xff
	}

	var result uint16
	switch op {
	case opCLR:
		result = 0
		c.setCC(false, true, false, false)

	case opCOM:
		result = (^v) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(false)
		c.setC(true)

	case opINC:
		result = (v + 1) & maxv
		overflow := v == maxv>>1 // 0x7fff or 0x7f: max positive value
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(overflow)

	case opDEC:
		result = (v - 1) & maxv
		overflow := v == (signBit)
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(overflow)

	case opNEG:
		result = (-v) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(v == signBit)
		c.setC(v != 0)

	case opADC:
		cin := uint16(0)
		if c.flagC() {
			cin = 1
		}
		result = (v + cin) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(v == signBit-1 && cin == 1)
		c.setC(v == maxv && cin == 1)

	case opSBC:
		cin := uint16(0)
		if c.flagC() {
			cin = 1
		}
		result = (v - cin) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(v == signBit)
		c.setC(v == 0 && cin == 1)

	case opTST:
		result = v
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(false)
		c.setC(false)
		return nil

	case opROR:
		cin := uint16(0)
		if c.flagC() {
			cin = 1
		}
		cout := v&1 != 0
		result = (v >> 1) | (cin << (signBitPos(sz)))
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setC(cout)
		c.setV(c.flagN() != cout)

	case opROL:
		cin := uint16(0)
		if c.flagC() {
			cin = 1
		}
		cout := v&signBit != 0
		result = ((v << 1) | cin) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setC(cout)
		c.setV(c.flagN() != cout)

	case opASR:
		cout := v&1 != 0
		sign := v & signBit
		result = (v >> 1) | sign
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setC(cout)
		c.setV(c.flagN() != cout)

	default: // opASL
		cout := v&signBit != 0
		result = (v << 1) & maxv
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setC(cout)
		c.setV(c.flagN() != cout)
	}

	return c.writeOperand(operand, sz, result)
}

func signBitPos(sz WordSize) uint {
	if sz == Byte {
		return 7
	}
	return 15
}

// jmp loads PC from a computed (non-register) effective address;
// JMP to register mode is a reserved-instruction trap.
func (c *CPU) jmp(word uint16) *mmu.Fault {
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	if mode == 0 {
		c.trap(vecIllegal, -1)
		return nil
	}
	op, flt := c.resolveOperand(mode, reg, Word)
	if flt != nil {
		return flt
	}
	c.pc = op.addr
	return nil
}

func (c *CPU) swab(word uint16) *mmu.Fault {
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	op, flt := c.resolveOperand(mode, reg, Word)
	if flt != nil {
		return flt
	}
	v, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	result := (v << 8) | (v >> 8)
	c.setNZ8(uint8(result))
	c.setV(false)
	c.setC(false)
	return c.writeOperand(op, Word, result)
}

// mfpi/mfpd/mtpi/mtpd cross the current/previous-mode boundary: they
// access the stack or data space of the *previous* mode while
// executing in the current mode, used by the trap handler convention
// of saving/restoring a caller's stack across a mode change.
func (c *CPU) mfpi(word uint16, space mmu.Space) *mmu.Fault {
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	var v uint16
	var flt *mmu.Fault
	if mode == 0 {
		v = c.StackPointer(c.prevMode())
		if reg != 6 {
			v = c.reg(reg)
		}
	} else {
		op, f := c.resolveOperand(mode, reg, Word)
		if f != nil {
			return f
		}
		v, flt = c.bus.Read(op.addr, Word, PrevMode, false, space)
		if flt != nil {
			return flt
		}
	}
	c.setNZ16(v)
	c.setV(false)
	return c.pushWord(v)
}

func (c *CPU) mtpi(word uint16, space mmu.Space) *mmu.Fault {
	v, flt := c.popWord()
	if flt != nil {
		return flt
	}
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	if mode == 0 {
		if reg == 6 {
			c.sp[c.prevMode()] = v
		} else {
			c.setReg(reg, v)
		}
	} else {
		op, f := c.resolveOperand(mode, reg, Word)
		if f != nil {
			return f
		}
		if _, flt := c.bus.Write(op.addr, Word, v, PrevMode, space); flt != nil {
			return flt
		}
	}
	c.setNZ16(v)
	c.setV(false)
	return nil
}

func (c *CPU) sxt(word uint16) *mmu.Fault {
	mode := uint8((word >> 3) & 7)
	reg := uint8(word & 7)
	op, flt := c.resolveOperand(mode, reg, Word)
	if flt != nil {
		return flt
	}
	var v uint16
	if c.flagN() {
		v = 0xffff
	}
	c.setNZ16(v)
	return c.writeOperand(op, Word, v)
}
