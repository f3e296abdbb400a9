package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

type doubleOp int

const (
	opMOV doubleOp = iota
	opCMP
	opBIT
	opBIC
	opBIS
	opADD
	opSUB
)

// doubleOperand executes one of the general double-operand
// instructions: source mode/register in bits 11-6, destination
// mode/register in bits 5-0. Source is always read-only; destination
// is read-modify-write except for MOV (write only) and CMP/BIT (read
// only, flags only).
func (c *CPU) doubleOperand(op doubleOp, word uint16, sz WordSize) *mmu.Fault {
	srcMode := uint8((word >> 9) & 7)
	srcReg := uint8((word >> 6) & 7)
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)

	srcOp, flt := c.resolveOperand(srcMode, srcReg, sz)
	if flt != nil {
		return flt
	}
	src, flt := c.readOperand(srcOp, sz)
	if flt != nil {
		return flt
	}

	dstOp, flt := c.resolveOperand(dstMode, dstReg, sz)
	if flt != nil {
		return flt
	}

	switch op {
	case opMOV:
		if sz == Byte {
			c.setNZ8(uint8(src))
		} else {
			c.setNZ16(src)
		}
		c.setV(false)
		if sz == Byte && dstOp.isReg {
			// MOVB to a register sign-extends, unlike a byte memory write.
			v := uint16(int16(int8(src)))
			return c.writeOperand(dstOp, Word, v)
		}
		return c.writeOperand(dstOp, sz, src)

	case opCMP:
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := src - dst
		c.setCompareFlags(src, dst, result, sz)
		return nil

	case opBIT:
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := src & dst
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(false)
		return nil

	case opBIC:
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := dst &^ src
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(false)
		return c.writeOperand(dstOp, sz, result)

	case opBIS:
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := dst | src
		if sz == Byte {
			c.setNZ8(uint8(result))
		} else {
			c.setNZ16(result)
		}
		c.setV(false)
		return c.writeOperand(dstOp, sz, result)

	case opADD:
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := dst + src
		c.setAddFlags(src, dst, result)
		return c.writeOperand(dstOp, Word, result)

	default: // opSUB
		dst, flt := c.readOperand(dstOp, sz)
		if flt != nil {
			return flt
		}
		result := dst - src
		c.setSubFlags(src, dst, result)
		return c.writeOperand(dstOp, Word, result)
	}
}

// setCompareFlags implements CMP's flag rule: src-dst without storing
// the result, V from the minuend src's sign relation, and C set when
// the subtraction borrows (src < dst unsigned).
func (c *CPU) setCompareFlags(src, dst, result uint16, sz WordSize) {
	signBit := uint16(0x8000)
	if sz == Byte {
		signBit = 0x80
		result &= 0xff
		src &= 0xff
		dst &= 0xff
	}
	n := result&signBit != 0
	z := result == 0
	v := ((src^dst)&(^dst^result))&signBit != 0
	cy := src < dst
	c.setCC(n, z, v, cy)
}

func (c *CPU) setAddFlags(src, dst, result uint16) {
	n := result&0x8000 != 0
	z := result == 0
	v := (^(src^dst)&(src^result))&0x8000 != 0
	cy := uint32(src)+uint32(dst) > 0xffff
	c.setCC(n, z, v, cy)
}

func (c *CPU) setSubFlags(src, dst, result uint16) {
	n := result&0x8000 != 0
	z := result == 0
	v := ((src^dst)&(^src^result))&0x8000 != 0
	cy := dst < src
	c.setCC(n, z, v, cy)
}

// eisGroup dispatches MUL, DIV, ASH, ASHC, XOR and SOB: the "extended
// instruction set" opcodes that pair a 3-bit register field with a
// normal 6-bit destination operand (or, for SOB, a 6-bit backward
// branch offset).
func (c *CPU) eisGroup(word uint16) *mmu.Fault {
	sel := word & 0o7000
	reg := uint8((word >> 6) & 7)

	switch sel {
	case 0o0000: // MUL
		return c.execMUL(word, reg)
	case 0o1000: // DIV
		return c.execDIV(word, reg)
	case 0o2000: // ASH
		return c.execASH(word, reg)
	case 0o3000: // ASHC
		return c.execASHC(word, reg)
	case 0o4000: // XOR
		return c.execXOR(word, reg)
	case 0o7000: // SOB
		offset := word & 0o77
		c.setReg(reg, c.reg(reg)-1)
		if c.reg(reg) != 0 {
			c.pc -= 2 * offset
		}
		return nil
	default: // FIS/CSM slots: reserved on the 11/70
		c.trap(vecIllegal, -1)
		return nil
	}
}

func (c *CPU) execMUL(word uint16, reg uint8) *mmu.Fault {
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	op, flt := c.resolveOperand(dstMode, dstReg, Word)
	if flt != nil {
		return flt
	}
	src, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	result := int64(int16(c.reg(reg))) * int64(int16(src))
	c.setReg(reg, uint16(result>>16))
	c.setReg(reg|1, uint16(result))
	c.setCC(result < 0, result == 0, false, result < -(1<<15) || result > (1<<15)-1)
	return nil
}

func (c *CPU) execDIV(word uint16, reg uint8) *mmu.Fault {
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	op, flt := c.resolveOperand(dstMode, dstReg, Word)
	if flt != nil {
		return flt
	}
	divisor, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	dividend := int32(int16(c.reg(reg)))<<16 | int32(c.reg(reg|1))
	d := int32(int16(divisor))
	if d == 0 {
		c.setCC(false, true, true, true)
		return nil
	}
	quot := dividend / d
	rem := dividend % d
	c.setReg(reg, uint16(quot))
	c.setReg(reg|1, uint16(rem))
	if quot > 0x7fff || quot < -0x8000 {
		// Quotient out of range: V set, truncated result still stored.
		c.setCC(quot < 0, false, true, false)
		return nil
	}
	c.setCC(quot < 0, quot == 0, false, false)
	return nil
}

func (c *CPU) execASH(word uint16, reg uint8) *mmu.Fault {
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	op, flt := c.resolveOperand(dstMode, dstReg, Word)
	if flt != nil {
		return flt
	}
	shiftWord, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	shift := int8(int8(shiftWord&0x3f) << 2 >> 2) // sign-extend low 6 bits
	val := int16(c.reg(reg))
	var result int16
	var cy bool
	switch {
	case shift == 0:
		result = val
	case shift > 0:
		if shift >= 16 {
			// Every bit shifts out; C holds the last one to leave.
			cy = shift == 16 && val&1 != 0
			result = 0
			break
		}
		cy = (uint16(val)<<(uint(shift)-1))&0x8000 != 0
		result = val << uint(shift)
	default:
		n := -int(shift)
		if n > 16 {
			n = 16
		}
		cy = n > 0 && (val>>(uint(n)-1))&1 != 0
		result = val >> uint(n)
	}
	c.setReg(reg, uint16(result))
	v := (val >= 0) != (result >= 0)
	c.setCC(result < 0, result == 0, v, cy)
	return nil
}

func (c *CPU) execASHC(word uint16, reg uint8) *mmu.Fault {
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	op, flt := c.resolveOperand(dstMode, dstReg, Word)
	if flt != nil {
		return flt
	}
	shiftWord, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	shift := int8(int8(shiftWord&0x3f) << 2 >> 2)
	val := int64(int32(uint32(c.reg(reg))<<16 | uint32(c.reg(reg|1))))
	var result int64
	var cy bool
	switch {
	case shift == 0:
		result = val
	case shift > 0:
		if shift > 31 {
			shift = 31
		}
		cy = (val<<(uint(shift)-1))&(1<<31) != 0
		result = val << uint(shift)
	default:
		n := -int(shift)
		if n > 32 {
			n = 32
		}
		cy = n > 0 && (val>>(uint(n)-1))&1 != 0
		result = val >> uint(n)
	}
	r32 := uint32(result)
	c.setReg(reg, uint16(r32>>16))
	c.setReg(reg|1, uint16(r32))
	v := (val >= 0) != (result >= 0)
	c.setCC(int32(r32) < 0, r32 == 0, v, cy)
	return nil
}

func (c *CPU) execXOR(word uint16, reg uint8) *mmu.Fault {
	dstMode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	op, flt := c.resolveOperand(dstMode, dstReg, Word)
	if flt != nil {
		return flt
	}
	dst, flt := c.readOperand(op, Word)
	if flt != nil {
		return flt
	}
	result := c.reg(reg) ^ dst
	c.setNZ16(result)
	c.setV(false)
	return c.writeOperand(op, Word, result)
}
