package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

// operand is the resolved location of an instruction operand: either a
// general register (isReg true) or a virtual address computed by one of
// the 8 addressing modes, tagged with the address space the access uses
// (immediates live in the instruction stream, everything else in data
// space).
type operand struct {
	isReg bool
	reg   uint8
	addr  uint16
	space mmu.Space
}

// resolveOperand implements the 8 PDP-11 addressing modes for register
// field rn, mode field mode (0-7), operating in byte or word width.
// Auto-increment/decrement side effects are applied to the register
// immediately (SP/PC auto-inc/dec always steps by 2 regardless of byte
// mode) and logged to MMR1 via c.mmuRef.
//
// Mode 7 (deferred indexed) and 5 (deferred auto-decrement) perform an
// extra memory read to fetch the pointer; any fault during that read
// aborts resolution and is returned to the caller.
func (c *CPU) resolveOperand(mode, rn uint8, sz WordSize) (operand, *mmu.Fault) {
	step := int8(2)
	if sz == Byte && rn != 6 && rn != 7 {
		step = 1
	}

	// The pointer fetch for a deferred mode on R7 reads from the
	// instruction stream (I space); every other register's pointer
	// lives in data space.
	ptrSpace := mmu.DSpace
	if rn == 7 {
		ptrSpace = mmu.ISpace
	}

	switch mode {
	case 0: // register direct
		return operand{isReg: true, reg: rn}, nil

	case 1: // register deferred
		return operand{addr: c.reg(rn), space: mmu.DSpace}, nil

	case 2: // autoincrement
		addr := c.reg(rn)
		c.setReg(rn, addr+uint16(step))
		c.mmuRef.LogAutoMod(rn, step)
		// (PC)+ is an immediate: the operand itself sits in the
		// instruction stream, so the access goes through I space.
		return operand{addr: addr, space: ptrSpace}, nil

	case 3: // autoincrement deferred
		addr := c.reg(rn)
		c.setReg(rn, addr+2)
		c.mmuRef.LogAutoMod(rn, 2)
		ptr, flt := c.bus.Read(addr, Word, CurMode, false, ptrSpace)
		if flt != nil {
			return operand{}, flt
		}
		return operand{addr: ptr, space: mmu.DSpace}, nil

	case 4: // autodecrement
		addr := c.reg(rn) - uint16(step)
		c.setReg(rn, addr)
		c.mmuRef.LogAutoMod(rn, -step)
		return operand{addr: addr, space: mmu.DSpace}, nil

	case 5: // autodecrement deferred
		addr := c.reg(rn) - 2
		c.setReg(rn, addr)
		c.mmuRef.LogAutoMod(rn, -2)
		ptr, flt := c.bus.Read(addr, Word, CurMode, false, ptrSpace)
		if flt != nil {
			return operand{}, flt
		}
		return operand{addr: ptr, space: mmu.DSpace}, nil

	case 6: // index
		disp, flt := c.fetchWord()
		if flt != nil {
			return operand{}, flt
		}
		return operand{addr: c.reg(rn) + disp, space: mmu.DSpace}, nil

	default: // 7: index deferred
		disp, flt := c.fetchWord()
		if flt != nil {
			return operand{}, flt
		}
		ptr, flt := c.bus.Read(c.reg(rn)+disp, Word, CurMode, false, mmu.DSpace)
		if flt != nil {
			return operand{}, flt
		}
		return operand{addr: ptr, space: mmu.DSpace}, nil
	}
}

// readOperand fetches the value of an already-resolved operand.
func (c *CPU) readOperand(op operand, sz WordSize) (uint16, *mmu.Fault) {
	if op.isReg {
		v := c.reg(op.reg)
		if sz == Byte {
			v &= 0xff
		}
		return v, nil
	}
	return c.bus.Read(op.addr, sz, CurMode, false, op.space)
}

// writeOperand stores a value into an already-resolved operand. Byte
// writes to a register leave the high byte untouched (no sign
// extension), matching PDP-11 behavior for *B opcodes targeting
// register mode.
func (c *CPU) writeOperand(op operand, sz WordSize, v uint16) *mmu.Fault {
	if op.isReg {
		if sz == Byte {
			cur := c.reg(op.reg)
			c.setReg(op.reg, (cur &^ 0xff) | (v & 0xff))
		} else {
			c.setReg(op.reg, v)
		}
		return nil
	}
	_, flt := c.bus.Write(op.addr, sz, v, CurMode, op.space)
	return flt
}

// fetchWord reads the word at PC (I-space) and advances PC by 2. Used
// for opcode fetch and for immediate/index displacement words that
// follow an opcode.
func (c *CPU) fetchWord() (uint16, *mmu.Fault) {
	v, flt := c.bus.Read(c.pc, Word, CurMode, false, mmu.ISpace)
	if flt != nil {
		return 0, flt
	}
	c.pc += 2
	return v, nil
}
