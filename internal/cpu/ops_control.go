package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

func match(word, mask, value uint16) bool { return word&mask == value }

// restGroup resolves every instruction not caught by the general
// double-operand or EIS dispatch in decode.go: both branch families,
// JMP/JSR/RTS/SWAB/MARK/SPL, the condition-code set/clear group,
// HALT/WAIT/RTI/BPT/IOT/RESET/RTT, EMT/TRAP, the single-operand
// CLR..SXT/MFPI/MFPD/MTPI/MTPD family in both word and byte form, and
// the reserved-instruction fallback.
func (c *CPU) restGroup(word uint16) *mmu.Fault {
	switch word {
	case 0o000000:
		c.execHALT()
		return nil
	case 0o000001:
		c.enterWait()
		return nil
	case 0o000002:
		return c.execRTI()
	case 0o000003:
		c.trap(vecBPT, -1)
		return nil
	case 0o000004:
		c.trap(vecIOT, -1)
		return nil
	case 0o000005:
		c.execReset()
		return nil
	case 0o000006:
		return c.execRTT()
	case 0o000007:
		c.trap(vecIllegal, -1)
		return nil
	}

	switch {
	case match(word, 0o177770, 0o000200):
		return c.execRTS(word)
	case match(word, 0o177770, 0o000230):
		c.execSPL(word)
		return nil
	case word >= 0o000240 && word <= 0o000277:
		c.execCCSet(word)
		return nil
	case match(word, 0o177400, 0o000400):
		c.branch(word, c.condBR())
		return nil
	case match(word, 0o177400, 0o001000):
		c.branch(word, c.condBNE())
		return nil
	case match(word, 0o177400, 0o001400):
		c.branch(word, c.condBEQ())
		return nil
	case match(word, 0o177400, 0o002000):
		c.branch(word, c.condBGE())
		return nil
	case match(word, 0o177400, 0o002400):
		c.branch(word, c.condBLT())
		return nil
	case match(word, 0o177400, 0o003000):
		c.branch(word, c.condBGT())
		return nil
	case match(word, 0o177400, 0o003400):
		c.branch(word, c.condBLE())
		return nil
	case match(word, 0o177400, 0o100000):
		c.branch(word, c.condBPL())
		return nil
	case match(word, 0o177400, 0o100400):
		c.branch(word, c.condBMI())
		return nil
	case match(word, 0o177400, 0o101000):
		c.branch(word, c.condBHI())
		return nil
	case match(word, 0o177400, 0o101400):
		c.branch(word, c.condBLOS())
		return nil
	case match(word, 0o177400, 0o102000):
		c.branch(word, c.condBVC())
		return nil
	case match(word, 0o177400, 0o102400):
		c.branch(word, c.condBVS())
		return nil
	case match(word, 0o177400, 0o103000):
		c.branch(word, c.condBCC())
		return nil
	case match(word, 0o177400, 0o103400):
		c.branch(word, c.condBCS())
		return nil
	case match(word, 0o177400, 0o104000):
		c.trap(vecEMT, -1)
		return nil
	case match(word, 0o177400, 0o104400):
		c.trap(vecTrap, -1)
		return nil
	case match(word, 0o177700, 0o000100):
		return c.jmp(word)
	case match(word, 0o177700, 0o000300):
		return c.swab(word)
	case match(word, 0o177000, 0o004000):
		return c.execJSR(word)
	case match(word, 0o177700, 0o006400):
		return c.execMARK(word)
	}

	return c.singleOperandDispatch(word)
}

// singleOperandDispatch handles CLR..SXT and the cross-space move
// family (MFPI/MFPD/MTPI/MTPD), word and byte forms.
func (c *CPU) singleOperandDispatch(word uint16) *mmu.Fault {
	byteMode := word&0o100000 != 0
	sz := Word
	if byteMode {
		sz = Byte
	}
	sel := word & 0o077700

	switch sel {
	case 0o005000:
		return c.singleOperand(opCLR, word, sz)
	case 0o005100:
		return c.singleOperand(opCOM, word, sz)
	case 0o005200:
		return c.singleOperand(opINC, word, sz)
	case 0o005300:
		return c.singleOperand(opDEC, word, sz)
	case 0o005400:
		return c.singleOperand(opNEG, word, sz)
	case 0o005500:
		return c.singleOperand(opADC, word, sz)
	case 0o005600:
		return c.singleOperand(opSBC, word, sz)
	case 0o005700:
		return c.singleOperand(opTST, word, sz)
	case 0o006000:
		return c.singleOperand(opROR, word, sz)
	case 0o006100:
		return c.singleOperand(opROL, word, sz)
	case 0o006200:
		return c.singleOperand(opASR, word, sz)
	case 0o006300:
		return c.singleOperand(opASL, word, sz)
	case 0o006500:
		if byteMode {
			return c.mfpi(word, mmu.DSpace)
		}
		return c.mfpi(word, mmu.ISpace)
	case 0o006600:
		if byteMode {
			return c.mtpi(word, mmu.DSpace)
		}
		return c.mtpi(word, mmu.ISpace)
	case 0o006700:
		if byteMode {
			// MFPS on an 11/70: reserved (preserve real hardware's
			// trap behavior rather than implementing it).
			c.trap(vecIllegal, -1)
			return nil
		}
		return c.sxt(word)
	}

	c.trap(vecIllegal, -1)
	return nil
}

func (c *CPU) execHALT() {
	if c.curMode() != mmu.Kernel {
		c.trap(vecIllegal, -1)
		return
	}
	c.stop = StopHalt
}

func (c *CPU) execReset() {
	if c.curMode() != mmu.Kernel {
		return
	}
	c.mmuRef.Reset()
	c.bus.ResetDevices()
}

func (c *CPU) execRTI() *mmu.Fault {
	return c.returnFromTrap(false)
}

// execRTT is RTI's sibling: both pop PC then PSW, but RTT loads the
// PSW through the restricted form (old IPL preserved) and disables
// the T-bit single-step trap for the next instruction.
func (c *CPU) execRTT() *mmu.Fault {
	c.tSuppress = true
	return c.returnFromTrap(true)
}

func (c *CPU) returnFromTrap(limited bool) *mmu.Fault {
	newPC, flt := c.popWord()
	if flt != nil {
		return flt
	}
	newPSW, flt := c.popWord()
	if flt != nil {
		return flt
	}
	c.pc = newPC
	c.SetPSW(newPSW, limited)
	return nil
}

// execRTS loads PC from the link register, then pops the saved link.
// The PC load comes first so RTS PC ends with the popped return
// address, not the stale PC.
func (c *CPU) execRTS(word uint16) *mmu.Fault {
	reg := uint8(word & 7)
	c.pc = c.reg(reg)
	v, flt := c.popWord()
	if flt != nil {
		return flt
	}
	c.setReg(reg, v)
	return nil
}

func (c *CPU) execSPL(word uint16) {
	if c.curMode() != mmu.Kernel {
		return
	}
	c.setIPL(int(word & 7))
}

func (c *CPU) execCCSet(word uint16) {
	set := word&0o20 != 0
	mask := word & 0o17
	apply := func(bit uint16) {
		if set {
			c.psw |= bit
		} else {
			c.psw &^= bit
		}
	}
	if mask&1 != 0 {
		apply(pswC)
	}
	if mask&2 != 0 {
		apply(pswV)
	}
	if mask&4 != 0 {
		apply(pswZ)
	}
	if mask&8 != 0 {
		apply(pswN)
	}
}

func (c *CPU) execJSR(word uint16) *mmu.Fault {
	linkReg := uint8((word >> 6) & 7)
	mode := uint8((word >> 3) & 7)
	dstReg := uint8(word & 7)
	if mode == 0 {
		c.trap(vecIllegal, -1)
		return nil
	}
	op, flt := c.resolveOperand(mode, dstReg, Word)
	if flt != nil {
		return flt
	}
	target := op.addr
	if flt := c.pushWord(c.reg(linkReg)); flt != nil {
		return flt
	}
	c.setReg(linkReg, c.pc)
	c.pc = target
	return nil
}

// execMARK implements the MARK NN return convention: discard NN
// parameter words from the stack, return through R5, then restore the
// caller's R5 from the newly exposed stack top.
func (c *CPU) execMARK(word uint16) *mmu.Fault {
	nn := word & 0o77
	c.setSP(c.pc + 2*nn)
	c.pc = c.reg(5)
	v, flt := c.popWord()
	if flt != nil {
		return flt
	}
	c.setReg(5, v)
	return nil
}
