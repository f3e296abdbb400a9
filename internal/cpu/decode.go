package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

// execute decodes and runs a single instruction word. It returns the
// fault (if any) that should route the CPU into trap handling; a nil
// return means the instruction completed (including instructions that
// themselves request a software trap, which they do by calling
// c.trap directly and returning nil).
//
// Decoding follows the real processor's own top-down field layout:
// general double-operand instructions are recognized by their top 4
// bits first, then the additional double-operand/EIS group, then the
// exact opcodes, branches and narrow-mask forms, with the
// single-operand family checked last.
func (c *CPU) execute(word uint16) *mmu.Fault {
	if c.bp != nil {
		// Evaluate with PC at the instruction's own address, as it was
		// before the opcode fetch advanced it.
		c.pc -= 2
		c.bp.onFetch(c, word)
		c.pc += 2
	}

	top4 := (word >> 12) & 0xF

	switch top4 {
	case 0o1:
		return c.doubleOperand(opMOV, word, Word)
	case 0o2:
		return c.doubleOperand(opCMP, word, Word)
	case 0o3:
		return c.doubleOperand(opBIT, word, Word)
	case 0o4:
		return c.doubleOperand(opBIC, word, Word)
	case 0o5:
		return c.doubleOperand(opBIS, word, Word)
	case 0o6:
		return c.doubleOperand(opADD, word, Word)
	case 0o11:
		return c.doubleOperand(opMOV, word, Byte)
	case 0o12:
		return c.doubleOperand(opCMP, word, Byte)
	case 0o13:
		return c.doubleOperand(opBIT, word, Byte)
	case 0o14:
		return c.doubleOperand(opBIC, word, Byte)
	case 0o15:
		return c.doubleOperand(opBIS, word, Byte)
	case 0o16:
		return c.doubleOperand(opSUB, word, Word)
	case 0o7:
		return c.eisGroup(word)
	}

	// Everything else (top4 0, 8, or 15) is resolved by exact
	// opcode-mask lookup in restGroup: single-operand CLR..SXT (word
	// top4=0, byte top4=8), both branch families, JMP/JSR/RTS/SWAB,
	// MARK/SPL/CCC/CCS, HALT/WAIT/RTI/BPT/IOT/RESET/RTT, EMT/TRAP.
	return c.restGroup(word)
}
