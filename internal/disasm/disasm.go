// Package disasm renders a PDP-11 instruction word (plus, for
// multi-word instructions, the following word) as assembler-style
// text for trace logs and breakpoint/diagnostic tooling.
//
// A static table maps opcode bit patterns to mnemonics, walked by a
// single Decode entry point, with octal (not hex) formatting to match
// how PDP-11 documentation and front panels render addresses.
package disasm

import "fmt"

// Decoded is one disassembled instruction: its mnemonic, operand text,
// and the word count consumed (1-3, since EIS/branch/displacement
// forms may consume an extra word that Decode cannot itself fetch).
type Decoded struct {
	Mnemonic string
	Operands string
	Words    int
}

// Decode renders word (the instruction) given the following word
// (used for index/immediate operand text when mode digits call for
// it; pass 0 if unavailable, Operands just won't resolve a symbolic
// displacement).
func Decode(word, next uint16) Decoded {
	top4 := (word >> 12) & 0xF

	if m, ok := doubleOperandMnemonic(top4); ok {
		src := operandText(uint8((word>>9)&7), uint8((word>>6)&7), next)
		dst := operandText(uint8((word>>3)&7), uint8(word&7), next)
		words := 1 + extraWords(uint8((word>>9)&7), uint8((word>>6)&7)) +
			extraWords(uint8((word>>3)&7), uint8(word&7))
		return Decoded{Mnemonic: m, Operands: src + ", " + dst, Words: words}
	}

	if top4 == 0o7 {
		return eisText(word, next)
	}

	return restText(word, next)
}

// extraWords reports how many instruction-stream words an operand with
// the given mode/register digits consumes beyond the opcode: index and
// index-deferred modes always take one, and the PC forms of
// autoincrement (immediate/absolute) do too.
func extraWords(mode, reg uint8) int {
	if mode >= 6 || ((mode == 2 || mode == 3) && reg == 7) {
		return 1
	}
	return 0
}

func doubleOperandMnemonic(top4 uint16) (string, bool) {
	names := map[uint16]string{
		1: "MOV", 2: "CMP", 3: "BIT", 4: "BIC", 5: "BIS",
		9: "MOVB", 10: "CMPB", 11: "BITB", 12: "BICB", 13: "BISB",
	}
	if n, ok := names[top4]; ok {
		return n, true
	}
	if top4 == 6 {
		return "ADD", true
	}
	if top4 == 0o16 {
		return "SUB", true
	}
	return "", false
}

func eisText(word, next uint16) Decoded {
	sel := word & 0o7000
	reg := (word >> 6) & 7
	dst := operandText(uint8((word>>3)&7), uint8(word&7), next)
	names := map[uint16]string{0: "MUL", 0o1000: "DIV", 0o2000: "ASH", 0o3000: "ASHC", 0o4000: "XOR"}
	if n, ok := names[sel]; ok {
		words := 1 + extraWords(uint8((word>>3)&7), uint8(word&7))
		return Decoded{Mnemonic: n, Operands: fmt.Sprintf("%s, R%d", dst, reg), Words: words}
	}
	if sel == 0o7000 {
		return Decoded{Mnemonic: "SOB", Operands: fmt.Sprintf("R%d, %03o", reg, word&0o77), Words: 1}
	}
	return Decoded{Mnemonic: "???", Words: 1}
}

var branchNames = []struct {
	mask, value uint16
	name        string
}{
	{0o177400, 0o000400, "BR"},
	{0o177400, 0o001000, "BNE"},
	{0o177400, 0o001400, "BEQ"},
	{0o177400, 0o002000, "BGE"},
	{0o177400, 0o002400, "BLT"},
	{0o177400, 0o003000, "BGT"},
	{0o177400, 0o003400, "BLE"},
	{0o177400, 0o100000, "BPL"},
	{0o177400, 0o100400, "BMI"},
	{0o177400, 0o101000, "BHI"},
	{0o177400, 0o101400, "BLOS"},
	{0o177400, 0o102000, "BVC"},
	{0o177400, 0o102400, "BVS"},
	{0o177400, 0o103000, "BCC"},
	{0o177400, 0o103400, "BCS"},
}

var singleOpNames = map[uint16]string{
	0o005000: "CLR", 0o005100: "COM", 0o005200: "INC", 0o005300: "DEC",
	0o005400: "NEG", 0o005500: "ADC", 0o005600: "SBC", 0o005700: "TST",
	0o006000: "ROR", 0o006100: "ROL", 0o006200: "ASR", 0o006300: "ASL",
	0o006500: "MFPI", 0o006600: "MTPI", 0o006700: "SXT",
}

func restText(word, next uint16) Decoded {
	switch word {
	case 0o000000:
		return Decoded{Mnemonic: "HALT", Words: 1}
	case 0o000001:
		return Decoded{Mnemonic: "WAIT", Words: 1}
	case 0o000002:
		return Decoded{Mnemonic: "RTI", Words: 1}
	case 0o000003:
		return Decoded{Mnemonic: "BPT", Words: 1}
	case 0o000004:
		return Decoded{Mnemonic: "IOT", Words: 1}
	case 0o000005:
		return Decoded{Mnemonic: "RESET", Words: 1}
	case 0o000006:
		return Decoded{Mnemonic: "RTT", Words: 1}
	}

	for _, b := range branchNames {
		if word&b.mask == b.value {
			disp := int8(word & 0xff)
			return Decoded{Mnemonic: b.name, Operands: fmt.Sprintf(".%+d", 2*int(disp)), Words: 1}
		}
	}

	switch {
	case word&0o177770 == 0o000200:
		return Decoded{Mnemonic: "RTS", Operands: fmt.Sprintf("R%d", word&7), Words: 1}
	case word&0o177770 == 0o000230:
		return Decoded{Mnemonic: "SPL", Operands: fmt.Sprintf("%o", word&7), Words: 1}
	case word >= 0o000240 && word <= 0o000277:
		return Decoded{Mnemonic: ccName(word), Words: 1}
	case word&0o177400 == 0o104000:
		return Decoded{Mnemonic: "EMT", Operands: fmt.Sprintf("%03o", word&0o377), Words: 1}
	case word&0o177400 == 0o104400:
		return Decoded{Mnemonic: "TRAP", Operands: fmt.Sprintf("%03o", word&0o377), Words: 1}
	case word&0o177700 == 0o000100:
		return Decoded{Mnemonic: "JMP", Operands: operandText(uint8((word>>3)&7), uint8(word&7), next), Words: 1 + extraWords(uint8((word>>3)&7), uint8(word&7))}
	case word&0o177700 == 0o000300:
		return Decoded{Mnemonic: "SWAB", Operands: operandText(uint8((word>>3)&7), uint8(word&7), next), Words: 1 + extraWords(uint8((word>>3)&7), uint8(word&7))}
	case word&0o177000 == 0o004000:
		return Decoded{Mnemonic: "JSR", Operands: fmt.Sprintf("R%d, %s", (word>>6)&7, operandText(uint8((word>>3)&7), uint8(word&7), next)), Words: 1 + extraWords(uint8((word>>3)&7), uint8(word&7))}
	case word&0o177700 == 0o006400:
		return Decoded{Mnemonic: "MARK", Operands: fmt.Sprintf("%o", word&0o77), Words: 1}
	}

	byteMode := word&0o100000 != 0
	sel := word & 0o077700
	if n, ok := singleOpNames[sel]; ok {
		if byteMode && sel != 0o006700 {
			n += "B"
		}
		if sel == 0o006500 && byteMode {
			n = "MFPD"
		}
		if sel == 0o006600 && byteMode {
			n = "MTPD"
		}
		return Decoded{Mnemonic: n, Operands: operandText(uint8((word>>3)&7), uint8(word&7), next), Words: 1 + extraWords(uint8((word>>3)&7), uint8(word&7))}
	}

	return Decoded{Mnemonic: fmt.Sprintf("???%06o", word), Words: 1}
}

func ccName(word uint16) string {
	set := word&0o20 != 0
	prefix := "CL"
	if set {
		prefix = "SE"
	}
	switch word & 0o17 {
	case 0:
		return "NOP"
	case 1:
		return prefix + "C"
	case 2:
		return prefix + "V"
	case 4:
		return prefix + "Z"
	case 8:
		return prefix + "N"
	case 0o17:
		if set {
			return "SCC"
		}
		return "CCC"
	default:
		// Multi-flag combination with no standard mnemonic.
		if set {
			return fmt.Sprintf("SCC %#o", word&0o17)
		}
		return fmt.Sprintf("CCC %#o", word&0o17)
	}
}

func operandText(mode, reg uint8, next uint16) string {
	r := fmt.Sprintf("R%d", reg)
	if reg == 6 {
		r = "SP"
	}
	if reg == 7 {
		r = "PC"
	}
	switch mode {
	case 0:
		return r
	case 1:
		return "(" + r + ")"
	case 2:
		if reg == 7 {
			return fmt.Sprintf("#%06o", next)
		}
		return "(" + r + ")+"
	case 3:
		if reg == 7 {
			return fmt.Sprintf("@#%06o", next)
		}
		return "@(" + r + ")+"
	case 4:
		return "-(" + r + ")"
	case 5:
		return "@-(" + r + ")"
	case 6:
		if reg == 7 {
			return fmt.Sprintf("%06o", next)
		}
		return fmt.Sprintf("%o(%s)", next, r)
	default:
		if reg == 7 {
			return fmt.Sprintf("@%06o", next)
		}
		return fmt.Sprintf("@%o(%s)", next, r)
	}
}
