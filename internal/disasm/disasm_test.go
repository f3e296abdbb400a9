package disasm

import "testing"

func TestDecodeMovImmediate(t *testing.T) {
	d := Decode(0012700, 5) // MOV #5,R0
	if d.Mnemonic != "MOV" || d.Operands != "#000005, R0" || d.Words != 2 {
		t.Errorf("got %+v", d)
	}
}

func TestDecodeRegisterFormsAreOneWord(t *testing.T) {
	d := Decode(0010001, 0) // MOV R0,R1
	if d.Mnemonic != "MOV" || d.Operands != "R0, R1" || d.Words != 1 {
		t.Errorf("got %+v", d)
	}
}

func TestDecodeConditionCodeOps(t *testing.T) {
	cases := map[uint16]string{
		0000240: "NOP",
		0000241: "CLC",
		0000261: "SEC",
		0000257: "CCC",
		0000277: "SCC",
	}
	for word, want := range cases {
		if got := Decode(word, 0).Mnemonic; got != want {
			t.Errorf("Decode(%#o) = %q, want %q", word, got, want)
		}
	}
}

func TestDecodeByteForm(t *testing.T) {
	d := Decode(0112700, 1) // MOVB #1,R0
	if d.Mnemonic != "MOVB" {
		t.Errorf("mnemonic = %q, want MOVB", d.Mnemonic)
	}
}

func TestDecodeBranch(t *testing.T) {
	d := Decode(0001402, 0) // BEQ +2 words
	if d.Mnemonic != "BEQ" || d.Operands != ".+4" {
		t.Errorf("got %+v", d)
	}
}

func TestDecodeSingleOperand(t *testing.T) {
	d := Decode(0005000, 0) // CLR R0
	if d.Mnemonic != "CLR" || d.Operands != "R0" {
		t.Errorf("got %+v", d)
	}
}

func TestDecodeJsr(t *testing.T) {
	d := Decode(0004767, 0074) // JSR PC,relative
	if d.Mnemonic != "JSR" {
		t.Errorf("mnemonic = %q, want JSR", d.Mnemonic)
	}
}

func TestDecodeReserved(t *testing.T) {
	d := Decode(0000007, 0)
	if d.Mnemonic != "???000007" {
		t.Errorf("got %+v, want the unknown-opcode fallback", d)
	}
}

func TestDecodeHaltWaitRti(t *testing.T) {
	cases := map[uint16]string{
		0000000: "HALT",
		0000001: "WAIT",
		0000002: "RTI",
		0000006: "RTT",
	}
	for word, want := range cases {
		if got := Decode(word, 0).Mnemonic; got != want {
			t.Errorf("Decode(%#o) = %q, want %q", word, got, want)
		}
	}
}
