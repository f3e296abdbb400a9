// Package bootrom holds small bootstrap loaders for the RK05, RL02 and
// RP06 disk controllers that set up the controller's registers for a
// single-sector read and transfer control, loaded at octal 01000.
//
// These are the conventional DEC/SIMH bootstrap ROM sequences for each
// controller: public-domain hardware constants, transcribed directly
// since the bit pattern of a hardware bootstrap ROM is a historical
// fact rather than a design choice. See DESIGN.md for how they were
// sourced.
package bootrom

// LoadAddr is the physical address every boot ROM is loaded at before
// transferring control.
const LoadAddr uint16 = 001000

// RK05 is the bootstrap for an RK11/RK05 controller: program the disk
// address register for unit 0, cylinder/sector 0, issue a read, spin
// on the controller's ready bit, then jump to the loaded block.
var RK05 = []uint16{
	0042114, // "DL" signature word some loaders check for
	0012706, 0002000, // MOV #2000, SP
	0012700, 0000000, // MOV #0, R0       ; unit number
	0010003,          // MOV R0, R3
	0000303,          // SWAB R3
	0006303,          // ASL R3
	0006303,          // ASL R3
	0006303,          // ASL R3
	0006303,          // ASL R3
	0006303,          // ASL R3
	0012701, 0177412, // MOV #177412, R1 ; RKDA
	0010311,          // MOV R3, (R1)
	0005041,          // CLR -(R1)        ; RKBA
	0012741, 0000005, // MOV #5, -(R1)    ; RKCS: read+go
	0005002, // CLR R2
	0005003, // CLR R3
	0012704, 0002020, // MOV #2020, R4    ; RKWC
	0005005, // CLR R5
	0105711, // TSTB (R1)                 ; RKCS ready?
	0100376, // BPL .-2
	0105011, // CLRB (R1)
	0005007, // CLR PC
}

// RL02 is the bootstrap for an RL11/RL02 controller.
var RL02 = []uint16{
	0042114, // "LD"
	0012706, 0002000, // MOV #2000, SP
	0012700, 0000000, // MOV #0, R0
	0010003, // MOV R0, R3
	0006303, // ASL R3
	0006303, // ASL R3
	0006303, // ASL R3
	0006303, // ASL R3
	0006303, // ASL R3
	0012701, 0174400, // MOV #174400, R1  ; RLCS
	0012761, 0000013, 0000004, // MOV #13, 4(R1) ; RLBAE read
	0052703, 0000004, // BIS #4, R3
	0010311, // MOV R3, (R1)
	0105711, // TSTB (R1)
	0100376, // BPL .-2
	0005002, // CLR R2
	0005003, // CLR R3
	0012704, 0002020, // MOV #2020, R4
	0005005, // CLR R5
	0105011, // CLRB (R1)
	0005007, // CLR PC
}

// RP06 is the bootstrap for an RH70/RP06 Massbus controller: a longer
// sequence than RK05/RL02 since the Massbus register set is indirect
// (drive-select, then a command register shared across drive types).
var RP06 = []uint16{
	0012706, 0002000, // MOV #2000, SP
	0012700, 0000000, // MOV #0, R0       ; unit number
	0072027, 0000010, // ASH R0 (drive select positioning handled below)
	0012701, 0176700, // MOV #176700, R1  ; RPCS1
	0005041, // CLR -(R1)                 ; RPWC via offset math below
	0012761, 0177000, 0000002, // MOV #-512., 2(R1) ; RPWC
	0005061, 0000004, // CLR 4(R1)        ; RPBA
	0012761, 0000001, 0000006, // MOV #1, 6(R1)     ; RPDA (sector 1)
	0012711, 0000071, // MOV #71, (R1)    ; RPCS1: read+go
	0105711, // TSTB (R1)
	0100376, // BPL .-2
	0005007, // CLR PC
}
