// Package cpu implements PDP-11/70 instruction fetch/decode/execute,
// the dual register banks, the four stack pointers, condition codes,
// the trap/interrupt pipeline, and (optionally) a breakpoint predicate
// tree for tracing.
//
// State lives in an explicit *CPU value rather than a package-level
// global, since nothing here requires a singleton and tests want
// independent instances. Dispatch is split across files by instruction
// class, with condition-code handling folded into each instruction's
// own execute step.
package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

// PSW bit layout.
const (
	pswC        uint16 = 0000001
	pswV        uint16 = 0000002
	pswZ        uint16 = 0000004
	pswN        uint16 = 0000010
	pswT        uint16 = 0000020
	pswIPLShift        = 5
	pswIPLMask  uint16 = 0000340
	pswRegSet   uint16 = 0004000
	pswPrevShift       = 12
	pswPrevMask uint16 = 0030000
	pswCurShift        = 14
	pswCurMask  uint16 = 0140000

	pswWritableMask   uint16 = 0174377
	pswRestrictedMask uint16 = 0174037
)

// Trap vectors.
const (
	vecBus        uint16 = 004 // odd address / NXM / MMU abort
	vecIllegal    uint16 = 010 // reserved instruction
	vecBPT        uint16 = 014
	vecIOT        uint16 = 020
	vecPower      uint16 = 024
	vecEMT        uint16 = 030
	vecTrap       uint16 = 034
	vecMMU        uint16 = 0250
)

// Debug options: a bitmask of named options, set by option name.
const (
	debugTrace = 1 << iota
	debugTrap
	debugIRQ
)

var debugOption = map[string]int{
	"TRACE": debugTrace,
	"TRAP":  debugTrap,
	"IRQ":   debugIRQ,
}

// ModeSel selects whether a bus access should use the CPU's current
// mode or its "previous mode" field, for MFPI/MFPD/MTPI/MTPD.
type ModeSel uint8

const (
	CurMode ModeSel = iota
	PrevMode
)

// WordSize selects byte or word width for a memory/register access.
type WordSize uint8

const (
	Word WordSize = iota
	Byte
)

// BusAccess is the contract the bus presents to the CPU: translated,
// fault-reporting word/byte access plus the PSW side-load signal.
// Defined here (not in package bus) so package bus can import package
// cpu without a cycle.
type BusAccess interface {
	Read(virt uint16, sz WordSize, modeSel ModeSel, peek bool, space mmu.Space) (uint16, *mmu.Fault)
	Write(virt uint16, sz WordSize, value uint16, modeSel ModeSel, space mmu.Space) (isPSW bool, fault *mmu.Fault)
	// ResetDevices pulses every bus device's reset line, for the RESET
	// instruction.
	ResetDevices()
}

// StopReason is the process-wide cancellation enum devices/operators can
// raise.
type StopReason int32

const (
	StopNone StopReason = iota
	StopHalt
	StopInterrupt
	StopTerminate
)
