package bus

import (
	"github.com/rcornwell/pdp1170/internal/mmu"
)

// Normalized I/O-page addresses for the CPU/MMU register windows.
const (
	regKernelR0 = 0177700 // .. 0177705 Kernel R0-R5
	regKernelSP = 0177706
	regPC       = 0177707
	regUserR0   = 0177710 // .. 0177715 User R0-R5
	regSuperSP  = 0177716
	regUserSP   = 0177717

	regPSW        = 0177776
	regStackLimit = 0177774

	regCacheLow  = 0177740
	regCacheHigh = 0177753 // inclusive
	regUnibusLow = 0170200
	regUnibusHigh = 0170377 // inclusive
	regSysSize   = 0177760
	regMaint     = 0177750
)

// readRegisterWindow resolves the CPU-owned and MMU-owned register
// windows. ok is false for anything it doesn't own, so the caller
// falls through to the device table.
func (b *Bus) readRegisterWindow(norm uint32) (uint16, bool) {
	switch {
	case norm >= regKernelR0 && norm <= regKernelR0+5:
		return b.cpuRef.BankRegister(0, uint8(norm-regKernelR0)), true
	case norm == regKernelSP:
		return b.cpuRef.StackPointer(mmu.Kernel), true
	case norm == regPC:
		return b.cpuRef.PC(), true
	case norm >= regUserR0 && norm <= regUserR0+5:
		return b.cpuRef.BankRegister(1, uint8(norm-regUserR0)), true
	case norm == regSuperSP:
		return b.cpuRef.StackPointer(mmu.Super), true
	case norm == regUserSP:
		return b.cpuRef.StackPointer(mmu.User), true
	case norm == regPSW:
		return b.cpuRef.PSW(), true
	case norm == regStackLimit:
		return b.cpuRef.StackLimit(), true
	case norm >= regCacheLow && norm <= regCacheHigh && norm != regMaint:
		return 0, true
	case norm >= regUnibusLow && norm <= regUnibusHigh:
		return 0, true
	case norm == regSysSize:
		return b.sysSize, true
	case norm == regMaint:
		return 1, true // power-OK bit
	}
	if v, ok := b.mmuRef.ReadRegister(norm); ok {
		return v, true
	}
	return 0, false
}

// writeRegisterWindow mirrors readRegisterWindow; byte-mode merging has
// already been done by the caller, so value is always a full word. isPSW
// reports whether this write hit 0177776 (the CPU's PSW), which the
// caller (package cpu, via the instruction that issued the write) must
// use to suppress its own condition-code update for this instruction.
func (b *Bus) writeRegisterWindow(norm uint32, value uint16) (isPSW bool, ok bool) {
	switch {
	case norm >= regKernelR0 && norm <= regKernelR0+5:
		b.cpuRef.SetBankRegister(0, uint8(norm-regKernelR0), value)
		return false, true
	case norm == regKernelSP:
		b.cpuRef.SetStackPointer(mmu.Kernel, value)
		return false, true
	case norm == regPC:
		b.cpuRef.SetPC(value)
		return false, true
	case norm >= regUserR0 && norm <= regUserR0+5:
		b.cpuRef.SetBankRegister(1, uint8(norm-regUserR0), value)
		return false, true
	case norm == regSuperSP:
		b.cpuRef.SetStackPointer(mmu.Super, value)
		return false, true
	case norm == regUserSP:
		b.cpuRef.SetStackPointer(mmu.User, value)
		return false, true
	case norm == regPSW:
		b.cpuRef.WritePSW(value)
		return true, true
	case norm == regStackLimit:
		b.cpuRef.SetStackLimit(value)
		return false, true
	case norm >= regCacheLow && norm <= regCacheHigh:
		return false, true // writes ignored
	case norm >= regUnibusLow && norm <= regUnibusHigh:
		return false, true // writes ignored
	case norm == regSysSize:
		return false, true // read-only
	case norm == regMaint:
		return false, true // read-only
	}
	if b.mmuRef.WriteRegister(norm, value) {
		return false, true
	}
	return false, false
}
