package mmu

import "testing"

func TestDisabledMMUIsIdentityBelowIOPage(t *testing.T) {
	m := New()
	phys, flt := m.Translate(Kernel, 0001000, AccessRead, ISpace)
	if flt != nil {
		t.Fatalf("unexpected fault: %v", flt)
	}
	if phys != 0001000 {
		t.Errorf("phys = %#o, want identity %#o", phys, 0001000)
	}
}

func TestDisabledMMURoutesIOPage(t *testing.T) {
	m := New()
	phys, flt := m.Translate(Kernel, 0160000, AccessRead, ISpace)
	if flt != nil {
		t.Fatalf("unexpected fault: %v", flt)
	}
	if phys&0x3F0000 == 0 {
		t.Errorf("virt >= 0160000 should route to the device page, got phys=%#o", phys)
	}
}

func TestEnabledIdentityMapping(t *testing.T) {
	m := New()
	m.WriteRegister(0177572, 1) // enable MMU
	for page := 0; page < 8; page++ {
		m.SetPAR(Kernel, ISpace, page, uint16(page*0200))
		m.SetPDR(Kernel, ISpace, page, (0177<<8)|06) // RW, length=0x7f, upward
	}

	virt := uint16(0001000)
	phys, flt := m.Translate(Kernel, virt, AccessRead, ISpace)
	if flt != nil {
		t.Fatalf("unexpected fault: %v", flt)
	}
	if phys != uint32(virt) {
		t.Errorf("identity-mapped page: phys = %#o, want %#o", phys, virt)
	}
}

func TestAccessControlAbort(t *testing.T) {
	m := New()
	m.WriteRegister(0177572, 1)
	m.SetPDR(Kernel, ISpace, 0, 0) // ACF 0: abort on read and write

	_, flt := m.Translate(Kernel, 0000100, AccessRead, ISpace)
	if flt == nil || flt.Kind != FaultAbort || flt.Vector != 4 {
		t.Fatalf("expected abort fault vector 4, got %+v", flt)
	}
}

func TestPageLengthFaultLocksMMR0(t *testing.T) {
	m := New()
	m.WriteRegister(0177572, 1)
	// PDR length field 0x74 (bits 8-14), ACF 6 (RW), upward direction.
	m.SetPDR(Kernel, ISpace, 7, (0x74<<8)|06)
	m.SetPAR(Kernel, ISpace, 7, 0)

	// virt=0177000 selects page 7 (apf=7) with an in-page offset whose
	// cmp field (120) exceeds the configured length field (116),
	// tripping the upward-direction length check.
	_, flt := m.Translate(Kernel, 0177000, AccessRead, ISpace)
	if flt == nil || flt.Kind != FaultTrap250 || flt.Vector != 0250 {
		t.Fatalf("expected trap 0250, got %+v", flt)
	}
	if m.MMR0()&0040000 == 0 {
		t.Fatalf("MMR0 page-length bit (14) not set: %#o", m.MMR0())
	}
	apf := (m.MMR0() >> 1) & 7
	if apf != 7 {
		t.Errorf("MMR0 APF field = %d, want 7", apf)
	}

	// Once locked, further faults must not overwrite bits 1-7.
	before := m.MMR0()
	m.SetPDR(Kernel, ISpace, 0, 0)
	_, _ = m.Translate(Kernel, 0000100, AccessWrite, ISpace)
	if m.MMR0() != before {
		t.Errorf("MMR0 changed while locked: before=%#o after=%#o", before, m.MMR0())
	}

	// Clearing bit 14 (and 13/15) unlocks it.
	m.WriteRegister(0177572, m.MMR0()&^0160000)
	if m.Locked() {
		t.Error("MMU should unlock once MMR0 bits 13-15 are cleared")
	}
}

func TestMMR1LogTwoEntries(t *testing.T) {
	m := New()
	m.LogAutoMod(0, 2)
	m.LogAutoMod(1, -2)
	if m.MMR1() == 0 {
		t.Fatal("expected MMR1 to record both auto-mod entries")
	}
	low := m.MMR1() & 0377
	high := (m.MMR1() >> 8) & 0377
	if low&07 != 0 || high&07 != 1 {
		t.Errorf("MMR1 register fields wrong: low=%#o high=%#o", low, high)
	}
}

func TestMMR1ClearedOnlyWhenUnlocked(t *testing.T) {
	m := New()
	m.LogAutoMod(2, 1)
	m.ClearMMR1()
	if m.MMR1() != 0 {
		t.Fatal("MMR1 should clear when unlocked")
	}

	m.WriteRegister(0177572, 1)
	m.SetPDR(Kernel, ISpace, 0, 0)
	m.LogAutoMod(3, 1)
	_, _ = m.Translate(Kernel, 0, AccessRead, ISpace)
	m.ClearMMR1()
	if m.MMR1() == 0 {
		t.Fatal("MMR1 should not clear while MMU is locked")
	}
}
