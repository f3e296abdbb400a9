package memory

import "testing"

func TestNewDefaultPages(t *testing.T) {
	m := New(0)
	if m.Size() != DefaultPages*PageSize {
		t.Errorf("Size() = %d, want %d", m.Size(), DefaultPages*PageSize)
	}
}

func TestByteWordRoundTrip(t *testing.T) {
	m := New(1)
	m.WriteWord(0, 0x1234)
	if got := m.ReadWord(0); got != 0x1234 {
		t.Errorf("ReadWord = %#o, want %#o", got, 0x1234)
	}
	if got := m.ReadByte(0); got != 0x34 {
		t.Errorf("low byte = %#x, want 0x34 (little-endian)", got)
	}
	if got := m.ReadByte(1); got != 0x12 {
		t.Errorf("high byte = %#x, want 0x12", got)
	}

	m.WriteByte(2, 0xAB)
	if got := m.ReadByte(2); got != 0xAB {
		t.Errorf("ReadByte(2) = %#x, want 0xAB", got)
	}
}

func TestInRange(t *testing.T) {
	m := New(1)
	if !m.InRange(PageSize - 1) {
		t.Error("last byte should be in range")
	}
	if m.InRange(PageSize) {
		t.Error("one past end should not be in range")
	}
}

func TestResetZeros(t *testing.T) {
	m := New(1)
	m.WriteWord(10, 0xFFFF)
	m.Reset()
	if got := m.ReadWord(10); got != 0 {
		t.Errorf("after Reset, ReadWord = %#o, want 0", got)
	}
}

func TestLoadAt(t *testing.T) {
	m := New(1)
	m.LoadAt(010, []byte{1, 2, 3, 4})
	if m.ReadByte(010) != 1 || m.ReadByte(013) != 4 {
		t.Error("LoadAt did not copy data at the expected offset")
	}
}
