package papertape

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.ptp")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	data := []byte{1, 2, 3, 4, 5}
	if err := w.WriteRecord(01000, data); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := w.WriteStart(01000); err != nil {
		t.Fatalf("WriteStart: %v", err)
	}
	if err := w.WriteTerminator(); err != nil {
		t.Fatalf("WriteTerminator: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Attach(path)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Detach()

	rec, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord data: %v", err)
	}
	if rec.Address != 01000 || rec.IsStart {
		t.Fatalf("data record mismatch: %+v", rec)
	}
	if string(rec.Data) != string(data) {
		t.Fatalf("data mismatch: got %v want %v", rec.Data, data)
	}

	rec, err = r.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord start: %v", err)
	}
	if !rec.IsStart || rec.Address != 01000 {
		t.Fatalf("start record mismatch: %+v", rec)
	}

	rec, err = r.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord terminator: %v", err)
	}
	if !IsTerminator(rec) {
		t.Fatalf("expected terminator, got %+v", rec)
	}
}

func TestChecksumError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ptp")
	raw := []byte{syncByte, zeroByte, 6, 0, 0, 2, 0xff}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Attach(path)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Detach()

	if _, err := r.ReadRecord(); err != ErrChecksum {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}
