package blockstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rk0.dsk")
	if err := os.WriteFile(path, make([]byte, 512), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Attach(path, false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer f.Close()

	if err := f.WriteAt(128, []byte("hello")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got, err := f.ReadAt(128, 5)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("ReadAt = %q, want %q", got, "hello")
	}
}

func TestReadPastEndOfFileReadsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.dsk")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Attach(path, false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer f.Close()

	got, err := f.ReadAt(0, 8)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	want := []byte{1, 2, 3, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadAt = %v, want %v", got, want)
	}
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.dsk")
	if err := os.WriteFile(path, make([]byte, 16), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Attach(path, true)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer f.Close()

	if err := f.WriteAt(0, []byte{1}); err != ErrReadOnly {
		t.Errorf("WriteAt on read-only store = %v, want ErrReadOnly", err)
	}
}

func TestSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sized.dsk")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Attach(path, false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer f.Close()

	if f.Size() != 4096 {
		t.Errorf("Size() = %d, want 4096", f.Size())
	}
}
