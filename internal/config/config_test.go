package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDeviceAndMemory(t *testing.T) {
	models = map[string]Handler{}
	memHandler = nil

	var gotPages int
	RegisterMemory(func(pages int) error {
		gotPages = pages
		return nil
	})

	var got DeviceLine
	RegisterModel("RK05", func(line DeviceLine) error {
		got = line
		return nil
	})

	path := filepath.Join(t.TempDir(), "test.cfg")
	content := "# comment\nmemory 31\nRK05 0177400 file=rk0.dsk ro\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if gotPages != 31 {
		t.Fatalf("memory pages = %d, want 31", gotPages)
	}
	if got.Model != "RK05" || !got.HasAddr || got.Addr != 0177400 {
		t.Fatalf("device line mismatch: %+v", got)
	}
	if len(got.Options) != 2 || got.Options[0].Name != "FILE" || got.Options[0].Value != "rk0.dsk" || got.Options[1].Name != "RO" {
		t.Fatalf("options mismatch: %+v", got.Options)
	}
}

func TestUnknownDeviceErrors(t *testing.T) {
	models = map[string]Handler{}
	memHandler = func(int) error { return nil }

	path := filepath.Join(t.TempDir(), "bad.cfg")
	if err := os.WriteFile(path, []byte("BOGUS 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := Load(path); err == nil {
		t.Fatal("expected error for unknown device")
	}
}
