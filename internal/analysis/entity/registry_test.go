package entity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRegistryUppercasesAndDedupes(t *testing.T) {
	registry := NewRegistry([]string{" acme corp ", "ACME CORP", "", "Safaricom PLC"})

	if registry.Len() != 2 {
		t.Fatalf("len = %d, want 2", registry.Len())
	}
	if !registry.Contains("acme corp") {
		t.Error("expected case-insensitive Contains for ACME CORP")
	}
	if !registry.Contains("SAFARICOM PLC") {
		t.Error("expected Contains for SAFARICOM PLC")
	}
	if registry.Contains("UNKNOWN LTD") {
		t.Error("unexpected Contains for unknown name")
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_entities.yaml")
	content := "known_entities:\n  - Acme Corp\n  - Kenya Power\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("len = %d, want 2", registry.Len())
	}
	if !registry.Contains("ACME CORP") || !registry.Contains("KENYA POWER") {
		t.Errorf("names = %v, want ACME CORP and KENYA POWER", registry.Names())
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
