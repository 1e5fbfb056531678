package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGet(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key  string
		want string
	}{
		{"routing.high_confidence", "0.6"},
		{"routing.intent_floor", "0.3"},
		{"execution.max_concurrent", "2"},
		{"execution.timeout", "10m0s"},
		{"contractor.tier", "growth"},
	}
	for _, tt := range tests {
		got, err := Get(cfg, tt.key)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if _, err := Get(cfg, "anthropic.api_key"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
}

func TestKeys_AllReadable(t *testing.T) {
	cfg := Default()
	for _, k := range Keys() {
		if _, err := Get(cfg, k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestSetInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixit", "config.yaml")

	if err := SetInFile(path, "contractor.tier", "scale"); err != nil {
		t.Fatalf("SetInFile() error = %v", err)
	}
	if err := SetInFile(path, "contractor.services", "ROOF, DECK ,"); err != nil {
		t.Fatalf("SetInFile() error = %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Contractor.Tier != "scale" {
		t.Errorf("tier = %q, want scale", cfg.Contractor.Tier)
	}
	if len(cfg.Contractor.Services) != 2 || cfg.Contractor.Services[1] != "DECK" {
		t.Errorf("services = %v, want [ROOF DECK]", cfg.Contractor.Services)
	}
}

func TestSetInFile_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := SetInFile(path, "nope", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}
	if err := SetInFile(path, "routing.high_confidence", "1.5"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid value error = %v, want ErrInvalidConfig", err)
	}
}
