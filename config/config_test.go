package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Rules)
		wantErr bool
	}{
		{"defaults", func(r *Rules) {}, false},
		{"negative budget", func(r *Rules) { r.StartBudget = -1 }, true},
		{"zero fuel rate", func(r *Rules) { r.FuelRate = 0 }, true},
		{"too many chemicals", func(r *Rules) { r.ChemicalEvents = r.TotalAirports + 1 }, true},
		{"zero threshold allowed", func(r *Rules) { r.RequiredChemicals = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "start_budget: 1200\nfuel_rate: 3\nrequired_chemicals: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	rules := DefaultRules
	if err := LoadRulesFile(path, &rules); err != nil {
		t.Fatalf("LoadRulesFile failed: %v", err)
	}
	if rules.StartBudget != 1200 {
		t.Errorf("Expected start budget 1200, got %d", rules.StartBudget)
	}
	if rules.FuelRate != 3 {
		t.Errorf("Expected fuel rate 3, got %d", rules.FuelRate)
	}
	if rules.RequiredChemicals != 2 {
		t.Errorf("Expected 2 required chemicals, got %d", rules.RequiredChemicals)
	}
	if rules.StartFuelRange != DefaultRules.StartFuelRange {
		t.Errorf("Expected untouched start range %d, got %d", DefaultRules.StartFuelRange, rules.StartFuelRange)
	}

	if err := LoadRulesFile(filepath.Join(dir, "missing.yaml"), &rules); err == nil {
		t.Error("Expected error for missing rules file")
	}
}

func TestLoad(t *testing.T) {
	t.Run("memory store with env overrides", func(t *testing.T) {
		t.Setenv("STORE", "memory")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("START_BUDGET", "700")
		t.Setenv("FUEL_RATE", "not-a-number")
		t.Setenv("ARCHIVE_INTERVAL", "30s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Rules.StartBudget != 700 {
			t.Errorf("Expected start budget 700, got %d", cfg.Rules.StartBudget)
		}
		if cfg.Rules.FuelRate != DefaultRules.FuelRate {
			t.Errorf("Expected fallback fuel rate %d, got %d", DefaultRules.FuelRate, cfg.Rules.FuelRate)
		}
		if cfg.ArchiveInterval != 30*time.Second {
			t.Errorf("Expected 30s archive interval, got %s", cfg.ArchiveInterval)
		}
	})

	t.Run("postgres without DSN", func(t *testing.T) {
		t.Setenv("STORE", "postgres")
		t.Setenv("DATABASE_URL", "")
		if _, err := Load(); err == nil {
			t.Error("Expected error when DATABASE_URL is missing")
		}
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("STORE", "redis")
		if _, err := Load(); err == nil {
			t.Error("Expected error for unknown store")
		}
	})
}
