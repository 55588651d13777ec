package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Track != "predefined" {
		t.Errorf("expected predefined track, got %s", cfg.Track)
	}
	if cfg.DtCtrl < cfg.DtSim {
		t.Error("default dt_ctrl finer than dt_sim")
	}
}

func TestValidateCatchesBadTiming(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DtCtrl = cfg.DtSim / 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for dt_ctrl < dt_sim")
	}

	cfg = DefaultConfig()
	cfg.DtSim = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero dt_sim")
	}

	cfg = DefaultConfig()
	cfg.Sensors.Count = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero sensor count")
	}

	cfg = DefaultConfig()
	cfg.DerailOffset = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero derail_offset")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("slow")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Controller.BaseSpeed != 0.8 {
		t.Errorf("expected base speed 0.8, got %g", cfg.Controller.BaseSpeed)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}

	if len(ListPresets()) == 0 {
		t.Error("expected some presets")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	orig := DefaultConfig()
	orig.Controller.Kp = 9.75
	orig.Track = "circle"
	orig.MotorLag = true
	if err := Save(path, orig); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Controller.Kp != 9.75 {
		t.Errorf("kp: expected 9.75, got %g", loaded.Controller.Kp)
	}
	if loaded.Track != "circle" {
		t.Errorf("track: expected circle, got %s", loaded.Track)
	}
	if !loaded.MotorLag {
		t.Error("motor_lag flag not preserved")
	}
	// Untouched fields keep defaults.
	if loaded.Chassis.Wheelbase != 0.1 {
		t.Errorf("wheelbase: expected 0.1, got %g", loaded.Chassis.Wheelbase)
	}
}
