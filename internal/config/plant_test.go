package config_test

import (
	"testing"

	"github.com/vermlab/laudo/internal/config"
)

func TestPlantConfigDefaults(t *testing.T) {
	var cfg config.PlantConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	if cfg.Timezone != "America/Sao_Paulo" {
		t.Errorf("Timezone = %q, want America/Sao_Paulo", cfg.Timezone)
	}
	if cfg.ShiftStart != "07:00" || cfg.ShiftEnd != "19:00" {
		t.Errorf("shift window = [%s, %s), want [07:00, 19:00)", cfg.ShiftStart, cfg.ShiftEnd)
	}
	if cfg.Location() == nil {
		t.Error("Location() = nil after Finalize")
	}
}

func TestPlantConfigEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvPlantTimezone, "UTC")
	t.Setenv(config.EnvPlantShiftStart, "06:00")
	t.Setenv(config.EnvPlantShiftEnd, "18:00")

	var cfg config.PlantConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	if cfg.Timezone != "UTC" || cfg.ShiftStart != "06:00" || cfg.ShiftEnd != "18:00" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestPlantConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PlantConfig
	}{
		{"unknown timezone", config.PlantConfig{Timezone: "Mars/Olympus"}},
		{"malformed shift start", config.PlantConfig{ShiftStart: "7am"}},
		{"malformed shift end", config.PlantConfig{ShiftEnd: "25:00"}},
		{"inverted window", config.PlantConfig{ShiftStart: "19:00", ShiftEnd: "07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Errorf("Finalize accepted %+v", tt.cfg)
			}
		})
	}
}

func TestPlantConfigMerge(t *testing.T) {
	cfg := config.PlantConfig{Timezone: "America/Sao_Paulo", ShiftStart: "07:00", ShiftEnd: "19:00"}
	cfg.Merge(&config.PlantConfig{ShiftStart: "06:30"})

	if cfg.ShiftStart != "06:30" {
		t.Errorf("ShiftStart = %s, want 06:30", cfg.ShiftStart)
	}
	if cfg.Timezone != "America/Sao_Paulo" || cfg.ShiftEnd != "19:00" {
		t.Errorf("Merge clobbered unset fields: %+v", cfg)
	}
}
