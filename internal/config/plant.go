package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvPlantTimezone   = "LAUDO_PLANT_TIMEZONE"
	EnvPlantShiftStart = "LAUDO_PLANT_SHIFT_START"
	EnvPlantShiftEnd   = "LAUDO_PLANT_SHIFT_END"
)

// PlantConfig holds plant-local conventions: the timezone production dates
// are reckoned in and the day-shift window. Shift A runs [ShiftStart,
// ShiftEnd) local time; shift B covers the remainder of the day.
type PlantConfig struct {
	Timezone   string `toml:"timezone"`
	ShiftStart string `toml:"shift_start"`
	ShiftEnd   string `toml:"shift_end"`
}

// Location resolves the configured timezone. Finalize guarantees it loads.
func (c *PlantConfig) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PlantConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PlantConfig) Merge(overlay *PlantConfig) {
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
	if overlay.ShiftStart != "" {
		c.ShiftStart = overlay.ShiftStart
	}
	if overlay.ShiftEnd != "" {
		c.ShiftEnd = overlay.ShiftEnd
	}
}

func (c *PlantConfig) loadDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.ShiftStart == "" {
		c.ShiftStart = "07:00"
	}
	if c.ShiftEnd == "" {
		c.ShiftEnd = "19:00"
	}
}

func (c *PlantConfig) loadEnv() {
	if v := os.Getenv(EnvPlantTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvPlantShiftStart); v != "" {
		c.ShiftStart = v
	}
	if v := os.Getenv(EnvPlantShiftEnd); v != "" {
		c.ShiftEnd = v
	}
}

func (c *PlantConfig) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	for name, v := range map[string]string{"shift_start": c.ShiftStart, "shift_end": c.ShiftEnd} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.ShiftStart >= c.ShiftEnd {
		return fmt.Errorf("shift_start %s must precede shift_end %s", c.ShiftStart, c.ShiftEnd)
	}
	return nil
}
