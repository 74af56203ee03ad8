package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dnth.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 27.0, cfg.IdealTempDay)
	assert.Equal(t, 22.0, cfg.IdealTempNight)
	assert.Equal(t, 57.0, cfg.IdealHumidity)
	assert.Equal(t, 1.0, cfg.HysteresisBand)
	assert.Equal(t, uint(5), cfg.MaxReadErrors)
	assert.Equal(t, 100, cfg.DayThreshold)
	assert.Equal(t, 3000, cfg.PollIntervalMS)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.False(t, cfg.HumidifierEnabled)
	assert.Nil(t, cfg.GPIO.HumidifierRelay)
	assert.Equal(t, "/usr/local/bin/dnth-controller", cfg.ControllerBinary)

	cfg.validate() // should not panic
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"), Default())
	require.NoError(t, err)
	assert.Equal(t, 27.0, cfg.IdealTempDay)
	assert.Empty(t, cfg.Raw)
}

func TestLoadFile_SingleLine(t *testing.T) {
	path := writeConfig(t, "{ideal_temp_day: 26.5, ideal_temp_night: 21, ideal_humidity: 60, max_read_errors: 3}\n")

	cfg, err := LoadFile(path, Default())
	require.NoError(t, err)

	sp := cfg.Setpoints()
	assert.Equal(t, 26.5, sp.IdealTempDay)
	assert.Equal(t, 21.0, sp.IdealTempNight)
	assert.Equal(t, 60.0, sp.IdealHumidity)
	assert.Equal(t, 1.0, sp.HysteresisBand)
	assert.Equal(t, uint(3), sp.MaxReadErrors)
	assert.Equal(t, "{ideal_temp_day: 26.5, ideal_temp_night: 21, ideal_humidity: 60, max_read_errors: 3}", cfg.Raw)
}

func TestLoadFile_PartialGPIODoesNotTouchBase(t *testing.T) {
	path := writeConfig(t, `
gpio:
  ac_relay:
    pin: 22
  humidifier_relay:
    pin: 23
    active_high: false
humidifier_enabled: true
serial:
  port: /dev/ttyUSB0
`)

	base := Default()
	cfg, err := LoadFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, 22, cfg.GPIO.ACRelay.Number)
	assert.True(t, cfg.GPIO.ACRelay.ActiveHigh)
	require.NotNil(t, cfg.GPIO.HumidifierRelay)
	assert.Equal(t, model.GPIOPin{Number: 23, ActiveHigh: false}, *cfg.GPIO.HumidifierRelay)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)

	assert.Equal(t, 17, base.GPIO.ACRelay.Number)
	assert.Nil(t, base.GPIO.HumidifierRelay)

	cfg.validate()
	assert.Len(t, cfg.OutputPins(), 6)
}

func TestLoadFile_FreeTextFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"plain text blob", "day 27 night 22 humidity 57\n"},
		{"empty file", ""},
		{"list instead of mapping", "- 27\n- 22\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)

			cfg, err := LoadFile(path, Default())
			require.NoError(t, err)
			assert.Equal(t, 27.0, cfg.IdealTempDay)
			assert.Equal(t, 22.0, cfg.IdealTempNight)
			assert.Equal(t, 57.0, cfg.IdealHumidity)
			assert.Equal(t, strings.TrimSpace(tt.contents), cfg.Raw)

			cfg.validate() // should not panic
		})
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, "ideal_temp_day: [27")

	_, err := LoadFile(path, Default())
	assert.Error(t, err)
}

func TestValidate_GPIO_Missing(t *testing.T) {
	cfg := Default()
	cfg.GPIO.DehumidifierRelay = nil

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to missing GPIO config, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_HumidifierEnabledWithoutPin(t *testing.T) {
	cfg := Default()
	cfg.HumidifierEnabled = true

	assert.Panics(t, func() { cfg.validate() })
}

func TestValidate_GPIO_Conflict(t *testing.T) {
	cfg := Default()
	cfg.GPIO.GreenLED = &model.GPIOPin{Number: 17, ActiveHigh: true} // same as ac relay

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to conflicting pin numbers, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_Setpoints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero band", func(c *Config) { c.HysteresisBand = 0 }},
		{"humidity out of range", func(c *Config) { c.IdealHumidity = 120 }},
		{"day temp out of range", func(c *Config) { c.IdealTempDay = 95 }},
		{"negative day/night hysteresis", func(c *Config) { c.DayNightHysteresis = -1 }},
		{"zero poll interval", func(c *Config) { c.PollIntervalMS = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Panics(t, func() { cfg.validate() })
		})
	}
}
