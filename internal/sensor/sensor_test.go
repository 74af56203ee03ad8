package sensor

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Quantity
		v       float64
		wantErr bool
	}{
		{"normal temperature", Temperature, 27.3, false},
		{"cold limit", Temperature, -40, false},
		{"too hot", Temperature, 80.1, true},
		{"nan temperature", Temperature, math.NaN(), true},
		{"normal humidity", Humidity, 57, false},
		{"negative humidity", Humidity, -0.5, true},
		{"humidity over 100", Humidity, 100.1, true},
		{"inf humidity", Humidity, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.q, tt.v)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSensorRead))
				var re *ReadError
				require.True(t, errors.As(err, &re))
				assert.Equal(t, tt.q, re.Quantity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeReading(t *testing.T, dir, name, value string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(value), 0644))
	return path
}

func TestSysfsSource_Read(t *testing.T) {
	dir := t.TempDir()
	src := NewSysfsSource(config.Sensor{
		TemperaturePath: writeReading(t, dir, "in_temp_input", "27400\n"),
		HumidityPath:    writeReading(t, dir, "in_humidityrelative_input", "56900\n"),
		ReadRetries:     0,
		RetryDelayMS:    1,
	})

	temp, err := src.ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, 27.4, temp, 0.001)

	hum, err := src.ReadHumidity()
	require.NoError(t, err)
	assert.InDelta(t, 56.9, hum, 0.001)
}

func TestSysfsSource_MissingFile(t *testing.T) {
	dir := t.TempDir()
	src := NewSysfsSource(config.Sensor{
		TemperaturePath: filepath.Join(dir, "absent"),
		HumidityPath:    writeReading(t, dir, "in_humidityrelative_input", "50000"),
		ReadRetries:     2,
		RetryDelayMS:    1,
	})

	_, err := src.ReadTemperature()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSensorRead))

	// humidity is unaffected by the temperature failure
	hum, err := src.ReadHumidity()
	require.NoError(t, err)
	assert.Equal(t, 50.0, hum)
}

func TestSysfsSource_OutOfRange(t *testing.T) {
	dir := t.TempDir()
	src := NewSysfsSource(config.Sensor{
		TemperaturePath: writeReading(t, dir, "in_temp_input", "250000"),
		HumidityPath:    writeReading(t, dir, "in_humidityrelative_input", "garbage"),
		ReadRetries:     1,
		RetryDelayMS:    1,
	})

	_, err := src.ReadTemperature()
	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, Temperature, re.Quantity)

	_, err = src.ReadHumidity()
	require.True(t, errors.As(err, &re))
	assert.Equal(t, Humidity, re.Quantity)
}

func TestSysfsLight(t *testing.T) {
	dir := t.TempDir()
	l := NewSysfsLight(writeReading(t, dir, "in_voltage0_raw", "412\n"))

	level, err := l.ReadLightLevel()
	require.NoError(t, err)
	assert.Equal(t, 412, level)

	_, err = NewSysfsLight(filepath.Join(dir, "absent")).ReadLightLevel()
	assert.True(t, errors.Is(err, ErrSensorRead))
}

func TestSimulator_ACCoolsEnclosure(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sim := NewSimulator(clock)
	sim.Noise = 0

	start, err := sim.ReadTemperature()
	require.NoError(t, err)

	require.NoError(t, sim.SetAC(true))
	now = now.Add(30 * time.Minute)

	cooled, err := sim.ReadTemperature()
	require.NoError(t, err)
	assert.Less(t, cooled, start)

	level, err := sim.ReadLightLevel()
	require.NoError(t, err)
	assert.Greater(t, level, 100)
}

func TestSimulator_FailEvery(t *testing.T) {
	sim := NewSimulator(nil)
	sim.FailEvery = 2

	_, err := sim.ReadTemperature()
	assert.NoError(t, err)
	_, err = sim.ReadHumidity()
	assert.True(t, errors.Is(err, ErrSensorRead))
	_, err = sim.ReadTemperature()
	assert.NoError(t, err)
}
