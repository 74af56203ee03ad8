package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
)

// SysfsSource reads a DHT22 through the kernel IIO dht11 driver, which
// reports milli-degrees Celsius and milli-percent relative humidity.
type SysfsSource struct {
	temperaturePath string
	humidityPath    string
	retries         int
	retryDelay      time.Duration
}

func NewSysfsSource(cfg config.Sensor) *SysfsSource {
	return &SysfsSource{
		temperaturePath: cfg.TemperaturePath,
		humidityPath:    cfg.HumidityPath,
		retries:         cfg.ReadRetries,
		retryDelay:      time.Duration(cfg.RetryDelayMS) * time.Millisecond,
	}
}

func (s *SysfsSource) ReadTemperature() (float64, error) {
	return s.read(Temperature, s.temperaturePath)
}

func (s *SysfsSource) ReadHumidity() (float64, error) {
	return s.read(Humidity, s.humidityPath)
}

// The dht11 driver returns EIO or ETIMEDOUT on a bad checksum or a missed
// edge, so a couple of quick retries are made before the cycle sees a failure.
func (s *SysfsSource) read(q Quantity, path string) (float64, error) {
	var value float64

	attempt := 0
	op := func() error {
		attempt++
		milli, err := readInt(path)
		if err != nil {
			log.Debug().Err(err).Str("quantity", string(q)).Int("attempt", attempt).Msg("sensor read attempt failed")
			return err
		}
		v := float64(milli) / 1000.0
		if err := Validate(q, v); err != nil {
			return err
		}
		value = v
		return nil
	}

	retries := s.retries
	if retries < 0 {
		retries = 0
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), uint64(retries))); err != nil {
		if _, ok := err.(*ReadError); ok {
			return 0, err
		}
		return 0, readError(q, err)
	}
	return value, nil
}

// SysfsLight reads a raw ADC channel exposed through IIO.
type SysfsLight struct {
	path string
}

func NewSysfsLight(path string) *SysfsLight {
	return &SysfsLight{path: path}
}

func (l *SysfsLight) ReadLightLevel() (int, error) {
	level, err := readInt(l.path)
	if err != nil {
		return 0, readError(Light, err)
	}
	return level, nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	trimmed := strings.TrimSpace(string(data))
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("malformed reading %q from %s: %w", trimmed, path, err)
	}
	return v, nil
}
