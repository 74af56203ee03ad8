package sensor

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Simulator models the enclosure well enough to run the controller off
// hardware. Temperature and humidity relax toward an ambient value, and
// toward the equipment's pull-down value while the relay is on.
type Simulator struct {
	mu sync.Mutex

	now func() time.Time

	temperature float64
	humidity    float64
	last        time.Time

	acOn           bool
	dehumidifierOn bool
	humidifierOn   bool

	// FailEvery makes every Nth read fail; zero disables.
	FailEvery int
	// Noise is the amplitude of uniform noise added to each reading.
	Noise float64
	reads int
}

const (
	ambientDayTemp   = 30.0
	ambientNightTemp = 24.0
	ambientHumidity  = 70.0
	acTemp           = 18.0
	dryHumidity      = 40.0
	wetHumidity      = 85.0

	// fraction of the gap closed per minute
	relaxRate = 0.05
	driveRate = 0.15
)

var errSimulatedFault = errors.New("simulated sensor timeout")

func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		now:         now,
		temperature: 27.0,
		humidity:    60.0,
		last:        now(),
		Noise:       0.1,
	}
}

func (s *Simulator) ReadTemperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail() {
		return 0, readError(Temperature, errSimulatedFault)
	}
	s.step()
	return round1(s.temperature + s.noise()), nil
}

func (s *Simulator) ReadHumidity() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail() {
		return 0, readError(Humidity, errSimulatedFault)
	}
	s.step()
	return round1(s.humidity + s.noise()), nil
}

// ReadLightLevel follows the wall clock: lit from 07:00 to 19:00.
func (s *Simulator) ReadLightLevel() (int, error) {
	if isDaytime(s.now()) {
		return 600, nil
	}
	return 20, nil
}

func (s *Simulator) SetAC(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	s.acOn = on
	return nil
}

func (s *Simulator) SetDehumidifier(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	s.dehumidifierOn = on
	return nil
}

func (s *Simulator) SetHumidifier(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	s.humidifierOn = on
	return nil
}

func (s *Simulator) fail() bool {
	s.reads++
	return s.FailEvery > 0 && s.reads%s.FailEvery == 0
}

func (s *Simulator) step() {
	now := s.now()
	minutes := now.Sub(s.last).Minutes()
	s.last = now
	if minutes <= 0 {
		return
	}

	ambient := ambientNightTemp
	if isDaytime(now) {
		ambient = ambientDayTemp
	}
	s.temperature = approach(s.temperature, ambient, relaxRate, minutes)
	if s.acOn {
		s.temperature = approach(s.temperature, acTemp, driveRate, minutes)
	}

	s.humidity = approach(s.humidity, ambientHumidity, relaxRate, minutes)
	if s.dehumidifierOn {
		s.humidity = approach(s.humidity, dryHumidity, driveRate, minutes)
	}
	if s.humidifierOn {
		s.humidity = approach(s.humidity, wetHumidity, driveRate, minutes)
	}
}

func (s *Simulator) noise() float64 {
	if s.Noise == 0 {
		return 0
	}
	return (rand.Float64()*2 - 1) * s.Noise
}

func approach(current, target, rate, minutes float64) float64 {
	return target + (current-target)*math.Pow(1-rate, minutes)
}

func isDaytime(t time.Time) bool {
	h := t.Hour()
	return h >= 7 && h < 19
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
