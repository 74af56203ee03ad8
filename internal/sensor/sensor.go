package sensor

import (
	"errors"
	"fmt"
	"math"
)

// Source reads temperature and humidity independently; one failing says
// nothing about the other.
type Source interface {
	ReadTemperature() (float64, error)
	ReadHumidity() (float64, error)
}

// ErrSensorRead covers both an absent sensor and one returning garbage.
var ErrSensorRead = errors.New("sensor read failure")

type Quantity string

const (
	Temperature Quantity = "temperature"
	Humidity    Quantity = "humidity"
	Light       Quantity = "light"
)

type ReadError struct {
	Quantity Quantity
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSensorRead, e.Quantity, e.Err)
}

func (e *ReadError) Unwrap() []error {
	return []error{ErrSensorRead, e.Err}
}

func readError(q Quantity, err error) error {
	return &ReadError{Quantity: q, Err: err}
}

// DHT22 operating range.
const (
	MinTemperature = -40.0
	MaxTemperature = 80.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Validate rejects NaN and out-of-range values for the given quantity.
func Validate(q Quantity, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return readError(q, fmt.Errorf("not a number"))
	}

	lo, hi := MinTemperature, MaxTemperature
	if q == Humidity {
		lo, hi = MinHumidity, MaxHumidity
	}
	if v < lo || v > hi {
		return readError(q, fmt.Errorf("value %.2f outside %.0f..%.0f", v, lo, hi))
	}
	return nil
}
