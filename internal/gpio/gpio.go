package gpio

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/model"
	"github.com/thatsimonsguy/dnth-controller/internal/pinctrl"
)

var safeMode bool

func SetSafeMode(enabled bool) {
	safeMode = enabled
}

func SafeMode() bool {
	return safeMode
}

var Read = func(pin model.GPIOPin) (bool, error) {
	level, err := pinctrl.ReadLevel(pin.Number)
	if err != nil {
		return false, fmt.Errorf("failed to read pin level for pin %d: %w", pin.Number, err)
	}
	return level, nil
}

var Activate = func(pin model.GPIOPin) error {
	if safeMode {
		return nil
	}
	if err := pinctrl.SetOutput(pin.Number, pin.ActiveHigh); err != nil {
		return fmt.Errorf("failed to activate pin %d: %w", pin.Number, err)
	}
	return nil
}

var Deactivate = func(pin model.GPIOPin) error {
	if safeMode {
		return nil
	}
	if err := pinctrl.SetOutput(pin.Number, !pin.ActiveHigh); err != nil {
		return fmt.Errorf("failed to deactivate pin %d: %w", pin.Number, err)
	}
	return nil
}

var CurrentlyActive = func(pin model.GPIOPin) (bool, error) {
	level, err := Read(pin)
	if err != nil {
		return false, err
	}
	return pin.ActiveHigh == level, nil
}

// Output is a single named digital output.
type Output struct {
	Name string
	Pin  model.GPIOPin
}

func (o Output) Set(on bool) error {
	if on {
		return Activate(o.Pin)
	}
	return Deactivate(o.Pin)
}

// Outputs returns every configured output sorted by pin number.
func Outputs(cfg *config.Config) []Output {
	var outs []Output
	for name, pin := range cfg.OutputPins() {
		outs = append(outs, Output{Name: name, Pin: pin})
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].Pin.Number < outs[j].Pin.Number })
	return outs
}

// AllOff drives every configured output inactive, attempting all of them
// even if some fail.
func AllOff(cfg *config.Config) error {
	var errs []error
	for _, o := range Outputs(cfg) {
		if err := o.Set(false); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateStartupPins checks that every configured output reads inactive.
func ValidateStartupPins(cfg *config.Config) error {
	if safeMode {
		log.Info().Msg("Safe mode enabled, skipping startup pin validation")
		return nil
	}

	for _, o := range Outputs(cfg) {
		active, err := CurrentlyActive(o.Pin)
		if err != nil {
			return fmt.Errorf("failed to read pin level for %s (GPIO %d): %w", o.Name, o.Pin.Number, err)
		}
		if active {
			return fmt.Errorf("pin %d (%s) is in wrong state at startup (expected active=false)", o.Pin.Number, o.Name)
		}
	}
	return nil
}
