package controller

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

// Actuator shadows one relay. The tracked level is the last level written
// successfully; the relay itself is never read back.
type Actuator struct {
	Channel     model.Channel
	MinOn       time.Duration
	MinOff      time.Duration
	LastChanged time.Time

	isOn  bool
	write func(on bool) error
}

func NewActuator(channel model.Channel, minOn, minOff time.Duration, write func(on bool) error) *Actuator {
	return &Actuator{Channel: channel, MinOn: minOn, MinOff: minOff, write: write}
}

func (a *Actuator) IsOn() bool {
	return a.isOn
}

func (a *Actuator) CanTurnOn(now time.Time) bool {
	return !a.isOn && (a.LastChanged.IsZero() || now.Sub(a.LastChanged) >= a.MinOff)
}

func (a *Actuator) CanTurnOff(now time.Time) bool {
	return a.isOn && (a.LastChanged.IsZero() || now.Sub(a.LastChanged) >= a.MinOn)
}

// Apply drives the relay toward cmd and reports whether a write happened.
// Commands matching the tracked level are no-ops.
func (a *Actuator) Apply(cmd model.Command, now time.Time) (bool, error) {
	var target bool
	switch cmd {
	case model.On:
		if a.isOn {
			return false, nil
		}
		if !a.CanTurnOn(now) {
			log.Debug().Str("device", string(a.Channel)).Dur("min_off", a.MinOff).Msg("Holding OFF for minimum off time")
			return false, nil
		}
		target = true
	case model.Off:
		if !a.isOn {
			return false, nil
		}
		if !a.CanTurnOff(now) {
			log.Debug().Str("device", string(a.Channel)).Dur("min_on", a.MinOn).Msg("Holding ON for minimum on time")
			return false, nil
		}
	default:
		return false, nil
	}

	if err := a.set(target, now); err != nil {
		return false, err
	}
	return true, nil
}

// Force drives the relay to the given level regardless of the minimum on/off times.
// It is still a no-op when the tracked level already matches.
func (a *Actuator) Force(on bool, now time.Time) (bool, error) {
	if a.isOn == on {
		return false, nil
	}
	if err := a.set(on, now); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Actuator) set(target bool, now time.Time) error {
	if err := a.write(target); err != nil {
		return err
	}
	a.isOn = target
	a.LastChanged = now

	if target {
		log.Info().Str("device", string(a.Channel)).Msg("Turned ON")
	} else {
		log.Info().Str("device", string(a.Channel)).Msg("Turned OFF")
	}
	return nil
}
