package daynight

import (
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

// DefaultThreshold is the raw ADC level above which the enclosure is lit.
const DefaultThreshold = 100

// LightSensor returns the raw ambient light level.
type LightSensor interface {
	ReadLightLevel() (int, error)
}

// Classify reports Day when level is strictly above threshold.
func Classify(level, threshold int) model.DayPhase {
	if level > threshold {
		return model.PhaseDay
	}
	return model.PhaseNight
}

// Tracker classifies light levels with an optional dead band around the
// threshold. A band of zero behaves exactly like Classify.
type Tracker struct {
	Threshold int
	Band      int
	phase     model.DayPhase
}

func NewTracker(threshold, band int) *Tracker {
	return &Tracker{Threshold: threshold, Band: band}
}

func (t *Tracker) Observe(level int) model.DayPhase {
	if t.Band <= 0 || t.phase == "" {
		t.phase = Classify(level, t.Threshold)
		return t.phase
	}

	switch t.phase {
	case model.PhaseDay:
		if level <= t.Threshold-t.Band {
			t.phase = model.PhaseNight
		}
	case model.PhaseNight:
		if level > t.Threshold+t.Band {
			t.phase = model.PhaseDay
		}
	}
	return t.phase
}

// Probe answers the once-per-tick day/night question from a light sensor.
// A failed read keeps the last known phase.
type Probe struct {
	sensor  LightSensor
	tracker *Tracker
	last    model.DayPhase
}

func NewProbe(sensor LightSensor, tracker *Tracker) *Probe {
	return &Probe{sensor: sensor, tracker: tracker, last: model.PhaseDay}
}

func (p *Probe) DayPhase() model.DayPhase {
	level, err := p.sensor.ReadLightLevel()
	if err != nil {
		log.Warn().Err(err).Str("phase", string(p.last)).Msg("Light sensor read failed, keeping previous phase")
		return p.last
	}

	phase := p.tracker.Observe(level)
	if phase != p.last {
		log.Info().
			Int("light_level", level).
			Str("from", string(p.last)).
			Str("to", string(phase)).
			Msg("Day/night phase changed")
	}
	p.last = phase
	return phase
}
