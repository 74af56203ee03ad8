package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/sensor"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Updater advances time-based outputs such as the LED blink between cycles.
type Updater interface {
	Update(now time.Time)
}

// Scheduler runs a control cycle every Interval and refreshes the
// indicator every Pass, so LED timing never waits on the cycle cadence.
type Scheduler struct {
	Loop      *Loop
	Source    sensor.Source
	Probe     DayPhaseProbe
	Indicator Updater
	Clock     Clock
	Interval  time.Duration
	Pass      time.Duration

	lastTick time.Time
}

// RunPass performs one scheduling pass: a control cycle if one is due,
// then an indicator refresh. It reports whether a cycle ran.
func (s *Scheduler) RunPass(now time.Time) bool {
	ran := false
	if s.lastTick.IsZero() || now.Sub(s.lastTick) >= s.Interval {
		s.Loop.Tick(now, s.Source, s.Probe)
		s.lastTick = now
		ran = true
	}
	if s.Indicator != nil {
		s.Indicator.Update(now)
	}
	return ran
}

func (s *Scheduler) Run(ctx context.Context) {
	clock := s.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	log.Info().
		Dur("interval", s.Interval).
		Dur("pass", s.Pass).
		Msg("Control loop starting")

	ticker := time.NewTicker(s.Pass)
	defer ticker.Stop()

	s.RunPass(clock.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Control loop stopping")
			return
		case <-ticker.C:
			s.RunPass(clock.Now())
		}
	}
}
