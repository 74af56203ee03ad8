package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

type countingUpdater struct {
	updates []time.Time
}

func (c *countingUpdater) Update(now time.Time) { c.updates = append(c.updates, now) }

func TestScheduler_RunPass(t *testing.T) {
	relays := newFakeRelays()
	l, _, rep := newTestLoop(relays)
	upd := &countingUpdater{}
	s := &Scheduler{
		Loop:      l,
		Source:    &scriptedSource{temps: []reading{ok(27)}, humids: []reading{ok(57)}},
		Probe:     fixedPhase(model.PhaseDay),
		Indicator: upd,
		Interval:  3 * time.Second,
		Pass:      100 * time.Millisecond,
	}

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var ran []bool
	for _, offset := range []time.Duration{0, 100 * time.Millisecond, 2900 * time.Millisecond, 3 * time.Second, 3100 * time.Millisecond, 6 * time.Second} {
		ran = append(ran, s.RunPass(start.Add(offset)))
	}

	assert.Equal(t, []bool{true, false, false, true, false, true}, ran)
	assert.Len(t, rep.reports, 3)
	assert.Len(t, upd.updates, 6)
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	relays := newFakeRelays()
	l, _, rep := newTestLoop(relays)
	s := &Scheduler{
		Loop:     l,
		Source:   &scriptedSource{temps: []reading{ok(27)}, humids: []reading{ok(57)}},
		Probe:    fixedPhase(model.PhaseDay),
		Clock:    &stepClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		Interval: time.Hour,
		Pass:     time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	// the first cycle runs immediately, the hour-long interval blocks the rest
	assert.Len(t, rep.reports, 1)
}
