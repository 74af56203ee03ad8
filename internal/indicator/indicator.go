package indicator

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	FaultDuration  = 3 * time.Second
	BlinkPeriod    = time.Second
	StatusDuration = 500 * time.Millisecond
)

// Switch is a single LED.
type Switch interface {
	Set(on bool) error
}

// Indicator drives the RGB status LED without ever blocking. Fault and
// Status only open timed windows; Update, called on every scheduler pass,
// turns those windows into LED levels.
type Indicator struct {
	red, green, blue Switch

	faultStart  time.Time
	faultUntil  time.Time
	statusUntil time.Time

	acOn           bool
	dehumidifierOn bool

	levels  [3]bool
	written bool
}

func New(red, green, blue Switch) *Indicator {
	return &Indicator{red: red, green: green, blue: blue}
}

// Fault starts, or extends, the red blink window.
func (i *Indicator) Fault(now time.Time) {
	if !now.Before(i.faultUntil) {
		i.faultStart = now
	}
	i.faultUntil = now.Add(FaultDuration)
}

// Status flashes the equipment colours once: green for the AC, magenta for
// the dehumidifier.
func (i *Indicator) Status(now time.Time, acOn, dehumidifierOn bool) {
	i.acOn = acOn
	i.dehumidifierOn = dehumidifierOn
	i.statusUntil = now.Add(StatusDuration)
}

func (i *Indicator) Faulted(now time.Time) bool {
	return now.Before(i.faultUntil)
}

func (i *Indicator) Update(now time.Time) {
	var want [3]bool

	if now.Before(i.faultUntil) && now.Sub(i.faultStart)%BlinkPeriod < BlinkPeriod/2 {
		want[0] = true
	}
	if now.Before(i.statusUntil) {
		if i.acOn {
			want[1] = true
		}
		if i.dehumidifierOn {
			want[0] = true
			want[2] = true
		}
	}

	for idx, sw := range []Switch{i.red, i.green, i.blue} {
		if i.written && i.levels[idx] == want[idx] {
			continue
		}
		if err := sw.Set(want[idx]); err != nil {
			log.Warn().Err(err).Int("led", idx).Msg("Failed to drive status LED")
			continue
		}
		i.levels[idx] = want[idx]
	}
	i.written = true
}

// Levels reports the last written red, green and blue levels.
func (i *Indicator) Levels() (red, green, blue bool) {
	return i.levels[0], i.levels[1], i.levels[2]
}
