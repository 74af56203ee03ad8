package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

// Reporter receives the status report emitted once per control cycle.
type Reporter interface {
	Report(status model.Status)
}

// Format renders the serial wire format consumed by existing tooling:
// DATA:<phase>:<target temp>:<ideal humidity>:<temp>:<humidity>:<ac 0|1>:<dehumidifier 0|1>
func Format(s model.Status) string {
	return strings.Join([]string{
		"DATA",
		phaseLabel(s.Phase),
		formatFloat(s.TargetTemp),
		formatFloat(s.IdealHumidity),
		formatFloat(s.Temperature),
		formatFloat(s.Humidity),
		formatBool(s.ACOn),
		formatBool(s.DehumidifierOn),
	}, ":")
}

func phaseLabel(p model.DayPhase) string {
	if p == model.PhaseDay {
		return "DAY"
	}
	return "NIGHT"
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// LogReporter writes the status as a structured log line.
type LogReporter struct{}

func (LogReporter) Report(s model.Status) {
	log.Info().
		Str("phase", string(s.Phase)).
		Float64("target_temp", s.TargetTemp).
		Float64("ideal_humidity", s.IdealHumidity).
		Float64("temp", s.Temperature).
		Float64("humidity", s.Humidity).
		Bool("ac_on", s.ACOn).
		Bool("dehumidifier_on", s.DehumidifierOn).
		Bool("humidifier_on", s.HumidifierOn).
		Uint("read_errors", s.ReadErrors).
		Msg("Enclosure status")
}

// LineReporter writes one DATA line per report to w.
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Report(s model.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.w, Format(s)+"\n"); err != nil {
		log.Warn().Err(err).Msg("Failed to write status line")
	}
}

// Multi fans a report out to several reporters.
type Multi []Reporter

func (m Multi) Report(s model.Status) {
	for _, r := range m {
		r.Report(s)
	}
}
