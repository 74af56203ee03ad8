package sensor

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

const (
	// rejected readings needed before a new level can be accepted
	baselineSamples = 3
	// spread below which those readings count as a new level
	baselineStdDev = 0.5
)

// SpikeFilter rejects readings that jump further than MaxDelta from the
// last accepted value. A run of rejected readings that agree with each
// other is taken as a real change and accepted as the new baseline.
type SpikeFilter struct {
	Source

	temperature *history
	humidity    *history
}

// NewSpikeFilter wraps src. A zero delta disables filtering for that
// quantity.
func NewSpikeFilter(src Source, maxTempDelta, maxHumidityDelta float64) *SpikeFilter {
	return &SpikeFilter{
		Source:      src,
		temperature: &history{quantity: Temperature, maxDelta: maxTempDelta},
		humidity:    &history{quantity: Humidity, maxDelta: maxHumidityDelta},
	}
}

func (f *SpikeFilter) ReadTemperature() (float64, error) {
	v, err := f.Source.ReadTemperature()
	if err != nil {
		return v, err
	}
	return f.temperature.process(v)
}

func (f *SpikeFilter) ReadHumidity() (float64, error) {
	v, err := f.Source.ReadHumidity()
	if err != nil {
		return v, err
	}
	return f.humidity.process(v)
}

type history struct {
	quantity Quantity
	maxDelta float64

	lastGood float64
	hasGood  bool
	rejected []float64
}

func (h *history) process(v float64) (float64, error) {
	if h.maxDelta <= 0 || !h.hasGood {
		h.accept(v)
		return v, nil
	}

	delta := math.Abs(v - h.lastGood)
	if delta <= h.maxDelta {
		h.accept(v)
		return v, nil
	}

	h.rejected = append(h.rejected, v)
	if len(h.rejected) > baselineSamples {
		h.rejected = h.rejected[len(h.rejected)-baselineSamples:]
	}

	if len(h.rejected) == baselineSamples && stdDev(h.rejected) < baselineStdDev {
		log.Info().
			Str("quantity", string(h.quantity)).
			Float64("previous", h.lastGood).
			Float64("value", v).
			Msg("Stable new baseline detected, accepting reading")
		h.accept(v)
		return v, nil
	}

	log.Warn().
		Str("quantity", string(h.quantity)).
		Float64("value", v).
		Float64("last_good", h.lastGood).
		Float64("delta", delta).
		Msg("Reading rejected as anomalous")
	return math.NaN(), readError(h.quantity, fmt.Errorf("jumped %.2f from last good reading %.2f", delta, h.lastGood))
}

func (h *history) accept(v float64) {
	h.lastGood = v
	h.hasGood = true
	h.rejected = h.rejected[:0]
}

func stdDev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}
