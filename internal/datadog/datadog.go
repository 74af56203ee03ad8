package datadog

import (
	"math"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

// Client is the subset of the statsd client the controller uses.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Close() error
}

var dogstatsd Client

func InitMetrics(cfg config.Datadog) {
	if !cfg.Enabled {
		log.Debug().Msg("Datadog metrics disabled")
		return
	}

	client, err := statsd.New(cfg.AgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	client.Namespace = cfg.Namespace
	client.Tags = cfg.Tags
	dogstatsd = client

	log.Info().
		Str("addr", cfg.AgentAddr).
		Str("namespace", cfg.Namespace).
		Strs("tags", cfg.Tags).
		Msg("Datadog metrics initialized")
}

func Close() {
	if dogstatsd != nil {
		if err := dogstatsd.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close DogStatsD client")
		}
		dogstatsd = nil
	}
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Gauge(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

// Reporter publishes each cycle's status as gauges.
type Reporter struct{}

func (Reporter) Report(s model.Status) {
	phase := "phase:" + string(s.Phase)

	if !math.IsNaN(s.Temperature) {
		Gauge("enclosure.temperature", s.Temperature, phase)
	}
	if !math.IsNaN(s.Humidity) {
		Gauge("enclosure.humidity", s.Humidity, phase)
	}
	Gauge("enclosure.target_temperature", s.TargetTemp, phase)
	Gauge("enclosure.read_errors", float64(s.ReadErrors))
	Gauge("relay.active", boolGauge(s.ACOn), "device:ac")
	Gauge("relay.active", boolGauge(s.DehumidifierOn), "device:dehumidifier")
	Gauge("relay.active", boolGauge(s.HumidifierOn), "device:humidifier")
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
