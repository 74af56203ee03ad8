package controller

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
	"github.com/thatsimonsguy/dnth-controller/internal/report"
	"github.com/thatsimonsguy/dnth-controller/internal/sensor"
)

type RelayBank interface {
	SetAC(on bool) error
	SetDehumidifier(on bool) error
	SetHumidifier(on bool) error
}

type DayPhaseProbe interface {
	DayPhase() model.DayPhase
}

// StatusIndicator is told about faults and the per-cycle status. It must
// not block.
type StatusIndicator interface {
	Fault(now time.Time)
	Status(now time.Time, acOn, dehumidifierOn bool)
}

type Options struct {
	Setpoints         model.Setpoints
	Relays            RelayBank
	HumidifierEnabled bool
	MinOn             time.Duration
	MinOff            time.Duration
	Reporter          report.Reporter
	Indicator         StatusIndicator
}

// Loop owns the device state and runs one evaluation cycle per Tick.
type Loop struct {
	setpoints model.Setpoints
	state     model.DeviceState

	ac           *Actuator
	dehumidifier *Actuator
	humidifier   *Actuator

	reporter  report.Reporter
	indicator StatusIndicator
	failSafe  bool
}

func New(opts Options) *Loop {
	l := &Loop{
		setpoints: opts.Setpoints,
		state:     model.NewDeviceState(),
		ac:        NewActuator(model.ChannelAC, opts.MinOn, opts.MinOff, opts.Relays.SetAC),
		// the dehumidifier has no compressor protection of its own to respect
		dehumidifier: NewActuator(model.ChannelDehumidifier, 0, 0, opts.Relays.SetDehumidifier),
		reporter:     opts.Reporter,
		indicator:    opts.Indicator,
	}
	if opts.HumidifierEnabled {
		l.humidifier = NewActuator(model.ChannelHumidifier, 0, 0, opts.Relays.SetHumidifier)
	}
	return l
}

func (l *Loop) State() model.DeviceState {
	return l.state
}

func (l *Loop) FailSafe() bool {
	return l.failSafe
}

// Tick acquires readings, decides and applies actuation, and reports.
// Sensor failures are handled here and never returned.
func (l *Loop) Tick(now time.Time, src sensor.Source, probe DayPhaseProbe) model.Commands {
	phase := probe.DayPhase()
	target := l.setpoints.TargetTemp(phase)

	cmds := model.Commands{
		At:         now,
		Phase:      phase,
		TargetTemp: target,
		Written:    map[model.Channel]bool{},
	}

	l.controlTemperature(now, src, target, &cmds)
	l.controlHumidity(now, src, &cmds)
	l.report(now, phase, target)

	return cmds
}

func (l *Loop) controlTemperature(now time.Time, src sensor.Source, target float64, cmds *model.Commands) {
	temp, err := src.ReadTemperature()
	if err != nil {
		l.fault(now, model.ChannelAC, err, cmds)
		l.state.ConsecutiveReadErrors++

		if l.state.ConsecutiveReadErrors > l.setpoints.MaxReadErrors {
			if !l.failSafe {
				log.Error().
					Uint("read_errors", l.state.ConsecutiveReadErrors).
					Uint("max_read_errors", l.setpoints.MaxReadErrors).
					Msg("Temperature sensor failing persistently, forcing AC on")
			}
			l.failSafe = true
			cmds.FailSafe = true
			cmds.AC = model.On
			written, err := l.ac.Force(true, now)
			l.record(l.ac, model.On, written, err, cmds)
		}
		return
	}

	if l.failSafe {
		log.Info().Float64("temp", temp).Msg("Temperature sensor recovered, leaving fail-safe")
		l.failSafe = false
	}
	l.state.ConsecutiveReadErrors = 0
	l.state.LastTemperature = temp

	log.Debug().
		Float64("temp", temp).
		Float64("target", target).
		Float32("offset", float32(temp-target)).
		Msg("Temperature reading")

	cmds.AC = DecideCooling(temp, target, l.setpoints.HysteresisBand)
	l.apply(l.ac, cmds.AC, now, cmds)
}

// Humidity failures are signalled but never escalate.
func (l *Loop) controlHumidity(now time.Time, src sensor.Source, cmds *model.Commands) {
	humidity, err := src.ReadHumidity()
	if err != nil {
		l.fault(now, model.ChannelDehumidifier, err, cmds)
		return
	}
	l.state.LastHumidity = humidity

	ideal := l.setpoints.IdealHumidity
	log.Debug().
		Float64("humidity", humidity).
		Float64("target", ideal).
		Float32("offset", float32(humidity-ideal)).
		Msg("Humidity reading")

	cmds.Dehumidifier = DecideDehumidify(humidity, ideal, l.setpoints.HysteresisBand)
	l.apply(l.dehumidifier, cmds.Dehumidifier, now, cmds)

	if l.humidifier != nil {
		cmds.Humidifier = DecideHumidify(humidity, ideal, l.setpoints.HysteresisBand)
		l.apply(l.humidifier, cmds.Humidifier, now, cmds)
	}
}

func (l *Loop) apply(a *Actuator, cmd model.Command, now time.Time, cmds *model.Commands) {
	written, err := a.Apply(cmd, now)
	l.record(a, cmd, written, err, cmds)
}

func (l *Loop) record(a *Actuator, cmd model.Command, written bool, err error, cmds *model.Commands) {
	if err != nil {
		log.Error().Err(err).Str("device", string(a.Channel)).Str("command", cmd.String()).Msg("Relay write failed, will retry next cycle")
	}
	cmds.Written[a.Channel] = written

	switch a.Channel {
	case model.ChannelAC:
		l.state.ACOn = a.IsOn()
	case model.ChannelDehumidifier:
		l.state.DehumidifierOn = a.IsOn()
	case model.ChannelHumidifier:
		l.state.HumidifierOn = a.IsOn()
	}
}

func (l *Loop) fault(now time.Time, channel model.Channel, err error, cmds *model.Commands) {
	log.Warn().Err(err).Str("channel", string(channel)).Msg("Sensor read failed")
	cmds.Faults = append(cmds.Faults, model.Fault{Channel: channel, Err: err})
	if l.indicator != nil {
		l.indicator.Fault(now)
	}
}

func (l *Loop) report(now time.Time, phase model.DayPhase, target float64) {
	if l.indicator != nil {
		l.indicator.Status(now, l.state.ACOn, l.state.DehumidifierOn)
	}
	if l.reporter == nil {
		return
	}
	l.reporter.Report(model.Status{
		At:             now,
		Phase:          phase,
		TargetTemp:     target,
		IdealHumidity:  l.setpoints.IdealHumidity,
		Temperature:    l.state.LastTemperature,
		Humidity:       l.state.LastHumidity,
		ACOn:           l.state.ACOn,
		DehumidifierOn: l.state.DehumidifierOn,
		HumidifierOn:   l.state.HumidifierOn,
		ReadErrors:     l.state.ConsecutiveReadErrors,
	})
}
