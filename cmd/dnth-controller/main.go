package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/controller"
	"github.com/thatsimonsguy/dnth-controller/internal/datadog"
	"github.com/thatsimonsguy/dnth-controller/internal/daynight"
	"github.com/thatsimonsguy/dnth-controller/internal/gpio"
	"github.com/thatsimonsguy/dnth-controller/internal/indicator"
	"github.com/thatsimonsguy/dnth-controller/internal/logging"
	"github.com/thatsimonsguy/dnth-controller/internal/report"
	"github.com/thatsimonsguy/dnth-controller/internal/sensor"
	"github.com/thatsimonsguy/dnth-controller/system/shutdown"
	"github.com/thatsimonsguy/dnth-controller/system/startup"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile, cfg.Console)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Float64("ideal_temp_day", cfg.IdealTempDay).
		Float64("ideal_temp_night", cfg.IdealTempNight).
		Float64("ideal_humidity", cfg.IdealHumidity).
		Msg("Starting enclosure controller")
	log.Debug().Str("raw", cfg.Raw).Msg("Config file contents")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED, GPIO writes are disabled system-wide")
	}

	bank := gpio.NewRelayBank(&cfg)
	if err := bank.AllOff(); err != nil {
		log.Warn().Err(err).Msg("Failed to drive outputs off, falling back to the boot script")
		if scriptErr := startup.RunStartupScript(&cfg); scriptErr != nil {
			shutdown.ShutdownWithError(bank, errors.Join(err, scriptErr), "Failed to drive outputs off at startup")
		}
	}
	if err := gpio.ValidateStartupPins(&cfg); err != nil {
		log.Fatal().Err(err).Msg("Refusing to enable relay board due to unsafe pin states")
	}

	var (
		source sensor.Source
		light  daynight.LightSensor
		relays controller.RelayBank = bank
	)
	if cfg.Simulate {
		sim := sensor.NewSimulator(nil)
		source, light, relays = sim, sim, sim
		log.Warn().Msg("Simulated enclosure in use, readings are synthetic")
	} else {
		source = sensor.NewSpikeFilter(sensor.NewSysfsSource(cfg.Sensor), cfg.Sensor.MaxTempDelta, cfg.Sensor.MaxHumidityDelta)
		light = sensor.NewSysfsLight(cfg.Sensor.LightPath)
	}

	leds := indicator.New(
		gpio.Output{Name: "red_led", Pin: *cfg.GPIO.RedLED},
		gpio.Output{Name: "green_led", Pin: *cfg.GPIO.GreenLED},
		gpio.Output{Name: "blue_led", Pin: *cfg.GPIO.BlueLED},
	)

	reporters := report.Multi{report.LogReporter{}}
	var serialOut *report.SerialReporter
	if cfg.Serial.Port != "" {
		var err error
		serialOut, err = report.OpenSerial(cfg.Serial)
		if err != nil {
			log.Warn().Err(err).Msg("Serial status output unavailable, continuing without it")
		} else {
			reporters = append(reporters, serialOut)
		}
	}
	if cfg.Datadog.Enabled {
		datadog.InitMetrics(cfg.Datadog)
		reporters = append(reporters, datadog.Reporter{})
	}

	loop := controller.New(controller.Options{
		Setpoints:         cfg.Setpoints(),
		Relays:            relays,
		HumidifierEnabled: cfg.HumidifierEnabled,
		MinOn:             cfg.MinOn(),
		MinOff:            cfg.MinOff(),
		Reporter:          reporters,
		Indicator:         leds,
	})

	sched := &controller.Scheduler{
		Loop:      loop,
		Source:    source,
		Probe:     daynight.NewProbe(light, daynight.NewTracker(cfg.DayThreshold, cfg.DayNightHysteresis)),
		Indicator: leds,
		Interval:  cfg.PollInterval(),
		Pass:      cfg.SchedulerPass(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	sched.Run(ctx)
	stop()

	log.Info().Msg("Shutting down enclosure controller")
	if serialOut != nil {
		if err := serialOut.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close serial port")
		}
	}
	datadog.Close()
	shutdown.Shutdown(bank, 0)
}
