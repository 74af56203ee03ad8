package config

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

type GPIO struct {
	// relays
	ACRelay           *model.GPIOPin `yaml:"ac_relay"`
	DehumidifierRelay *model.GPIOPin `yaml:"dehumidifier_relay"`
	HumidifierRelay   *model.GPIOPin `yaml:"humidifier_relay" optional:"true"`

	// status led
	RedLED   *model.GPIOPin `yaml:"red_led"`
	GreenLED *model.GPIOPin `yaml:"green_led"`
	BlueLED  *model.GPIOPin `yaml:"blue_led"`
}

func (g GPIO) clone() GPIO {
	cp := func(p *model.GPIOPin) *model.GPIOPin {
		if p == nil {
			return nil
		}
		c := *p
		return &c
	}
	return GPIO{
		ACRelay:           cp(g.ACRelay),
		DehumidifierRelay: cp(g.DehumidifierRelay),
		HumidifierRelay:   cp(g.HumidifierRelay),
		RedLED:            cp(g.RedLED),
		GreenLED:          cp(g.GreenLED),
		BlueLED:           cp(g.BlueLED),
	}
}

type Sensor struct {
	TemperaturePath string `yaml:"temperature_path"`
	HumidityPath    string `yaml:"humidity_path"`
	LightPath       string `yaml:"light_path"`
	ReadRetries     int    `yaml:"read_retries"`
	RetryDelayMS    int    `yaml:"retry_delay_ms"`

	// Spike rejection; 0 disables it for that quantity.
	MaxTempDelta     float64 `yaml:"max_temp_delta"`
	MaxHumidityDelta float64 `yaml:"max_humidity_delta"`
}

type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type Datadog struct {
	Enabled   bool     `yaml:"enabled"`
	AgentAddr string   `yaml:"agent_addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Config struct {
	ConfigFile string        `yaml:"-"`
	LogFile    string        `yaml:"-"`
	LogLevel   zerolog.Level `yaml:"-"`
	Console    bool          `yaml:"-"`
	SafeMode   bool          `yaml:"-"`
	Simulate   bool          `yaml:"-"`

	IdealTempDay   float64 `yaml:"ideal_temp_day"`
	IdealTempNight float64 `yaml:"ideal_temp_night"`
	IdealHumidity  float64 `yaml:"ideal_humidity"`
	HysteresisBand float64 `yaml:"hysteresis_band"`
	MaxReadErrors  uint    `yaml:"max_read_errors"`

	DayThreshold       int `yaml:"day_threshold"`
	DayNightHysteresis int `yaml:"day_night_hysteresis"`

	PollIntervalMS    int  `yaml:"poll_interval_ms"`
	SchedulerPassMS   int  `yaml:"scheduler_pass_ms"`
	HumidifierEnabled bool `yaml:"humidifier_enabled"`
	MinOnSeconds      int  `yaml:"min_on_seconds"`
	MinOffSeconds     int  `yaml:"min_off_seconds"`

	Sensor  Sensor  `yaml:"sensor"`
	GPIO    GPIO    `yaml:"gpio"`
	Serial  Serial  `yaml:"serial"`
	Datadog Datadog `yaml:"datadog"`

	BootScriptPath   string `yaml:"boot_script_path"`
	ServicePath      string `yaml:"service_path"`
	ControllerBinary string `yaml:"controller_binary"`

	// Raw holds the config file contents as read from disk.
	Raw string `yaml:"-"`
}

// Default mirrors the constants the enclosure shipped with.
func Default() *Config {
	return &Config{
		ConfigFile: "dnth.conf",
		LogFile:    "/var/log/dnth-controller.log",
		LogLevel:   zerolog.InfoLevel,

		IdealTempDay:   27.0,
		IdealTempNight: 22.0,
		IdealHumidity:  57.0,
		HysteresisBand: 1.0,
		MaxReadErrors:  5,

		DayThreshold: 100,

		PollIntervalMS:  3000,
		SchedulerPassMS: 100,

		Sensor: Sensor{
			TemperaturePath: "/sys/bus/iio/devices/iio:device0/in_temp_input",
			HumidityPath:    "/sys/bus/iio/devices/iio:device0/in_humidityrelative_input",
			LightPath:       "/sys/bus/iio/devices/iio:device1/in_voltage0_raw",
			ReadRetries:     2,
			RetryDelayMS:    250,
		},
		GPIO: GPIO{
			ACRelay:           &model.GPIOPin{Number: 17, ActiveHigh: true},
			DehumidifierRelay: &model.GPIOPin{Number: 27, ActiveHigh: true},
			RedLED:            &model.GPIOPin{Number: 5, ActiveHigh: true},
			GreenLED:          &model.GPIOPin{Number: 6, ActiveHigh: true},
			BlueLED:           &model.GPIOPin{Number: 13, ActiveHigh: true},
		},
		Serial: Serial{Baud: 9600},
		Datadog: Datadog{
			AgentAddr: "127.0.0.1:8125",
			Namespace: "dnth.",
		},

		BootScriptPath:   "/usr/local/bin/dnth-pins.sh",
		ServicePath:      "/etc/systemd/system/dnth-controller.service",
		ControllerBinary: "/usr/local/bin/dnth-controller",
	}
}

func Load() Config {
	cfg := Default()
	var configFile, logLevel string

	flag.StringVar(&configFile, "config-file", cfg.ConfigFile, "Path to controller config file")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Path to log file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.Console, "console", false, "Also write human readable logs to stderr")
	flag.BoolVar(&cfg.SafeMode, "safe-mode", false, "Disable all GPIO writes")
	flag.BoolVar(&cfg.Simulate, "simulate", false, "Use a simulated enclosure instead of the real sensors (implies safe mode)")
	flag.Parse()

	loaded, err := LoadFile(configFile, cfg)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}

	loaded.LogLevel = ParseLogLevel(logLevel)
	if loaded.Simulate {
		loaded.SafeMode = true
	}

	loaded.validate()
	return *loaded
}

// LoadFile overlays the YAML file at path onto base. A missing file leaves
// base untouched.
func LoadFile(path string, base *Config) (*Config, error) {
	cfg := *base
	cfg.GPIO = base.GPIO.clone()
	cfg.ConfigFile = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg.Raw = strings.TrimSpace(string(data))

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// older enclosures shipped a free-text dnth.conf that was never read
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		log.Warn().
			Str("path", path).
			Str("raw", cfg.Raw).
			Msg("Config file is not a key/value mapping, using defaults")
		return &cfg, nil
	}

	if err := doc.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.ensureDefaults()

	return &cfg, nil
}

func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) ensureDefaults() {
	def := Default()

	if cfg.PollIntervalMS == 0 {
		cfg.PollIntervalMS = def.PollIntervalMS
	}
	if cfg.SchedulerPassMS == 0 {
		cfg.SchedulerPassMS = def.SchedulerPassMS
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = def.Serial.Baud
	}
	if cfg.Sensor.RetryDelayMS == 0 {
		cfg.Sensor.RetryDelayMS = def.Sensor.RetryDelayMS
	}
}

// Setpoints returns the control targets carried by the config.
func (cfg *Config) Setpoints() model.Setpoints {
	return model.Setpoints{
		IdealTempDay:   cfg.IdealTempDay,
		IdealTempNight: cfg.IdealTempNight,
		IdealHumidity:  cfg.IdealHumidity,
		HysteresisBand: cfg.HysteresisBand,
		MaxReadErrors:  cfg.MaxReadErrors,
	}
}

func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalMS) * time.Millisecond
}

func (cfg *Config) SchedulerPass() time.Duration {
	return time.Duration(cfg.SchedulerPassMS) * time.Millisecond
}

func (cfg *Config) MinOn() time.Duration {
	return time.Duration(cfg.MinOnSeconds) * time.Second
}

func (cfg *Config) MinOff() time.Duration {
	return time.Duration(cfg.MinOffSeconds) * time.Second
}

// OutputPins returns every configured output keyed by its yaml name.
func (cfg *Config) OutputPins() map[string]model.GPIOPin {
	pins := map[string]model.GPIOPin{}

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.IsNil() {
			continue
		}
		pins[t.Field(i).Tag.Get("yaml")] = field.Elem().Interface().(model.GPIOPin)
	}
	return pins
}

func (cfg *Config) validate() {
	var (
		problems      []string
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("yaml")

		if field.IsNil() {
			if t.Field(i).Tag.Get("optional") != "true" {
				missingFields = append(missingFields, "gpio."+fieldName)
			}
			continue
		}

		pin := field.Elem().FieldByName("Number").Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	if cfg.HumidifierEnabled && cfg.GPIO.HumidifierRelay == nil {
		missingFields = append(missingFields, "gpio.humidifier_relay")
	}

	if cfg.HysteresisBand <= 0 {
		problems = append(problems, fmt.Sprintf("hysteresis_band must be positive (got %.2f)", cfg.HysteresisBand))
	}
	if cfg.IdealTempDay < -40 || cfg.IdealTempDay > 80 || cfg.IdealTempNight < -40 || cfg.IdealTempNight > 80 {
		problems = append(problems, "temperature setpoints must be within -40..80")
	}
	if cfg.IdealHumidity <= 0 || cfg.IdealHumidity >= 100 {
		problems = append(problems, fmt.Sprintf("ideal_humidity must be within 0..100 (got %.2f)", cfg.IdealHumidity))
	}
	if cfg.PollIntervalMS <= 0 || cfg.SchedulerPassMS <= 0 {
		problems = append(problems, "poll_interval_ms and scheduler_pass_ms must be positive")
	}
	if cfg.DayNightHysteresis < 0 {
		problems = append(problems, "day_night_hysteresis must not be negative")
	}
	if cfg.Sensor.MaxTempDelta < 0 || cfg.Sensor.MaxHumidityDelta < 0 {
		problems = append(problems, "sensor.max_temp_delta and sensor.max_humidity_delta must not be negative")
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, "; "))
	}
}
