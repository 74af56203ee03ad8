package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/daynight"
	"github.com/thatsimonsguy/dnth-controller/internal/gpio"
	"github.com/thatsimonsguy/dnth-controller/internal/pinctrl"
	"github.com/thatsimonsguy/dnth-controller/internal/sensor"
	"github.com/thatsimonsguy/dnth-controller/system/startup"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var configFile, command, relay string
	var on bool
	var level int
	flag.StringVar(&configFile, "config-file", "dnth.conf", "Path to controller config file")
	flag.StringVar(&command, "cmd", "", "Command to run: pins, read-sensors, set-relay, classify, write-boot-script, run-boot-script, install-service")
	flag.StringVar(&relay, "relay", "", "Relay for set-relay: ac, dehumidifier, humidifier")
	flag.BoolVar(&on, "on", false, "Drive the relay on (set-relay)")
	flag.IntVar(&level, "level", -1, "Light level to classify; reads the light sensor when omitted")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of dnth-debug:")
		fmt.Println("  -config-file string\tPath to controller config file (default 'dnth.conf')")
		fmt.Println("  -cmd string\tCommand to run: pins, read-sensors, set-relay, classify, write-boot-script, run-boot-script, install-service")
		fmt.Println("  -relay string\tRelay for set-relay: ac, dehumidifier, humidifier")
		fmt.Println("  -on\tDrive the relay on (set-relay)")
		fmt.Println("  -level int\tLight level to classify")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	cfg, err := config.LoadFile(configFile, config.Default())
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ConfigFile = configFile

	switch command {
	case "pins":
		err = printPins(cfg)
	case "read-sensors":
		readSensors(cfg)
	case "set-relay":
		err = setRelay(cfg, relay, on)
	case "classify":
		err = classify(cfg, level)
	case "write-boot-script":
		err = startup.WriteStartupScript(cfg)
	case "run-boot-script":
		err = startup.RunStartupScript(cfg)
	case "install-service":
		err = startup.InstallService(cfg)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func printPins(cfg *config.Config) error {
	for _, o := range gpio.Outputs(cfg) {
		st, err := pinctrl.ReadPin(o.Pin.Number)
		if err != nil {
			fmt.Printf("%-20s GPIO%-3d %v\n", o.Name, o.Pin.Number, err)
			continue
		}
		fmt.Printf("%-20s GPIO%-3d mode=%s pull=%s drive=%s level=%s active_high=%t\n",
			o.Name, o.Pin.Number, st.Mode, st.Pull, st.Drive, st.Level, o.Pin.ActiveHigh)
	}
	return nil
}

// Temperature and humidity are read independently, as the controller does.
func readSensors(cfg *config.Config) {
	src := sensor.NewSysfsSource(cfg.Sensor)
	if t, err := src.ReadTemperature(); err != nil {
		fmt.Printf("temperature: error: %v\n", err)
	} else {
		fmt.Printf("temperature: %.2f C\n", t)
	}
	if h, err := src.ReadHumidity(); err != nil {
		fmt.Printf("humidity: error: %v\n", err)
	} else {
		fmt.Printf("humidity: %.2f %%\n", h)
	}
	if l, err := sensor.NewSysfsLight(cfg.Sensor.LightPath).ReadLightLevel(); err != nil {
		fmt.Printf("light: error: %v\n", err)
	} else {
		fmt.Printf("light: %d (%s)\n", l, daynight.Classify(l, cfg.DayThreshold))
	}
}

func setRelay(cfg *config.Config, relay string, on bool) error {
	bank := gpio.NewRelayBank(cfg)
	switch relay {
	case "ac":
		return bank.SetAC(on)
	case "dehumidifier":
		return bank.SetDehumidifier(on)
	case "humidifier":
		return bank.SetHumidifier(on)
	default:
		return fmt.Errorf("unknown relay %q", relay)
	}
}

func classify(cfg *config.Config, level int) error {
	if level < 0 {
		var err error
		level, err = sensor.NewSysfsLight(cfg.Sensor.LightPath).ReadLightLevel()
		if err != nil {
			return err
		}
	}
	fmt.Printf("light level %d with threshold %d: %s\n", level, cfg.DayThreshold, daynight.Classify(level, cfg.DayThreshold))
	return nil
}
