package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/gpio"
	"github.com/thatsimonsguy/dnth-controller/internal/pinctrl"
)

// RunScript executes a boot script. Swapped out in tests.
var RunScript = func(path string) error {
	cmd := exec.Command("/bin/bash", path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// WriteStartupScript writes a bash script that drives every configured
// output inactive, so relays stay open between power-up and daemon start.
func WriteStartupScript(cfg *config.Config) error {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Enclosure GPIO pin configuration at boot", "")

	for _, o := range gpio.Outputs(cfg) {
		lines = append(lines, fmt.Sprintf("# %s", o.Name))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", o.Pin.Number, pinctrl.DriveFlag(!o.Pin.ActiveHigh)))
		lines = append(lines, "")
	}

	contents := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(cfg.BootScriptPath, []byte(contents), 0755); err != nil {
		return fmt.Errorf("failed to write boot script %s: %w", cfg.BootScriptPath, err)
	}
	return nil
}

// RunStartupScript runs the boot script written by WriteStartupScript.
func RunStartupScript(cfg *config.Config) error {
	if _, err := os.Stat(cfg.BootScriptPath); err != nil {
		return fmt.Errorf("boot script unavailable: %w", err)
	}
	if err := RunScript(cfg.BootScriptPath); err != nil {
		return fmt.Errorf("failed to run boot script %s: %w", cfg.BootScriptPath, err)
	}
	return nil
}

// InstallService writes the systemd unit for the controller daemon. The
// boot script runs first so the pins are safe before the daemon starts.
func InstallService(cfg *config.Config) error {
	if cfg.ControllerBinary == "" {
		return fmt.Errorf("controller_binary is not configured")
	}

	configFile, err := filepath.Abs(cfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to resolve config file path: %w", err)
	}

	unit := fmt.Sprintf(`[Unit]
Description=Enclosure day/night temperature and humidity controller
After=multi-user.target

[Service]
Type=simple
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStartPre=/bin/bash %s
ExecStart=%s -config-file %s -log-file %s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, cfg.BootScriptPath, cfg.ControllerBinary, configFile, cfg.LogFile)

	if err := os.WriteFile(cfg.ServicePath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write service unit %s: %w", cfg.ServicePath, err)
	}
	return nil
}
