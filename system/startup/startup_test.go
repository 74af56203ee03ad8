package startup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
	"github.com/thatsimonsguy/dnth-controller/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.BootScriptPath = filepath.Join(dir, "dnth-pins.sh")
	cfg.ServicePath = filepath.Join(dir, "dnth-controller.service")
	cfg.ConfigFile = filepath.Join(dir, "dnth.conf")
	return cfg
}

func TestWriteStartupScript(t *testing.T) {
	cfg := testConfig(t)
	cfg.GPIO.DehumidifierRelay = &model.GPIOPin{Number: 27, ActiveHigh: false}

	require.NoError(t, WriteStartupScript(cfg))

	data, err := os.ReadFile(cfg.BootScriptPath)
	require.NoError(t, err)
	script := string(data)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "# ac_relay\npinctrl set 17 op pn dl\n")
	assert.Contains(t, script, "# dehumidifier_relay\npinctrl set 27 op pn dh\n")
	assert.Equal(t, 5, strings.Count(script, "pinctrl set"))

	// pins are written in ascending order
	assert.Less(t, strings.Index(script, "set 5 "), strings.Index(script, "set 17 "))

	info, err := os.Stat(cfg.BootScriptPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestWriteStartupScript_BadPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.BootScriptPath = filepath.Join(t.TempDir(), "missing", "dnth-pins.sh")

	assert.Error(t, WriteStartupScript(cfg))
}

func TestInstallService(t *testing.T) {
	cfg := testConfig(t)

	require.NoError(t, InstallService(cfg))

	data, err := os.ReadFile(cfg.ServicePath)
	require.NoError(t, err)
	unit := string(data)

	assert.Contains(t, unit, "ExecStartPre=/bin/bash "+cfg.BootScriptPath)
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/dnth-controller -config-file "+cfg.ConfigFile+" -log-file "+cfg.LogFile+"\n")
	assert.Contains(t, unit, "Restart=on-failure")
}

func TestInstallService_CustomBinary(t *testing.T) {
	cfg := testConfig(t)
	cfg.ControllerBinary = "/opt/dnth/bin/dnth-controller"

	require.NoError(t, InstallService(cfg))

	data, err := os.ReadFile(cfg.ServicePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ExecStart=/opt/dnth/bin/dnth-controller -config-file ")
}

func TestInstallService_NoBinary(t *testing.T) {
	cfg := testConfig(t)
	cfg.ControllerBinary = ""

	assert.Error(t, InstallService(cfg))
	_, err := os.Stat(cfg.ServicePath)
	assert.True(t, os.IsNotExist(err))
}

func mockRunScript(t *testing.T, result error) *[]string {
	t.Helper()
	var ran []string
	orig := RunScript
	t.Cleanup(func() { RunScript = orig })
	RunScript = func(path string) error {
		ran = append(ran, path)
		return result
	}
	return &ran
}

func TestRunStartupScript(t *testing.T) {
	cfg := testConfig(t)
	ran := mockRunScript(t, nil)

	require.NoError(t, WriteStartupScript(cfg))
	require.NoError(t, RunStartupScript(cfg))

	assert.Equal(t, []string{cfg.BootScriptPath}, *ran)
}

func TestRunStartupScript_MissingScript(t *testing.T) {
	cfg := testConfig(t)
	ran := mockRunScript(t, nil)

	assert.Error(t, RunStartupScript(cfg))
	assert.Empty(t, *ran)
}

func TestRunStartupScript_ScriptFails(t *testing.T) {
	cfg := testConfig(t)
	mockRunScript(t, errors.New("exit status 1"))

	require.NoError(t, WriteStartupScript(cfg))
	err := RunStartupScript(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.BootScriptPath)
}
