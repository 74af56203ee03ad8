package report

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
)

// SerialReporter writes DATA lines to a serial port, the same way the
// enclosure always has.
type SerialReporter struct {
	*LineReporter
	port serial.Port
}

var openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

func OpenSerial(cfg config.Serial) (*SerialReporter, error) {
	port, err := openPort(cfg.Port, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	log.Info().
		Str("port", cfg.Port).
		Int("baud", cfg.Baud).
		Msg("Serial status output enabled")

	return &SerialReporter{LineReporter: NewLineReporter(port), port: port}, nil
}

func (r *SerialReporter) Close() error {
	return r.port.Close()
}
