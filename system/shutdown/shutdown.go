package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"
)

var ExitFunc = os.Exit

// Safer drives every output to its inactive level.
type Safer interface {
	AllOff() error
}

// Shutdown leaves the relays open and exits. Outputs that fail to switch
// off are logged; the exit still happens.
func Shutdown(outputs Safer, code int) {
	if err := outputs.AllOff(); err != nil {
		log.Error().Err(err).Msg("Failed to drive all outputs off during shutdown")
	} else {
		log.Info().Msg("All outputs deactivated")
	}
	ExitFunc(code)
}

func ShutdownWithError(outputs Safer, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(outputs, 1)
}
