package gpio

import (
	"fmt"

	"github.com/thatsimonsguy/dnth-controller/internal/config"
)

// RelayBank drives the equipment relays. It carries no control logic: every
// call results in a pin write.
type RelayBank struct {
	ac           Output
	dehumidifier Output
	humidifier   *Output

	cfg *config.Config
}

func NewRelayBank(cfg *config.Config) *RelayBank {
	bank := &RelayBank{
		ac:           Output{Name: "ac_relay", Pin: *cfg.GPIO.ACRelay},
		dehumidifier: Output{Name: "dehumidifier_relay", Pin: *cfg.GPIO.DehumidifierRelay},
		cfg:          cfg,
	}
	if cfg.GPIO.HumidifierRelay != nil {
		bank.humidifier = &Output{Name: "humidifier_relay", Pin: *cfg.GPIO.HumidifierRelay}
	}
	return bank
}

func (b *RelayBank) SetAC(on bool) error {
	return b.ac.Set(on)
}

func (b *RelayBank) SetDehumidifier(on bool) error {
	return b.dehumidifier.Set(on)
}

func (b *RelayBank) SetHumidifier(on bool) error {
	if b.humidifier == nil {
		return fmt.Errorf("no humidifier relay configured")
	}
	return b.humidifier.Set(on)
}

// AllOff drives every configured output inactive, the LEDs included.
func (b *RelayBank) AllOff() error {
	return AllOff(b.cfg)
}
