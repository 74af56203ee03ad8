package controller

import "github.com/thatsimonsguy/dnth-controller/internal/model"

// DecideCooling applies the hysteresis band around target: above the band
// the AC runs, below it the AC stops, inside it nothing changes.
func DecideCooling(temp, target, band float64) model.Command {
	switch {
	case temp > target+band:
		return model.On
	case temp < target-band:
		return model.Off
	default:
		return model.NoChange
	}
}

// DecideDehumidify has the same shape as DecideCooling.
func DecideDehumidify(humidity, ideal, band float64) model.Command {
	return DecideCooling(humidity, ideal, band)
}

// DecideHumidify is the mirror image: it runs below the band.
func DecideHumidify(humidity, ideal, band float64) model.Command {
	switch {
	case humidity < ideal-band:
		return model.On
	case humidity > ideal+band:
		return model.Off
	default:
		return model.NoChange
	}
}
