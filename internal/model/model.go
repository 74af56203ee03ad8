package model

import (
	"math"
	"time"
)

type DayPhase string

const (
	PhaseDay   DayPhase = "day"
	PhaseNight DayPhase = "night"
)

// Command is the per-channel outcome of one control cycle.
type Command int

const (
	NoChange Command = iota
	On
	Off
)

func (c Command) String() string {
	switch c {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "no_change"
	}
}

type Setpoints struct {
	IdealTempDay   float64
	IdealTempNight float64
	IdealHumidity  float64
	HysteresisBand float64
	MaxReadErrors  uint
}

// TargetTemp returns the temperature setpoint for the given phase.
func (s Setpoints) TargetTemp(phase DayPhase) float64 {
	if phase == PhaseDay {
		return s.IdealTempDay
	}
	return s.IdealTempNight
}

// DeviceState is owned by the control loop for the life of the process.
type DeviceState struct {
	ACOn                  bool
	DehumidifierOn        bool
	HumidifierOn          bool
	LastTemperature       float64
	LastHumidity          float64
	ConsecutiveReadErrors uint
}

// NewDeviceState returns the startup state: every actuator off, no readings yet.
func NewDeviceState() DeviceState {
	return DeviceState{
		LastTemperature: math.NaN(),
		LastHumidity:    math.NaN(),
	}
}

type Channel string

const (
	ChannelAC           Channel = "ac"
	ChannelDehumidifier Channel = "dehumidifier"
	ChannelHumidifier   Channel = "humidifier"
)

type Fault struct {
	Channel Channel
	Err     error
}

// Commands describes everything one tick decided and did.
type Commands struct {
	At           time.Time
	Phase        DayPhase
	TargetTemp   float64
	AC           Command
	Dehumidifier Command
	Humidifier   Command
	Written      map[Channel]bool
	Faults       []Fault
	FailSafe     bool
}

// Status is the once-per-cycle report handed to reporters.
type Status struct {
	At             time.Time
	Phase          DayPhase
	TargetTemp     float64
	IdealHumidity  float64
	Temperature    float64
	Humidity       float64
	ACOn           bool
	DehumidifierOn bool
	HumidifierOn   bool
	ReadErrors     uint
}

type GPIOPin struct {
	Number     int  `yaml:"pin"`
	ActiveHigh bool `yaml:"active_high"`
}
