package busmodel

import (
	"errors"

	"github.com/synaptecltd/feedersim/mathfuncs"
)

// BatteryMode is the dispatch decision for one tick.
type BatteryMode string

const (
	BatteryIdle        BatteryMode = "IDLE"
	BatteryCharging    BatteryMode = "CHARGING (Solar Soak)"
	BatteryDischarging BatteryMode = "DISCHARGING (Peak Shave)"
)

// Battery is a time-of-day dispatched storage system. Positive power is
// discharge into the feeder.
type Battery struct {
	CapacityKWh float64
	MaxPowerKW  float64
	SoC         float64 // percent, always within [0, 100]

	ChargeFromHour, ChargeToHour       int
	DischargeFromHour, DischargeToHour int
	ChargeRate                         float64 // fraction of MaxPowerKW
	ChargeCeiling, DischargeFloor      float64 // SoC percent
	TicksPerHour                       float64 // energy per tick is power / TicksPerHour
}

// NewBattery returns a battery that charges at 80 % power between 10:00 and
// 15:00 while SoC < 95 and discharges at full power between 18:00 and 22:00
// while SoC > 20.
func NewBattery(capacityKWh, maxPowerKW, initialSoC float64) (*Battery, error) {
	if capacityKWh <= 0 {
		return nil, errors.New("battery capacity must be positive")
	}
	if maxPowerKW < 0 {
		return nil, errors.New("battery power rating must not be negative")
	}
	if initialSoC < 0 || initialSoC > 100 {
		return nil, errors.New("battery state of charge must be within [0, 100]")
	}

	return &Battery{
		CapacityKWh:       capacityKWh,
		MaxPowerKW:        maxPowerKW,
		SoC:               initialSoC,
		ChargeFromHour:    10,
		ChargeToHour:      15,
		DischargeFromHour: 18,
		DischargeToHour:   22,
		ChargeRate:        0.8,
		ChargeCeiling:     95.0,
		DischargeFloor:    20.0,
		TicksPerHour:      60.0,
	}, nil
}

// Plan returns the dispatch for the hour without changing the SoC.
func (b *Battery) Plan(hour int) (float64, BatteryMode) {
	h := ((hour % 24) + 24) % 24

	switch {
	case h >= b.ChargeFromHour && h <= b.ChargeToHour:
		if b.SoC < b.ChargeCeiling {
			return -b.ChargeRate * b.MaxPowerKW, BatteryCharging
		}
	case h >= b.DischargeFromHour && h <= b.DischargeToHour:
		if b.SoC > b.DischargeFloor {
			return b.MaxPowerKW, BatteryDischarging
		}
	}
	return 0, BatteryIdle
}

// Dispatch plans the hour and applies the resulting energy to the SoC.
func (b *Battery) Dispatch(hour int) (float64, BatteryMode) {
	p, mode := b.Plan(hour)
	energy := -p / b.TicksPerHour
	b.SoC = mathfuncs.Clamp(b.SoC+energy/b.CapacityKWh*100, 0, 100)
	return p, mode
}
