package feedersim

import (
	"fmt"

	"github.com/synaptecltd/feedersim/config"
)

// Limits of the operator's thermostat setting.
const (
	MinSetpointC = 18.0
	MaxSetpointC = 30.0
)

// ZoneEmulation is a thermostat-controlled cooling load. The zone warms
// toward the outside ambient while the compressor is off and is pulled down
// at a fixed rate while it runs. Its temperature is the ambient seen by the
// PV modules and the substation transformer.
type ZoneEmulation struct {
	AmbientC      float64
	SetpointC     float64
	HeatGainC     float64 // per tick while off and below ambient
	CoolingC      float64 // per tick while on
	BaseLoadKW    float64
	LoadPerDegree float64 // extra kW per degree above the setpoint
	Hysteresis    float64

	// outputs
	On     bool
	LoadKW float64
	T      float64
}

func newZone(c config.HVAC) ZoneEmulation {
	return ZoneEmulation{
		AmbientC:      c.AmbientC,
		SetpointC:     c.SetpointC,
		HeatGainC:     c.HeatGainC,
		CoolingC:      c.CoolingC,
		BaseLoadKW:    c.BaseLoadKW,
		LoadPerDegree: c.LoadPerDegree,
		Hysteresis:    1.0,
		T:             c.InitialTempC,
	}
}

// SetSetpoint changes the thermostat target.
func (z *ZoneEmulation) SetSetpoint(c float64) error {
	if c < MinSetpointC || c > MaxSetpointC {
		return fmt.Errorf("setpoint %.1f °C outside [%.0f, %.0f]", c, MinSetpointC, MaxSetpointC)
	}
	z.SetpointC = c
	return nil
}

func (z *ZoneEmulation) stepZone() {
	excess := max(0, z.T-z.SetpointC)

	if z.On {
		z.T -= z.CoolingC
		z.LoadKW = z.BaseLoadKW + excess*z.LoadPerDegree
	} else {
		if z.T < z.AmbientC {
			z.T += z.HeatGainC
		}
		z.LoadKW = 0
	}

	if z.T > z.SetpointC+z.Hysteresis {
		z.On = true
	} else if z.T < z.SetpointC-z.Hysteresis {
		z.On = false
	}
}
