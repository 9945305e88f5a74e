package busmodel

import (
	"fmt"
	"math"
	"strings"
)

// PassiveStatus is reported for buses without a smart inverter.
const PassiveStatus = "Passive"

// Inverter is an IEEE 1547 style smart inverter with Volt-Watt curtailment
// and Volt-VAR support.
type Inverter struct {
	CurtailStartPU float64 // Volt-Watt knee
	CurtailSlope   float64 // per pu above the knee
	AbsorbAbovePU  float64
	InjectBelowPU  float64
	VarSlope       float64 // kvar per kW of capacity per pu
	VarLimit       float64 // fraction of capacity
}

// DefaultInverter returns a 1.05 pu Volt-Watt knee with slope 10 and a
// 0.98..1.02 pu Volt-VAR deadband with slope 5 limited to 0.44 of capacity.
func DefaultInverter() Inverter {
	return Inverter{
		CurtailStartPU: 1.05,
		CurtailSlope:   10,
		AbsorbAbovePU:  1.02,
		InjectBelowPU:  0.98,
		VarSlope:       5,
		VarLimit:       0.44,
	}
}

// Response is the inverter set point for one tick. Q is positive when
// injecting into the bus.
type Response struct {
	PowerKW       float64
	ReactiveKVAR  float64
	CurtailFactor float64
	Status        string
}

// Respond adjusts the available PV power for the bus voltage.
func (inv Inverter) Respond(voltagePU, availableKW, capacityKW float64) Response {
	res := Response{PowerKW: availableKW, CurtailFactor: 1.0}
	var status []string

	if voltagePU > inv.CurtailStartPU {
		res.CurtailFactor = math.Max(0, 1-(voltagePU-inv.CurtailStartPU)*inv.CurtailSlope)
		res.PowerKW *= res.CurtailFactor
		status = append(status, fmt.Sprintf("VW-Curtail: %d%%", int((1-res.CurtailFactor)*100)))
	}

	limit := inv.VarLimit * capacityKW
	switch {
	case voltagePU > inv.AbsorbAbovePU:
		res.ReactiveKVAR = math.Max(-capacityKW*(voltagePU-inv.AbsorbAbovePU)*inv.VarSlope, -limit)
		status = append(status, "VV-Absorbing")
	case voltagePU < inv.InjectBelowPU:
		res.ReactiveKVAR = math.Min(capacityKW*(inv.InjectBelowPU-voltagePU)*inv.VarSlope, limit)
		status = append(status, "VV-Injecting")
	}

	res.Status = strings.Join(status, ", ")
	return res
}
