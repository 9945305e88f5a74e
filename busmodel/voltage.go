// Package busmodel holds the per-bus electrical models: the single-pass
// voltage-drop approximation, PV generation, the smart inverter response,
// battery dispatch and the substation voltage and reactive power controls.
package busmodel

import (
	"math"
	"math/cmplx"

	"github.com/synaptecltd/feedersim/topology"
)

// DefaultLineImpedance is the per-unit line impedance per unit of electrical
// distance.
const DefaultLineImpedance = complex(0.005, 0.002)

// Injection is the power balance at a bus in kW and kvar. Generation is
// positive when exported into the bus.
type Injection struct {
	PLoadKW   float64
	QLoadKVAR float64
	PGenKW    float64
	QGenKVAR  float64
}

// Net returns the net load (load minus generation) in kVA.
func (n Injection) Net() complex128 {
	return complex(n.PLoadKW-n.PGenKW, n.QLoadKVAR-n.QGenKVAR)
}

// Line models the radial feeder between the source and a bus as a single
// impedance proportional to electrical distance.
type Line struct {
	ImpedancePerDistance complex128
}

// Impedance returns the line impedance for a bus at the given distance.
// Distances below topology.MinDistance are floored.
func (l Line) Impedance(distance float64) complex128 {
	if distance < topology.MinDistance {
		distance = topology.MinDistance
	}
	return l.ImpedancePerDistance * complex(distance, 0)
}

// Voltage returns the bus voltage magnitude in pu for a source held at
// sourcePU (the tap position). It is one linear step, I = conj(S)/Vs and
// V = Vs - I*Z, rather than an iterated power flow.
func (l Line) Voltage(distance, sourcePU float64, n Injection) float64 {
	vs := complex(sourcePU, 0)
	s := n.Net() / 1000
	i := cmplx.Conj(s) / vs
	return cmplx.Abs(vs - i*l.Impedance(distance))
}

// Hosting classifies how close a bus voltage is to the PV hosting limit.
type Hosting string

const (
	HostingOK       Hosting = "OK"
	HostingModerate Hosting = "MODERATE"
	HostingCritical Hosting = "CRITICAL"
)

// HostingCapacity returns CRITICAL above 1.045 pu and MODERATE above 1.03 pu.
func HostingCapacity(voltagePU float64) Hosting {
	switch {
	case voltagePU > 1.045:
		return HostingCritical
	case voltagePU > 1.03:
		return HostingModerate
	default:
		return HostingOK
	}
}

// PowerFactor returns p/|p+jq|, or 1 when both are zero.
func PowerFactor(pKW, qKVAR float64) float64 {
	s := math.Hypot(pKW, qKVAR)
	if s == 0 {
		return 1.0
	}
	return pKW / s
}
