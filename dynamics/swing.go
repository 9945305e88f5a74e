// Package dynamics integrates the aggregate generator swing equation, its
// governor and the substation transformer's thermal state once per tick.
package dynamics

import "math"

// Params are the machine, governor and transformer constants.
type Params struct {
	InertiaH      float64 // s
	DampingD      float64 // pu
	BaseMVA       float64
	NominalHz     float64
	Dt            float64 // integration step, s
	GovernorGain  float64 // pu power per Hz of deviation
	GovernorScale float64 // kW per unit of governor response

	TransformerRatingKVA float64
	TransformerTau       float64 // ticks
	TransformerRiseMaxC  float64 // top-oil rise at rated load
}

// DefaultParams returns H=5 s, D=1, 10 MVA base, 50 Hz, dt=0.05 s and a
// 10 MVA transformer with tau=20 ticks and a 65 °C rated rise.
func DefaultParams() Params {
	return Params{
		InertiaH:             5.0,
		DampingD:             1.0,
		BaseMVA:              10.0,
		NominalHz:            50.0,
		Dt:                   0.05,
		GovernorGain:         0.5,
		GovernorScale:        100.0,
		TransformerRatingKVA: 10000.0,
		TransformerTau:       20.0,
		TransformerRiseMaxC:  65.0,
	}
}

// M returns the inertia constant 2H/(2*pi*f0).
func (p Params) M() float64 {
	return 2 * p.InertiaH / (2 * math.Pi * p.NominalHz)
}

// GridState is the aggregate machine and transformer state.
//
// MechanicalPowerKW is a governor integrator: every Step adds the governor
// response to it and it is never recomputed or reset between ticks or between
// fault episodes.
type GridState struct {
	FrequencyHz       float64
	RotorAngleRad     float64
	MechanicalPowerKW float64
	TransformerTempC  float64
}

// NewGridState returns the state at nominal frequency with 5 MW of mechanical
// power and 40 °C transformer oil.
func NewGridState(p Params) GridState {
	return GridState{
		FrequencyHz:       p.NominalHz,
		MechanicalPowerKW: 5000.0,
		TransformerTempC:  40.0,
	}
}

// Step advances the state by one forward-Euler step of p.Dt given the net
// electrical load pKW/qKVAR seen by the machine and the ambient temperature
// around the transformer. Frequency and temperature are not bounded.
func (s *GridState) Step(p Params, pKW, qKVAR, ambientC float64) {
	baseKW := p.BaseMVA * 1000.0
	pePU := pKW / baseKW

	s.MechanicalPowerKW += (p.NominalHz - s.FrequencyHz) * p.GovernorGain * p.GovernorScale
	pmPU := s.MechanicalPowerKW / baseKW

	wDev := 2 * math.Pi * (s.FrequencyHz - p.NominalHz)
	accel := (pmPU - pePU - p.DampingD*wDev) / p.M()

	s.FrequencyHz += accel / (2 * math.Pi) * p.Dt
	s.RotorAngleRad += 2 * math.Pi * (s.FrequencyHz - p.NominalHz) * p.Dt

	s.stepThermal(p, pKW, qKVAR, ambientC)
}

func (s *GridState) stepThermal(p Params, pKW, qKVAR, ambientC float64) {
	loading := math.Hypot(pKW, qKVAR) / p.TransformerRatingKVA
	ultimate := ambientC + p.TransformerRiseMaxC*loading*loading
	s.TransformerTempC += (ultimate - s.TransformerTempC) / p.TransformerTau
}

// Deviation returns frequency minus nominal.
func (s GridState) Deviation(p Params) float64 {
	return s.FrequencyHz - p.NominalHz
}
