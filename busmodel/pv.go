package busmodel

import (
	"math/rand/v2"

	"github.com/synaptecltd/feedersim/mathfuncs"
)

// PVModel holds the PV module constants.
type PVModel struct {
	NOCT        float64 // nominal operating cell temperature, °C
	TempCoeff   float64 // power change per °C above STC
	STCTemp     float64
	CloudFactor float64 // irradiance multiplier under cloud shading
	MinDerate   float64
	MaxDerate   float64
	NoiseSpan   float64 // multiplicative noise is drawn from [1-span, 1+span]
}

// DefaultPVModel returns NOCT 45 °C, -0.41 %/°C, a 70 % cloud drop and ±1 %
// output noise.
func DefaultPVModel() PVModel {
	return PVModel{
		NOCT:        45.0,
		TempCoeff:   -0.0041,
		STCTemp:     25.0,
		CloudFactor: 0.3,
		MinDerate:   0.5,
		MaxDerate:   1.2,
		NoiseSpan:   0.01,
	}
}

// PVOutput is the generation at one bus for one tick.
type PVOutput struct {
	PowerKW    float64
	CellTempC  float64
	Irradiance float64
}

// Output computes PV generation from irradiance (0..1, 1 = 1000 W/m2) and
// ambient temperature. A bus without capacity returns zero power and the
// ambient temperature. r may be nil, in which case no noise is applied.
func (m PVModel) Output(capacityKW, irradiance, ambientC float64, cloudy bool, r *rand.Rand) PVOutput {
	if capacityKW <= 0 {
		return PVOutput{CellTempC: ambientC}
	}
	if cloudy {
		irradiance *= m.CloudFactor
	}

	cell := ambientC + ((m.NOCT-20.0)/0.8)*irradiance
	derate := mathfuncs.Clamp(1.0+m.TempCoeff*(cell-m.STCTemp), m.MinDerate, m.MaxDerate)

	p := capacityKW * irradiance * derate
	if r != nil && m.NoiseSpan > 0 {
		p *= 1 - m.NoiseSpan + r.Float64()*2*m.NoiseSpan
	}

	return PVOutput{PowerKW: p, CellTempC: cell, Irradiance: irradiance}
}
