// Package fault computes short-circuit currents with symmetrical components.
package fault

import (
	"math"
	"math/cmplx"
)

// DegenerateDenominator replaces a near-zero impedance sum. It is a numerical
// guard, not a physical value.
const DegenerateDenominator = 0.001

const zeroThreshold = 1e-12

// Rotation operators a = 1∠120° and a² = 1∠240°.
var (
	a  = cmplx.Rect(1, 2*math.Pi/3)
	a2 = a * a
)

// SequenceImpedance holds positive, negative and zero sequence source impedances (pu).
type SequenceImpedance struct {
	Z1 complex128
	Z2 complex128
	Z0 complex128
}

// DefaultSequenceImpedance is Z1=Z2=0.2 pu, Z0=0.6 pu.
var DefaultSequenceImpedance = SequenceImpedance{Z1: 0.2, Z2: 0.2, Z0: 0.6}

// DefaultImpedance is the fault impedance Zf used for each fault type when the
// operator does not specify one.
func DefaultImpedance(t Type) complex128 {
	if t == LL {
		return 0.01
	}
	return 0
}

// Currents are sequence current magnitudes in pu. Clamped reports that a
// degenerate denominator was replaced by DegenerateDenominator.
type Currents struct {
	I1, I2, I0 float64
	Clamped    bool
}

// Solve returns the sequence currents for a fault of type t with prefault
// voltage v (pu), source impedances z and fault impedance zf. An unknown type
// yields zero currents.
func Solve(t Type, v float64, z SequenceImpedance, zf complex128) Currents {
	var c Currents
	div := func(num, den complex128) complex128 {
		if cmplx.Abs(den) < zeroThreshold {
			den = DegenerateDenominator
			c.Clamped = true
		}
		return num / den
	}
	vc := complex(v, 0)

	switch t {
	case LG:
		i := cmplx.Abs(div(vc, z.Z1+z.Z2+z.Z0+3*zf))
		c.I1, c.I2, c.I0 = i, i, i
	case LL:
		i := cmplx.Abs(div(vc, z.Z1+z.Z2+zf))
		c.I1, c.I2 = i, i
	case LLG:
		parallel := div(z.Z2*z.Z0, z.Z2+z.Z0)
		i1 := div(vc, z.Z1+parallel)
		c.I1 = cmplx.Abs(i1)
		c.I2 = cmplx.Abs(i1 * div(z.Z0, z.Z2+z.Z0))
		c.I0 = cmplx.Abs(i1 * div(z.Z2, z.Z2+z.Z0))
	case LLL:
		c.I1 = cmplx.Abs(div(vc, z.Z1+zf))
	}
	return c
}

// Phasor is a magnitude with an angle in degrees.
type Phasor struct {
	Mag      float64
	AngleDeg float64
}

func phasor(c complex128) Phasor {
	return Phasor{Mag: cmplx.Abs(c), AngleDeg: cmplx.Phase(c) * 180 / math.Pi}
}

// Phases are the three phase currents.
type Phases struct {
	A, B, C Phasor
}

// Max returns the largest phase magnitude.
func (p Phases) Max() float64 {
	return math.Max(p.A.Mag, math.Max(p.B.Mag, p.C.Mag))
}

// ToPhase converts sequence currents (taken as real, zero-angle phasors) to
// phase currents: Ia=I0+I1+I2, Ib=I0+a²I1+aI2, Ic=I0+aI1+a²I2.
func ToPhase(c Currents) Phases {
	i0 := complex(c.I0, 0)
	i1 := complex(c.I1, 0)
	i2 := complex(c.I2, 0)
	return Phases{
		A: phasor(i0 + i1 + i2),
		B: phasor(i0 + a2*i1 + a*i2),
		C: phasor(i0 + a*i1 + a2*i2),
	}
}
