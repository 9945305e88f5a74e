package busmodel

import (
	"fmt"
	"math"

	"github.com/synaptecltd/feedersim/mathfuncs"
)

// On-load tap changer limits.
const (
	TapMin  = 0.90
	TapMax  = 1.10
	TapStep = 0.005
)

// TapChanger is the substation on-load tap changer. Position is the source
// voltage in pu and never leaves [TapMin, TapMax].
type TapChanger struct {
	Position     float64
	RaiseBelowPU float64
	LowerAbovePU float64
}

// NewTapChanger returns a tap at 1.0 pu regulating to the 0.96..1.04 pu band.
func NewTapChanger() *TapChanger {
	return &TapChanger{Position: 1.0, RaiseBelowPU: 0.96, LowerAbovePU: 1.04}
}

// Set moves the tap to an operator position.
func (t *TapChanger) Set(position float64) error {
	if math.IsNaN(position) || position < TapMin || position > TapMax {
		return fmt.Errorf("tap position %.3f outside [%.2f, %.2f]", position, TapMin, TapMax)
	}
	t.Position = position
	return nil
}

// Regulate moves the tap one step towards the band for the measured bus
// voltage and reports whether it moved.
func (t *TapChanger) Regulate(voltagePU float64) bool {
	prev := t.Position
	switch {
	case voltagePU < t.RaiseBelowPU:
		t.Position = math.Min(TapMax, t.Position+TapStep)
	case voltagePU > t.LowerAbovePU:
		t.Position = math.Max(TapMin, t.Position-TapStep)
	}
	return t.Position != prev
}

// Capacitor bank limits.
const (
	CapacitorStepKVAR = 25.0
	CapacitorMaxKVAR  = 200.0
)

// CapacitorBank is an automatic power factor correction bank switched in
// CapacitorStepKVAR steps within [0, CapacitorMaxKVAR].
type CapacitorBank struct {
	KVAR   float64
	LowPF  float64
	HighPF float64
}

// NewCapacitorBank returns an empty bank targeting 0.95..0.99 power factor.
func NewCapacitorBank() *CapacitorBank {
	return &CapacitorBank{LowPF: 0.95, HighPF: 0.99}
}

// Set switches the bank to an operator value.
func (c *CapacitorBank) Set(kvar float64) error {
	if kvar < 0 || kvar > CapacitorMaxKVAR {
		return fmt.Errorf("capacitor bank %.1f kvar outside [0, %.0f]", kvar, CapacitorMaxKVAR)
	}
	if math.Mod(kvar, CapacitorStepKVAR) != 0 {
		return fmt.Errorf("capacitor bank %.1f kvar is not a multiple of %.0f", kvar, CapacitorStepKVAR)
	}
	c.KVAR = kvar
	return nil
}

// Steps returns the number of switched steps.
func (c *CapacitorBank) Steps() int {
	return int(c.KVAR / CapacitorStepKVAR)
}

// Regulate switches one step in or out for the measured power factor and
// reports whether the bank changed.
func (c *CapacitorBank) Regulate(pf float64) bool {
	prev := c.KVAR
	if pf < c.LowPF {
		c.KVAR += CapacitorStepKVAR
	} else if pf > c.HighPF && c.KVAR > 0 {
		c.KVAR -= CapacitorStepKVAR
	}
	c.KVAR = mathfuncs.Clamp(c.KVAR, 0, CapacitorMaxKVAR)
	return c.KVAR != prev
}
