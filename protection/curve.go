// Package protection models feeder protection: an inverse-time overcurrent
// relay and an auto-recloser.
package protection

import "math"

// IEC 60255 very-inverse curve constants.
const (
	curveK     = 0.14
	curveAlpha = 0.02
)

// DefaultTMS is the time multiplier setting of the feeder relay.
const DefaultTMS = 0.5

// MaxTripTime is returned when the curve denominator is numerically zero.
const MaxTripTime = 9999.0

// TripTime returns the operating time t = TMS * 0.14 / (I^0.02 - 1) for a
// current in pu of pickup. ok is false when the current does not exceed pickup.
func TripTime(currentPU, tms float64) (seconds float64, ok bool) {
	if currentPU <= 1.0 {
		return 0, false
	}
	den := math.Pow(currentPU, curveAlpha) - 1
	if math.Abs(den) < 1e-5 {
		return MaxTripTime, true
	}
	return tms * (curveK / den), true
}
