package protection

import (
	"fmt"
	"math"
)

const (
	// RelayFull is the accumulator level at which the relay signals a trip.
	RelayFull = 100.0
	// RelayDecay is subtracted from the accumulator on every tick without fault.
	RelayDecay = 5.0
)

// Relay integrates overcurrent along the inverse-time curve. Accumulator is a
// percentage of the trip time elapsed, kept within [0, RelayFull].
type Relay struct {
	TMS         float64
	Accumulator float64
}

// NewRelay returns a relay with the given time multiplier.
func NewRelay(tms float64) *Relay {
	return &Relay{TMS: tms}
}

// Integrate advances the accumulator under fault by speed/tripTime*100.
// speed is the simulated seconds per tick. Currents at or below pickup leave
// the accumulator untouched and report picked=false.
func (r *Relay) Integrate(currentPU, speed float64) (picked bool) {
	t, ok := TripTime(currentPU, r.TMS)
	if !ok {
		return false
	}
	r.Accumulator = math.Min(RelayFull, r.Accumulator+speed/t*100)
	return true
}

// Decay bleeds the accumulator down when no fault is present.
func (r *Relay) Decay() {
	r.Accumulator = math.Max(0, r.Accumulator-RelayDecay)
}

// Tripped reports whether the accumulator has reached the trip threshold.
func (r *Relay) Tripped() bool {
	return r.Accumulator >= RelayFull
}

// Percent is the accumulator truncated to a whole percentage.
func (r *Relay) Percent() int {
	return int(r.Accumulator)
}

// RelayStatus is the operator-facing message for the relay at the observed bus.
func RelayStatus(fault, picked, tripped bool, pct int) string {
	switch {
	case tripped:
		return "TRIP"
	case !fault:
		return "MONITORING"
	case picked:
		return fmt.Sprintf("TRIP CURVE: %d%%", pct)
	default:
		return "FAULT DETECTED"
	}
}
