package feedersim

import (
	"math"
	"math/rand/v2"

	"github.com/teknico/sigourney/fast"
)

// Harmonic is one injected harmonic of the bus voltage.
type Harmonic struct {
	Order float64
	Volts float64 // peak
}

// WaveformEmulation synthesises one cycle of the bus voltage for the
// oscilloscope and power quality readout.
type WaveformEmulation struct {
	FundamentalV      float64
	Fnom              float64
	Samples           int
	Harmonics         []Harmonic
	FilterAttenuation float64 // gain applied to harmonics by the active filter

	// THD reported without injection is BaselineTHD plus U(0, THDNoise)
	BaselineTHD float64
	THDNoise    float64
}

// DefaultWaveform is 230 V at 50 Hz with 30 V of 3rd and 15 V of 5th
// harmonic when injection is on.
func DefaultWaveform() WaveformEmulation {
	return WaveformEmulation{
		FundamentalV:      230,
		Fnom:              50,
		Samples:           100,
		Harmonics:         []Harmonic{{Order: 3, Volts: 30}, {Order: 5, Volts: 15}},
		FilterAttenuation: 0.05,
		BaselineTHD:       0.5,
		THDNoise:          0.2,
	}
}

// Power quality labels.
const (
	WaveformClean   = "CLEAN"
	WaveformDirty   = "DIRTY"
	WaveformNominal = "NOMINAL"
)

// Waveform is one sampled cycle. Raw holds the unfiltered trace when the
// filter is acting on injected harmonics.
type Waveform struct {
	TimeMS []float64 `json:"time_ms"`
	Volts  []float64 `json:"volts"`
	Raw    []float64 `json:"raw,omitempty"`
	THD    float64   `json:"thd_pct"`
	Status string    `json:"status"`
}

func (w WaveformEmulation) generate(r *rand.Rand, harmonics, filtered bool) Waveform {
	gain := 1.0
	if filtered {
		gain = w.FilterAttenuation
	}

	out := Waveform{TimeMS: make([]float64, w.Samples)}
	out.Volts = w.sample(harmonics, gain, out.TimeMS)
	if harmonics && filtered {
		out.Raw = w.sample(true, 1.0, nil)
	}

	if harmonics {
		var residue float64
		for _, h := range w.Harmonics {
			residue += (h.Volts * gain) * (h.Volts * gain)
		}
		out.THD = math.Sqrt(residue) / w.FundamentalV * 100
	} else {
		out.THD = w.BaselineTHD + r.Float64()*w.THDNoise
	}

	switch {
	case harmonics && filtered:
		out.Status = WaveformClean
	case out.THD > 5.0:
		out.Status = WaveformDirty
	default:
		out.Status = WaveformNominal
	}
	return out
}

// sample evaluates the trace at Samples points spanning one cycle, end
// points included. Sample times are written to timeMS when it is not nil.
func (w WaveformEmulation) sample(harmonics bool, gain float64, timeMS []float64) []float64 {
	v := make([]float64, w.Samples)
	period := 1 / w.Fnom
	for i := range v {
		t := 0.0
		if w.Samples > 1 {
			t = period * float64(i) / float64(w.Samples-1)
		}
		phase := 2 * math.Pi * w.Fnom * t

		v[i] = w.FundamentalV * fast.Sin(wrapAngle(phase))
		if harmonics {
			for _, h := range w.Harmonics {
				v[i] += h.Volts * gain * fast.Sin(wrapAngle(h.Order*phase))
			}
		}
		if timeMS != nil {
			timeMS[i] = t * 1000
		}
	}
	return v
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		return a - 2*math.Pi
	}
	if a <= -math.Pi {
		return a + 2*math.Pi
	}
	return a
}
