package mathfuncs

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/teknico/sigourney/fast"
)

// A Shape is a signal envelope y=f(t,A,T). It takes amplitude, A, and period, T,
// and returns the value of the envelope at elapsed time, t (seconds).
type Shape func(t, A, T float64) float64

// Named shapes available to anomaly schedules.
var shapes = map[string]Shape{
	"linear":       linearRamp,
	"sine":         sine,
	"cosine":       cosine,
	"exponential":  exponentialRamp,
	"decay":        exponentialDecay,
	"saturating":   exponentialSaturating,
	"parabolic":    parabolicRamp,
	"step":         step,
	"square":       square,
	"sawtooth":     sawtooth,
	"pulse":        pulse,
	"flat":         flat,
	"random_noise": randomNoise,
	"gaussian":     gaussianNoise,
}

// ShapeNames returns the registered shape names in sorted order.
func ShapeNames() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShapeByName returns the named shape.
func ShapeByName(name string) (Shape, error) {
	s, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}
	return s, nil
}

// Returns a linear ramp y=(A/T)*t.
func linearRamp(t, A, T float64) float64 {
	if T == 0 {
		return A
	}
	return A / T * t
}

// Returns y=A*sin(2*pi*t/T).
func sine(t, A, T float64) float64 {
	if T <= 0 {
		return 0
	}
	return A * math.Sin(2*math.Pi*t/T)
}

// Returns y=A*cos(2*pi*t/T).
func cosine(t, A, T float64) float64 {
	if T <= 0 {
		return A
	}
	return A * fast.Cos(2*math.Pi*t/T)
}

// Returns y=A*exp(t/T) - A.
func exponentialRamp(t, A, T float64) float64 {
	return A*math.Exp(t/T) - A
}

// Returns y=A*exp(-t/T).
func exponentialDecay(t, A, T float64) float64 {
	return A * math.Exp(-t/T)
}

// Returns y=A*(1-exp(-t/T)), approaching A.
func exponentialSaturating(t, A, T float64) float64 {
	return A * (1 - math.Exp(-t/T))
}

func parabolicRamp(t, A, T float64) float64 {
	return A * (t / T) * (t / T)
}

// Returns 0 for the first half of each period and A for the second half.
func step(t, A, T float64) float64 {
	if math.Mod(t, T) < T/2 {
		return 0
	}
	return A
}

// Returns A while sin(2*pi*t/T) >= 0, else -A.
func square(t, A, T float64) float64 {
	if fast.Sin(2*math.Pi*t/T) >= 0 {
		return A
	}
	return -A
}

// Returns y=(2*A/pi)*atan(tan(pi*t/T)).
func sawtooth(t, A, T float64) float64 {
	return (2 * A / math.Pi) * math.Atan(math.Tan(math.Pi*t/T))
}

// Returns A for the first 10% of each period, 0 otherwise.
func pulse(t, A, T float64) float64 {
	if math.Mod(t, T) < T/10 {
		return A
	}
	return 0
}

func flat(_, A, _ float64) float64 {
	return A
}

// Uniform noise in [-A, A).
func randomNoise(_, A, _ float64) float64 {
	return A * (rand.Float64()*2 - 1)
}

func gaussianNoise(_, A, _ float64) float64 {
	return rand.NormFloat64() * A
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
