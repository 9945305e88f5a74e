package mathfuncs_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/synaptecltd/feedersim/mathfuncs"
)

func TestDeterministicShapes(t *testing.T) {
	M := 1.0 + rand.Float64()*99.0 // amplitude (between 1 and 100)
	x := 1.0 + rand.Float64()*99.0 // time (between 1 and 100)

	testCases := []struct {
		name     string
		t        float64
		A        float64
		T        float64
		expected float64
		isError  bool
	}{
		{name: "not_a_shape", isError: true},
		{name: "linear", t: x, A: M, T: M, expected: x},
		{name: "sine", t: x, A: M, T: 4 * x, expected: M},
		{name: "cosine", t: x, A: 1.0, T: 4 * x, expected: 0.0},
		{name: "exponential", t: x, A: M, T: x, expected: M*math.E - M},
		{name: "decay", t: x, A: M, T: x, expected: M / math.E},
		{name: "saturating", t: x, A: M, T: x, expected: M * (1 - 1/math.E)},
		{name: "parabolic", t: x, A: M, T: 2 * x, expected: M / 4},
		{name: "step", t: 1.5 * x, A: M, T: 2 * x, expected: M},
		{name: "step", t: 0, A: M, T: x, expected: 0},
		{name: "square", t: 1.5 * x, A: M, T: 2 * x, expected: -M},
		{name: "sawtooth", t: x, A: M, T: 4 * x, expected: M / 2},
		{name: "pulse", t: 0, A: M, T: x, expected: M},
		{name: "pulse", t: x / 2, A: M, T: x, expected: 0},
		{name: "flat", t: x, A: M, T: x, expected: M},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			shape, err := mathfuncs.ShapeByName(tc.name)
			if tc.isError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, shape(tc.t, tc.A, tc.T), 1e-3)
		})
	}
}

func TestNoiseShapesBounded(t *testing.T) {
	shape, err := mathfuncs.ShapeByName("random_noise")
	assert.NoError(t, err)
	for i := 0; i < 10000; i++ {
		v := shape(float64(i), 2.0, 0)
		assert.True(t, v >= -2.0 && v < 2.0, "value out of bounds")
	}
}

func TestShapeNamesSorted(t *testing.T) {
	names := mathfuncs.ShapeNames()
	assert.Contains(t, names, "linear")
	assert.IsIncreasing(t, names)
}

func TestBellIrradiance(t *testing.T) {
	assert.Equal(t, 0.0, mathfuncs.BellIrradiance(3))
	assert.Equal(t, 0.25, mathfuncs.BellIrradiance(6))
	assert.Equal(t, 1.0, mathfuncs.BellIrradiance(12))
	assert.Equal(t, 0.75, mathfuncs.BellIrradiance(16))
	assert.Equal(t, 0.0, mathfuncs.BellIrradiance(19))
	assert.Equal(t, 1.0, mathfuncs.BellIrradiance(24+11))
	assert.Equal(t, 0.0, mathfuncs.BellIrradiance(-1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, mathfuncs.Clamp(0.1, 0.5, 1.2))
	assert.Equal(t, 1.2, mathfuncs.Clamp(3, 0.5, 1.2))
	assert.Equal(t, 1.0, mathfuncs.Clamp(1, 0.5, 1.2))
}
