package anomaly

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/synaptecltd/feedersim/mathfuncs"
)

// Produces spikes on a channel: each step inside the window fires with a
// probability.
type spikeAnomaly struct {
	base

	Magnitude     float64 // magnitude of spikes
	VaryMagnitude bool    // apply Gaussian variation to each spike

	sign         float64 // -1..1, negative values favour negative spikes
	probability  float64 // chance of a spike in each step
	magFuncName  string
	probFuncName string

	magFunction  mathfuncs.Shape
	probFunction mathfuncs.Shape
}

// Parameters used to request a spike anomaly.
type SpikeParams struct {
	ID         uuid.UUID `mapstructure:"id"`
	Name       string    `mapstructure:"name"`
	Channel    Channel   `mapstructure:"channel"`
	Repeats    uint64    `mapstructure:"repeats"`     // number of bursts, 0 for infinite
	Off        bool      `mapstructure:"off"`         // true: anomaly deactivated
	StartDelay float64   `mapstructure:"start_delay"` // delay before (and between) bursts in seconds
	Duration   float64   `mapstructure:"duration"`    // burst length in seconds, 0 for continuous

	Magnitude     float64 `mapstructure:"magnitude"`
	MagFuncName   string  `mapstructure:"mag_func"` // shape modulating the magnitude, empty for none
	VaryMagnitude bool    `mapstructure:"vary_magnitude"`
	Sign          float64 `mapstructure:"sign"`

	Probability  float64 `mapstructure:"probability"`
	ProbFuncName string  `mapstructure:"prob_func"` // shape modulating the probability, empty for constant
}

// NewSpikeAnomaly returns a spike anomaly with the requested parameters,
// checking for invalid values.
func NewSpikeAnomaly(params SpikeParams) (*spikeAnomaly, error) {
	b, err := newBase(params.ID, params.Name, params.Channel, params.StartDelay, params.Duration, params.Repeats, params.Off)
	if err != nil {
		return nil, err
	}
	s := &spikeAnomaly{
		base:          b,
		Magnitude:     params.Magnitude,
		VaryMagnitude: params.VaryMagnitude,
	}

	if err := s.SetProbability(params.Probability); err != nil {
		return nil, err
	}
	if err := s.SetSign(params.Sign); err != nil {
		return nil, err
	}
	if err := s.SetMagFunctionByName(params.MagFuncName); err != nil {
		return nil, err
	}
	if err := s.SetProbFunctionByName(params.ProbFuncName); err != nil {
		return nil, err
	}
	if params.Duration == 0 && (s.magFunction != nil || s.probFunction != nil) {
		return nil, errors.New("duration must be greater than 0 when a shape function is used")
	}

	return s, nil
}

func (s *spikeAnomaly) Kind() string {
	return "spike"
}

func (s *spikeAnomaly) step(r *rand.Rand, ts float64) float64 {
	s.active = false
	elapsed, open := s.window.open(ts)
	if !open {
		return 0.0
	}

	if r.Float64() > s.fetchProbability(elapsed) {
		return 0.0
	}
	s.active = true

	delta := s.Magnitude
	if s.magFunction != nil {
		delta = s.magFunction(elapsed, s.Magnitude, s.window.Duration)
	}
	delta *= s.drawSign(r)
	if s.VaryMagnitude {
		delta *= r.NormFloat64()
	}
	return delta
}

func (s *spikeAnomaly) fetchProbability(elapsed float64) float64 {
	if s.probFunction == nil {
		return s.probability
	}
	return math.Abs(s.probFunction(elapsed, s.probability, s.window.Duration))
}

// Returns -1 or +1 weighted by the sign parameter.
func (s *spikeAnomaly) drawSign(r *rand.Rand) float64 {
	if r.Float64()*2-1 > s.sign {
		return -1.0
	}
	return 1.0
}

// Setters

// Sets the chance of a spike in each step if probability is within [0, 1].
func (s *spikeAnomaly) SetProbability(probability float64) error {
	if probability < 0 || probability > 1 {
		return errors.New("probability must be between 0 and 1")
	}
	s.probability = probability
	return nil
}

func (s *spikeAnomaly) SetSign(sign float64) error {
	if sign < -1.0 || sign > 1.0 {
		return errors.New("spike sign must be between -1 and 1")
	}
	s.sign = sign
	return nil
}

func (s *spikeAnomaly) SetMagFunctionByName(name string) error {
	return setShapeByName(name, &s.magFuncName, &s.magFunction)
}

func (s *spikeAnomaly) SetProbFunctionByName(name string) error {
	return setShapeByName(name, &s.probFuncName, &s.probFunction)
}

// Getters

func (s *spikeAnomaly) Probability() float64 {
	return s.probability
}

func (s *spikeAnomaly) Sign() float64 {
	return s.sign
}

func (s *spikeAnomaly) MagFuncName() string {
	return s.magFuncName
}

func (s *spikeAnomaly) ProbFuncName() string {
	return s.probFuncName
}
