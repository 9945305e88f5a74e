package anomaly

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/synaptecltd/feedersim/mathfuncs"
)

// Modulates a channel with a continuous shape while the window is open.
type trendAnomaly struct {
	base

	Magnitude    float64
	InvertTrend  bool // multiply the shape by -1
	ReverseTrend bool // Magnitude minus the shape, mirroring it in time

	magFuncName    string
	magFunction    mathfuncs.Shape
	periodDuration float64 // shape period, Duration when zero
}

// Parameters used to request a trend anomaly.
type TrendParams struct {
	ID             uuid.UUID `mapstructure:"id"`
	Name           string    `mapstructure:"name"`
	Channel        Channel   `mapstructure:"channel"`
	Repeats        uint64    `mapstructure:"repeats"`     // number of trends, 0 for infinite
	Off            bool      `mapstructure:"off"`         // true: anomaly deactivated
	StartDelay     float64   `mapstructure:"start_delay"` // delay before (and between) trends in seconds
	Duration       float64   `mapstructure:"duration"`    // trend length in seconds, 0 deactivates
	PeriodDuration float64   `mapstructure:"period"`      // shape period within the window, 0 uses Duration

	Magnitude    float64 `mapstructure:"magnitude"`
	MagFuncName  string  `mapstructure:"mag_func"` // empty defaults to "linear"
	InvertTrend  bool    `mapstructure:"invert"`
	ReverseTrend bool    `mapstructure:"reverse"`
}

// NewTrendAnomaly returns a trend anomaly with the requested parameters,
// checking for invalid values.
func NewTrendAnomaly(params TrendParams) (*trendAnomaly, error) {
	b, err := newBase(params.ID, params.Name, params.Channel, params.StartDelay, params.Duration, params.Repeats, params.Off)
	if err != nil {
		return nil, err
	}
	if params.Duration == 0 {
		b.window.Off = true
	}

	t := &trendAnomaly{
		base:         b,
		Magnitude:    params.Magnitude,
		InvertTrend:  params.InvertTrend,
		ReverseTrend: params.ReverseTrend,
	}
	if err := t.SetMagFunctionByName(params.MagFuncName); err != nil {
		return nil, err
	}
	if err := t.SetPeriodDuration(params.PeriodDuration); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *trendAnomaly) Kind() string {
	return "trend"
}

func (t *trendAnomaly) step(_ *rand.Rand, ts float64) float64 {
	elapsed, open := t.window.open(ts)
	t.active = open
	if !open {
		return 0.0
	}

	mag := t.magFunction(elapsed, t.Magnitude, t.periodDuration)
	switch {
	case t.ReverseTrend && t.InvertTrend:
		return -(t.Magnitude - mag)
	case t.ReverseTrend:
		return t.Magnitude - mag
	case t.InvertTrend:
		return -mag
	default:
		return mag
	}
}

// Setters

// Sets the shape period in seconds. Zero defers to the window duration.
func (t *trendAnomaly) SetPeriodDuration(period float64) error {
	if period < 0 {
		return errors.New("period must be greater than or equal to 0")
	}
	if period == 0 {
		period = t.window.Duration
	}
	t.periodDuration = period
	return nil
}

func (t *trendAnomaly) SetMagFunctionByName(name string) error {
	if name == "" {
		name = "linear"
	}
	return setShapeByName(name, &t.magFuncName, &t.magFunction)
}

// Getters

func (t *trendAnomaly) MagFuncName() string {
	return t.magFuncName
}

func (t *trendAnomaly) PeriodDuration() float64 {
	return t.periodDuration
}
