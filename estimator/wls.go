// Package estimator implements a single-bus weighted least squares state
// estimator solved by Gauss-Newton iteration, with a false data injection
// path on the voltage channel.
package estimator

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

const (
	nMeas  = 3 // V, P, Q
	nState = 2 // V, delta
)

// Defaults of the estimator.
const (
	DefaultMaxIterations    = 10
	DefaultTolerance        = 1e-4
	DefaultJacobianStep     = 1e-5
	DefaultAttackBias       = 0.15
	DefaultBadDataThreshold = 0.05

	// gain matrices with a 1-norm condition number above this are treated
	// as singular
	SingularCondition = 1e12
)

// Weights are the diagonal entries of the measurement weight matrix, the
// inverse variances of the voltage, real power and reactive power channels.
type Weights struct {
	Voltage float64 `mapstructure:"voltage"`
	P       float64 `mapstructure:"p"`
	Q       float64 `mapstructure:"q"`
}

// Config holds the solver settings.
type Config struct {
	Weights          Weights `mapstructure:"weights"`
	MaxIterations    int     `mapstructure:"max_iterations"`
	Tolerance        float64 `mapstructure:"tolerance"`
	JacobianStep     float64 `mapstructure:"jacobian_step"`
	AttackBias       float64 `mapstructure:"attack_bias"`
	BadDataThreshold float64 `mapstructure:"bad_data_threshold"`
}

// DefaultConfig trusts voltage 100 times more than power.
func DefaultConfig() Config {
	return Config{
		Weights:          Weights{Voltage: 10000, P: 100, Q: 100},
		MaxIterations:    DefaultMaxIterations,
		Tolerance:        DefaultTolerance,
		JacobianStep:     DefaultJacobianStep,
		AttackBias:       DefaultAttackBias,
		BadDataThreshold: DefaultBadDataThreshold,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Weights.Voltage <= 0 || c.Weights.P <= 0 || c.Weights.Q <= 0 {
		return errors.New("estimator weights must be positive")
	}
	if c.MaxIterations < 1 {
		return errors.New("estimator needs at least one iteration")
	}
	if c.Tolerance <= 0 {
		return errors.New("estimator tolerance must be positive")
	}
	if c.JacobianStep <= 0 {
		return errors.New("jacobian step must be positive")
	}
	if c.BadDataThreshold <= 0 {
		return errors.New("bad data threshold must be positive")
	}
	return nil
}

// Network is the source-to-bus model seen by the estimator.
type Network struct {
	Impedance complex128 // pu
	SourcePU  float64
}

// Measure is the measurement function h(x): the bus voltage magnitude and
// the complex power flowing into the bus (in MW, Mvar) for voltage v at
// angle delta.
func (n Network) Measure(v, delta float64) [nMeas]float64 {
	vc := cmplx.Rect(v, delta)
	i := (complex(n.SourcePU, 0) - vc) / n.Impedance
	s := vc * cmplx.Conj(i)
	return [nMeas]float64{v, real(s), imag(s)}
}

// Measurement is one SCADA reading of the bus.
type Measurement struct {
	VoltagePU float64
	PKW       float64
	QKVAR     float64
}

// Result is the outcome of one estimate. It is always populated: failures
// are reported through the quality flags.
type Result struct {
	Voltage    float64 `json:"voltage_pu"`  // estimated magnitude, pu
	Angle      float64 `json:"angle_rad"`   // estimated angle, rad
	Measured   float64 `json:"measured_pu"` // voltage fed to the solver, including any bias
	Cost       float64 `json:"cost"`        // J = r'Wr at the final state
	Residual   float64 `json:"residual"`    // |Measured - Voltage|
	Iterations int     `json:"iterations"`  // Gauss-Newton updates applied

	Converged bool `json:"converged"`
	Singular  bool `json:"singular"`
	BadData   bool `json:"bad_data"`
}

// Estimator solves the WLS problem. It holds no per-solve state.
type Estimator struct {
	cfg Config
	w   *mat.DiagDense
}

// New returns an Estimator for the settings.
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := mat.NewDiagDense(nMeas, []float64{cfg.Weights.Voltage, cfg.Weights.P, cfg.Weights.Q})
	return &Estimator{cfg: cfg, w: w}, nil
}

// Config returns the solver settings.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate runs Gauss-Newton from a flat start. When attacked is set the
// voltage measurement is biased by AttackBias before solving.
func (e *Estimator) Estimate(net Network, m Measurement, attacked bool) Result {
	vMeas := m.VoltagePU
	if attacked {
		vMeas += e.cfg.AttackBias
	}
	z := mat.NewVecDense(nMeas, []float64{vMeas, m.PKW / 1000, m.QKVAR / 1000})

	res := Result{Measured: vMeas}
	x := [nState]float64{1.0, 0.0}
	r := mat.NewVecDense(nMeas, nil)

	for res.Iterations < e.cfg.MaxIterations {
		h := net.Measure(x[0], x[1])
		residual(r, z, h)
		if mat.Norm(r, math.Inf(1)) < e.cfg.Tolerance {
			res.Converged = true
			break
		}

		H := e.jacobian(net, x, h)

		var ht mat.Dense
		ht.Mul(H.T(), e.w)
		var g mat.Dense
		g.Mul(&ht, H)
		var rhs mat.VecDense
		rhs.MulVec(&ht, r)

		if c := mat.Cond(&g, 1); math.IsNaN(c) || c > SingularCondition {
			res.Singular = true
			break
		}
		var dx mat.VecDense
		if err := dx.SolveVec(&g, &rhs); err != nil {
			res.Singular = true
			break
		}

		x[0] += dx.AtVec(0)
		x[1] += dx.AtVec(1)
		res.Iterations++
	}

	residual(r, z, net.Measure(x[0], x[1]))
	if !res.Converged && !res.Singular {
		res.Converged = mat.Norm(r, math.Inf(1)) < e.cfg.Tolerance
	}

	var wr mat.VecDense
	wr.MulVec(e.w, r)
	res.Cost = mat.Dot(r, &wr)
	res.Voltage = x[0]
	res.Angle = x[1]
	res.Residual = math.Abs(vMeas - x[0])
	res.BadData = res.Residual > e.cfg.BadDataThreshold

	return res
}

func residual(r, z *mat.VecDense, h [nMeas]float64) {
	for i := 0; i < nMeas; i++ {
		r.SetVec(i, z.AtVec(i)-h[i])
	}
}

// jacobian forms dh/dx by forward differences.
func (e *Estimator) jacobian(net Network, x [nState]float64, h [nMeas]float64) *mat.Dense {
	eps := e.cfg.JacobianStep
	H := mat.NewDense(nMeas, nState, nil)
	for j := 0; j < nState; j++ {
		xp := x
		xp[j] += eps
		hp := net.Measure(xp[0], xp[1])
		for i := 0; i < nMeas; i++ {
			H.Set(i, j, (hp[i]-h[i])/eps)
		}
	}
	return H
}
