// Package config loads simulator settings from YAML. Every field has a
// default, so a file only needs the settings it changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/synaptecltd/feedersim/anomaly"
	"github.com/synaptecltd/feedersim/busmodel"
	"github.com/synaptecltd/feedersim/dynamics"
	"github.com/synaptecltd/feedersim/estimator"
	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/protection"
	"gopkg.in/yaml.v2"
)

// Config is the complete simulator configuration.
type Config struct {
	Simulation Simulation        `mapstructure:"simulation"`
	Grid       Grid              `mapstructure:"grid"`
	PV         PV                `mapstructure:"pv"`
	Battery    Battery           `mapstructure:"bess"`
	HVAC       HVAC              `mapstructure:"hvac"`
	Fault      Fault             `mapstructure:"fault"`
	Protection Protection        `mapstructure:"protection"`
	Estimator  estimator.Config  `mapstructure:"estimator"`
	Anomalies  anomaly.Container `mapstructure:"anomalies"`
}

// Simulation controls the tick driver.
type Simulation struct {
	Speed       float64       `mapstructure:"speed"`       // simulated seconds per tick
	TickPeriod  time.Duration `mapstructure:"tick_period"` // wall-clock time between ticks
	Seed        uint64        `mapstructure:"seed"`
	ObservedBus string        `mapstructure:"bus"`

	// SCADA noise standard deviations
	VoltageNoise   float64 `mapstructure:"voltage_noise"`
	PowerNoise     float64 `mapstructure:"power_noise"`
	FrequencyNoise float64 `mapstructure:"frequency_noise"`
}

// Grid holds the machine, transformer and line constants.
type Grid struct {
	InertiaH             float64 `mapstructure:"inertia_h"`
	DampingD             float64 `mapstructure:"damping_d"`
	BaseMVA              float64 `mapstructure:"base_mva"`
	NominalHz            float64 `mapstructure:"nominal_hz"`
	Dt                   float64 `mapstructure:"dt"`
	GovernorGain         float64 `mapstructure:"governor_gain"`
	GovernorScale        float64 `mapstructure:"governor_scale"`
	TransformerRatingKVA float64 `mapstructure:"transformer_rating_kva"`
	TransformerTau       float64 `mapstructure:"transformer_tau"`
	TransformerRiseMaxC  float64 `mapstructure:"transformer_rise_c"`

	LineImpedance Impedance `mapstructure:"line_impedance"` // per unit of electrical distance
}

// PV holds the module constants and per-bus capacity overrides.
type PV struct {
	NOCT        float64            `mapstructure:"noct"`
	TempCoeff   float64            `mapstructure:"temp_coeff"`
	CloudFactor float64            `mapstructure:"cloud_factor"`
	NoiseSpan   float64            `mapstructure:"noise_span"`
	Capacity    map[string]float64 `mapstructure:"capacity"` // kW, replaces the layout's value
}

// Battery sizes the storage system.
type Battery struct {
	CapacityKWh float64 `mapstructure:"capacity_kwh"`
	MaxPowerKW  float64 `mapstructure:"max_power_kw"`
	InitialSoC  float64 `mapstructure:"initial_soc"`
}

// HVAC describes the conditioned zone whose temperature is also the
// ambient for the PV and transformer models.
type HVAC struct {
	AmbientC      float64 `mapstructure:"ambient_c"`
	InitialTempC  float64 `mapstructure:"initial_temp_c"`
	SetpointC     float64 `mapstructure:"setpoint_c"`
	HeatGainC     float64 `mapstructure:"heat_gain_c"` // per tick while off
	CoolingC      float64 `mapstructure:"cooling_c"`   // per tick while on
	BaseLoadKW    float64 `mapstructure:"base_load_kw"`
	LoadPerDegree float64 `mapstructure:"load_per_degree_kw"`
}

// Impedance is a complex impedance in pu.
type Impedance struct {
	R float64 `mapstructure:"r"`
	X float64 `mapstructure:"x"`
}

// Complex returns R + jX.
func (z Impedance) Complex() complex128 {
	return complex(z.R, z.X)
}

// Fault holds the source sequence impedances.
type Fault struct {
	Z1          Impedance  `mapstructure:"z1"`
	Z2          Impedance  `mapstructure:"z2"`
	Z0          Impedance  `mapstructure:"z0"`
	DefaultType fault.Type `mapstructure:"default_type"`
}

// Protection holds the relay and recloser settings.
type Protection struct {
	TMS          float64 `mapstructure:"tms"`
	ReclosePause int     `mapstructure:"reclose_pause"`
}

// Default returns the reference model's settings.
func Default() Config {
	d := dynamics.DefaultParams()
	pv := busmodel.DefaultPVModel()
	return Config{
		Simulation: Simulation{
			Speed:          1.0,
			TickPeriod:     time.Second,
			Seed:           1,
			ObservedBus:    "bus2025",
			VoltageNoise:   0.01,
			PowerNoise:     1.0,
			FrequencyNoise: 0.02,
		},
		Grid: Grid{
			InertiaH:             d.InertiaH,
			DampingD:             d.DampingD,
			BaseMVA:              d.BaseMVA,
			NominalHz:            d.NominalHz,
			Dt:                   d.Dt,
			GovernorGain:         d.GovernorGain,
			GovernorScale:        d.GovernorScale,
			TransformerRatingKVA: d.TransformerRatingKVA,
			TransformerTau:       d.TransformerTau,
			TransformerRiseMaxC:  d.TransformerRiseMaxC,
			LineImpedance:        Impedance{R: real(busmodel.DefaultLineImpedance), X: imag(busmodel.DefaultLineImpedance)},
		},
		PV: PV{
			NOCT:        pv.NOCT,
			TempCoeff:   pv.TempCoeff,
			CloudFactor: pv.CloudFactor,
			NoiseSpan:   pv.NoiseSpan,
		},
		Battery: Battery{CapacityKWh: 500, MaxPowerKW: 100, InitialSoC: 50},
		HVAC: HVAC{
			AmbientC:      35,
			InitialTempC:  28,
			SetpointC:     24,
			HeatGainC:     0.05,
			CoolingC:      0.4,
			BaseLoadKW:    15,
			LoadPerDegree: 1.5,
		},
		Fault: Fault{
			Z1:          Impedance{R: real(fault.DefaultSequenceImpedance.Z1), X: imag(fault.DefaultSequenceImpedance.Z1)},
			Z2:          Impedance{R: real(fault.DefaultSequenceImpedance.Z2), X: imag(fault.DefaultSequenceImpedance.Z2)},
			Z0:          Impedance{R: real(fault.DefaultSequenceImpedance.Z0), X: imag(fault.DefaultSequenceImpedance.Z0)},
			DefaultType: fault.LG,
		},
		Protection: Protection{TMS: protection.DefaultTMS, ReclosePause: protection.DefaultReclosePause},
		Estimator:  estimator.DefaultConfig(),
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse overlays a YAML document onto Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			anomaly.DecodeHook(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(), // parses fault types
		),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise break the models.
func (c Config) Validate() error {
	if c.Simulation.Speed <= 0 {
		return errors.New("simulation: speed must be positive")
	}
	if c.Simulation.TickPeriod <= 0 {
		return errors.New("simulation: tick period must be positive")
	}
	if c.Simulation.VoltageNoise < 0 || c.Simulation.PowerNoise < 0 || c.Simulation.FrequencyNoise < 0 {
		return errors.New("simulation: noise must not be negative")
	}
	if c.Grid.InertiaH <= 0 || c.Grid.BaseMVA <= 0 || c.Grid.NominalHz <= 0 || c.Grid.Dt <= 0 {
		return errors.New("grid: inertia, base MVA, nominal frequency and dt must be positive")
	}
	if c.Grid.TransformerRatingKVA <= 0 || c.Grid.TransformerTau <= 0 {
		return errors.New("grid: transformer rating and time constant must be positive")
	}
	for bus, kw := range c.PV.Capacity {
		if kw <= 0 {
			return fmt.Errorf("pv: capacity of %s must be positive", bus)
		}
	}
	if c.Battery.CapacityKWh <= 0 || c.Battery.MaxPowerKW < 0 {
		return errors.New("bess: capacity must be positive and power not negative")
	}
	if c.Battery.InitialSoC < 0 || c.Battery.InitialSoC > 100 {
		return errors.New("bess: initial state of charge must be within [0, 100]")
	}
	if c.Protection.TMS <= 0 {
		return errors.New("protection: tms must be positive")
	}
	if c.Protection.ReclosePause < 0 {
		return errors.New("protection: reclose pause must not be negative")
	}
	if err := c.Estimator.Validate(); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}
	return nil
}

// DynamicsParams returns the swing equation and transformer constants.
func (c Config) DynamicsParams() dynamics.Params {
	g := c.Grid
	return dynamics.Params{
		InertiaH:             g.InertiaH,
		DampingD:             g.DampingD,
		BaseMVA:              g.BaseMVA,
		NominalHz:            g.NominalHz,
		Dt:                   g.Dt,
		GovernorGain:         g.GovernorGain,
		GovernorScale:        g.GovernorScale,
		TransformerRatingKVA: g.TransformerRatingKVA,
		TransformerTau:       g.TransformerTau,
		TransformerRiseMaxC:  g.TransformerRiseMaxC,
	}
}

// Line returns the feeder line model.
func (c Config) Line() busmodel.Line {
	return busmodel.Line{ImpedancePerDistance: c.Grid.LineImpedance.Complex()}
}

// PVModel returns the PV module constants.
func (c Config) PVModel() busmodel.PVModel {
	m := busmodel.DefaultPVModel()
	m.NOCT = c.PV.NOCT
	m.TempCoeff = c.PV.TempCoeff
	m.CloudFactor = c.PV.CloudFactor
	m.NoiseSpan = c.PV.NoiseSpan
	return m
}

// SequenceImpedance returns the fault solver's source impedances.
func (c Config) SequenceImpedance() fault.SequenceImpedance {
	return fault.SequenceImpedance{
		Z1: c.Fault.Z1.Complex(),
		Z2: c.Fault.Z2.Complex(),
		Z0: c.Fault.Z0.Complex(),
	}
}

// NewBattery builds the storage system.
func (c Config) NewBattery() (*busmodel.Battery, error) {
	return busmodel.NewBattery(c.Battery.CapacityKWh, c.Battery.MaxPowerKW, c.Battery.InitialSoC)
}
