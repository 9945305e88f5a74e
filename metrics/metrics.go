// Package metrics exposes the simulator's per-tick state as Prometheus
// metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the simulator
type Registry struct {
	// Grid dynamics
	FrequencyHz       prometheus.Gauge
	RotorAngleRad     prometheus.Gauge
	MechanicalPowerKW prometheus.Gauge
	TransformerTempC  prometheus.Gauge

	// Feeder
	NetLoadKW     prometheus.Gauge
	TotalPVKW     prometheus.Gauge
	BatterySoC    prometheus.Gauge
	TapPosition   prometheus.Gauge
	CapacitorKVAR prometheus.Gauge
	BusVoltagePU  prometheus.Gauge
	ReverseFlow   prometheus.Gauge

	// Protection
	RelayAccumulator prometheus.Gauge
	RecloserState    *prometheus.GaugeVec
	TripsTotal       prometheus.Counter
	ReclosesTotal    *prometheus.CounterVec

	// State estimation
	EstimatorCost       prometheus.Gauge
	EstimatorResidual   prometheus.Gauge
	EstimatorIterations prometheus.Histogram
	BadDataTotal        prometheus.Counter

	TicksTotal prometheus.Counter

	registry *prometheus.Registry
}

// RecloserStates lists the label values of RecloserState.
var RecloserStates = []string{"CLOSED", "TRIPPED", "WAITING", "RECLOSE", "LOCKOUT"}

// NewRegistry creates a new registry with all metrics initialised
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.initGridMetrics()
	r.initFeederMetrics()
	r.initProtectionMetrics()
	r.initEstimatorMetrics()

	r.TicksTotal = promauto.With(r.registry).NewCounter(prometheus.CounterOpts{
		Name: "feedersim_ticks_total",
		Help: "Simulation ticks executed",
	})

	return r
}

// Gatherer returns the underlying Prometheus registry
func (r *Registry) Gatherer() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) initGridMetrics() {
	f := promauto.With(r.registry)
	r.FrequencyHz = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_grid_frequency_hz",
		Help: "System frequency from the swing equation",
	})
	r.RotorAngleRad = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_grid_rotor_angle_radians",
		Help: "Aggregate machine rotor angle",
	})
	r.MechanicalPowerKW = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_grid_mechanical_power_kw",
		Help: "Governor mechanical power",
	})
	r.TransformerTempC = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_transformer_temperature_celsius",
		Help: "Substation transformer top-oil temperature",
	})
}

func (r *Registry) initFeederMetrics() {
	f := promauto.With(r.registry)
	r.NetLoadKW = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_net_load_kw",
		Help: "Net grid load after PV and battery",
	})
	r.TotalPVKW = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_pv_generation_kw",
		Help: "Total PV generation across all PV buses",
	})
	r.BatterySoC = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_battery_soc_percent",
		Help: "Battery state of charge",
	})
	r.TapPosition = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_tap_position_pu",
		Help: "On-load tap changer position",
	})
	r.CapacitorKVAR = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_capacitor_bank_kvar",
		Help: "Switched capacitor bank rating",
	})
	r.BusVoltagePU = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_bus_voltage_pu",
		Help: "Physical voltage at the observed bus",
	})
	r.ReverseFlow = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_reverse_flow",
		Help: "Whether the feeder is exporting (1=yes, 0=no)",
	})
}

func (r *Registry) initProtectionMetrics() {
	f := promauto.With(r.registry)
	r.RelayAccumulator = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_relay_accumulator_percent",
		Help: "Inverse-time relay progress towards trip",
	})
	r.RecloserState = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedersim_recloser_state",
			Help: "Recloser state (1 for current state, 0 otherwise)",
		},
		[]string{"state"},
	)
	r.TripsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "feedersim_recloser_trips_total",
		Help: "Recloser trips",
	})
	r.ReclosesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedersim_recloser_recloses_total",
			Help: "Reclose attempts by result",
		},
		[]string{"result"}, // success, failed
	)
}

func (r *Registry) initEstimatorMetrics() {
	f := promauto.With(r.registry)
	r.EstimatorCost = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_estimator_cost",
		Help: "WLS chi-square cost of the last estimate",
	})
	r.EstimatorResidual = f.NewGauge(prometheus.GaugeOpts{
		Name: "feedersim_estimator_residual_pu",
		Help: "Measured minus estimated voltage",
	})
	r.EstimatorIterations = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedersim_estimator_iterations",
		Help:    "Gauss-Newton iterations per estimate",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})
	r.BadDataTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "feedersim_estimator_bad_data_total",
		Help: "Estimates flagged as bad data",
	})
}
