package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.FrequencyHz)
	assert.NotNil(t, r.RecloserState)
	assert.NotNil(t, r.EstimatorIterations)
	assert.NotNil(t, r.Gatherer())
}

func TestRecord(t *testing.T) {
	r := NewRegistry()

	r.Record(Sample{
		FrequencyHz:   49.98,
		BatterySoC:    55,
		TapPosition:   1.005,
		ReverseFlow:   true,
		RecloserState: "WAITING",
		EstimatorCost: 3.5,
		BadData:       true,
	})
	r.Record(Sample{FrequencyHz: 50.01, RecloserState: "CLOSED"})

	assert.Equal(t, 50.01, testutil.ToFloat64(r.FrequencyHz))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ReverseFlow))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.TicksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BadDataTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RecloserState.WithLabelValues("CLOSED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RecloserState.WithLabelValues("WAITING")))
}

func TestRecordProtectionEvents(t *testing.T) {
	r := NewRegistry()

	r.RecordTrip()
	r.RecordTrip()
	r.RecordReclose(true)
	r.RecordReclose(false)
	r.RecordReclose(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.TripsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReclosesTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ReclosesTotal.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.Record(Sample{TransformerTempC: 61.5, RecloserState: "CLOSED"})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "feedersim_transformer_temperature_celsius 61.5"))
	assert.True(t, strings.Contains(body, `feedersim_recloser_state{state="CLOSED"} 1`))
}
