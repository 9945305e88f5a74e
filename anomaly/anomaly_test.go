package anomaly_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptecltd/feedersim/anomaly"
	"gopkg.in/yaml.v2"
)

const scheduleYAML = `
- type: trend
  id: 5f0b6a52-2b8f-4a0e-9a77-3c3e1f0e9d11
  name: slow drift
  channel: voltage
  start_delay: 10
  duration: 20
  magnitude: 0.1
  mag_func: sine
- type: spike
  name: meter glitch
  channel: p
  probability: 0.5
  magnitude: 30
  vary_magnitude: true
`

func TestUnmarshalYAML(t *testing.T) {
	var c anomaly.Container
	require.NoError(t, yaml.Unmarshal([]byte(scheduleYAML), &c))
	require.Len(t, c, 2)

	assert.Equal(t, "trend", c[0].Kind())
	assert.Equal(t, "slow drift", c[0].Name())
	assert.Equal(t, anomaly.ChannelVoltage, c[0].Channel())
	assert.Equal(t, uuid.MustParse("5f0b6a52-2b8f-4a0e-9a77-3c3e1f0e9d11"), c[0].ID())
	assert.Equal(t, 10.0, c[0].Window().StartDelay)

	assert.Equal(t, "spike", c[1].Kind())
	assert.Equal(t, anomaly.ChannelP, c[1].Channel())
	assert.Equal(t, 0.0, c[1].Window().Duration)

	found, ok := c.Find(c[0].ID())
	assert.True(t, ok)
	assert.Equal(t, c[0], found)
}

func TestUnmarshalYAMLErrors(t *testing.T) {
	testCases := map[string]string{
		"unknown type":    "- type: sag\n  duration: 1\n",
		"missing type":    "- duration: 1\n",
		"unknown channel": "- type: trend\n  channel: current\n  duration: 1\n",
		"unknown key":     "- type: trend\n  duration: 1\n  magnitud: 2\n",
		"invalid value":   "- type: spike\n  probability: 2\n",
		"not a list":      "type: trend\n",
	}

	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			var c anomaly.Container
			assert.Error(t, yaml.Unmarshal([]byte(doc), &c))
		})
	}
}

func TestDecodeHook(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte("anomalies:\n"+indent(scheduleYAML)), &raw))

	var out struct {
		Anomalies anomaly.Container `mapstructure:"anomalies"`
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: anomaly.DecodeHook(),
		Result:     &out,
	})
	require.NoError(t, err)
	require.NoError(t, decoder.Decode(raw))

	require.Len(t, out.Anomalies, 2)
	assert.Equal(t, "trend", out.Anomalies[0].Kind())
	assert.Equal(t, "spike", out.Anomalies[1].Kind())
}

func TestContainerStep(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))

	var c anomaly.Container
	v, err := anomaly.NewTrendAnomaly(anomaly.TrendParams{Channel: anomaly.ChannelVoltage, Duration: 10, Magnitude: 0.2, MagFuncName: "flat"})
	require.NoError(t, err)
	p, err := anomaly.NewSpikeAnomaly(anomaly.SpikeParams{Channel: anomaly.ChannelP, Magnitude: 4, Probability: 1, Sign: 1})
	require.NoError(t, err)
	q, err := anomaly.NewSpikeAnomaly(anomaly.SpikeParams{Channel: anomaly.ChannelP, Magnitude: 1, Probability: 1, Sign: 1})
	require.NoError(t, err)
	c.Add(v)
	c.Add(p)
	id := c.Add(q)
	assert.Equal(t, q.ID(), id)

	e := c.Step(rng, 1.0)
	assert.InDelta(t, 0.2, e.Delta(anomaly.ChannelVoltage), 1e-12)
	assert.InDelta(t, 5.0, e.Delta(anomaly.ChannelP), 1e-12)
	assert.Equal(t, 0.0, e.Delta(anomaly.ChannelQ))
	assert.True(t, e.Active(anomaly.ChannelVoltage))
	assert.True(t, e.Active(anomaly.ChannelP))
	assert.False(t, e.Active(anomaly.ChannelFrequency))
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
