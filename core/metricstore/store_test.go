package metricstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadUpsertsByTypeAsset(t *testing.T) {
	s := New()
	s.WriteMetricProto(Metric{Type: "load.input", Asset: "UPS33", Value: "10", TimeSec: 1})
	s.WriteMetricProto(Metric{Type: "load.input", Asset: "UPS33", Value: "20", TimeSec: 2})

	got := s.ReadMetrics("*", "*")
	require.Len(t, got, 1)
	require.Equal(t, "20", got[0].Value)
}

func TestReadMetricsFiltersByPattern(t *testing.T) {
	s := New()
	s.WriteMetricProto(Metric{Type: "load.input", Asset: "UPS33"})
	s.WriteMetricProto(Metric{Type: "outage", Asset: "UPS33"})
	s.WriteMetricProto(Metric{Type: "load.input", Asset: "UPS44"})

	got := s.ReadMetrics("outage", "*")
	require.Len(t, got, 1)
	require.Equal(t, "outage", got[0].Type)

	got = s.ReadMetrics("*", "UPS44")
	require.Len(t, got, 1)
	require.Equal(t, "UPS44", got[0].Asset)
}

func TestIsComputedAndSensorPort(t *testing.T) {
	m := Metric{Aux: map[string]string{"x-cm-count": "0"}}
	require.True(t, m.IsComputed())

	m2 := Metric{Aux: map[string]string{"port": "1"}}
	require.False(t, m2.IsComputed())
	port, ok := m2.SensorPort()
	require.True(t, ok)
	require.Equal(t, "1", port)
}
