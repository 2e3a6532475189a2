package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Togather-Foundation/eventdesk/internal/config"
)

func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadSampleRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.5} {
		_, err := InitTracing(context.Background(), config.TracingConfig{
			Enabled:    true,
			Exporter:   "none",
			SampleRate: rate,
		}, "test")
		assert.Error(t, err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:    true,
		Exporter:   "zipkin",
		SampleRate: 1,
	}, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	restoreGlobalProvider(t)

	var out bytes.Buffer
	shutdown, err := initTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		ServiceName: "eventdesk-test",
		SampleRate:  1,
	}, "v0.0.1", &out)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "unit-span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), "unit-span")
	assert.Contains(t, out.String(), "eventdesk-test")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}
