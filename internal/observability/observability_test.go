package observability

import (
	"context"
	"testing"
	"time"

	"merchantdir/internal/models"
	"merchantdir/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func stdoutTracing(rate float64) models.ObservabilityConfig {
	return models.ObservabilityConfig{
		ServiceName: "merchant-directory-test",
		Tracing:     models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: rate},
	}
}

func TestSetup(t *testing.T) {
	metricsOn := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	metricsOff := models.MetricsConfig{}
	tracingOff := models.ObservabilityConfig{ServiceName: "merchant-directory-test"}

	tests := []struct {
		name        string
		metrics     models.MetricsConfig
		obs         models.ObservabilityConfig
		wantMetrics bool
		wantTracing bool
	}{
		{name: "metrics only", metrics: metricsOn, obs: tracingOff, wantMetrics: true},
		{name: "tracing only", metrics: metricsOff, obs: stdoutTracing(1), wantTracing: true},
		{name: "both", metrics: metricsOn, obs: stdoutTracing(0.5), wantMetrics: true, wantTracing: true},
		{name: "neither", metrics: metricsOff, obs: tracingOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := Setup(tt.metrics, tt.obs, version.Info{Version: "v0.0.1"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantMetrics, provider.Gatherer() != nil)
			assert.Equal(t, tt.wantTracing, provider.tracerProvider != nil)
			assert.NoError(t, provider.Shutdown(context.Background()))
		})
	}
}

func TestSetup_RegistryCarriesRuntimeCollectors(t *testing.T) {
	provider, err := Setup(models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090},
		models.ObservabilityConfig{ServiceName: "merchant-directory-test"}, version.Info{})
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	families, err := provider.Gatherer().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}

func TestSetup_InvalidExporter(t *testing.T) {
	obs := stdoutTracing(1)
	obs.Tracing.Exporter = "jaeger"

	provider, err := Setup(models.MetricsConfig{}, obs, version.Info{})
	assert.Nil(t, provider)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestSetup_OTLPExporter(t *testing.T) {
	for _, endpoint := range []string{"localhost:4317", "https://collector.example:4317"} {
		t.Run(endpoint, func(t *testing.T) {
			obs := models.ObservabilityConfig{
				ServiceName: "merchant-directory-test",
				Tracing:     models.TracingConfig{Enabled: true, Exporter: "otlp", OTLPEndpoint: endpoint, SampleRate: 1},
			}

			// The gRPC exporter connects lazily, so setup succeeds without a collector.
			provider, err := Setup(models.MetricsConfig{}, obs, version.Info{Version: "v0.0.1"})
			require.NoError(t, err)
			require.NotNil(t, provider.tracerProvider)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = provider.Shutdown(ctx)
		})
	}
}

func TestOTLPOptions(t *testing.T) {
	assert.Len(t, otlpOptions("collector:4317"), 2)
	assert.Len(t, otlpOptions("http://collector:4317"), 1)
}

func TestSampler_FollowsParentDecision(t *testing.T) {
	sampledParent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	tests := []struct {
		name string
		rate float64
		ctx  context.Context
		want sdktrace.SamplingDecision
	}{
		{name: "root always", rate: 1, ctx: context.Background(), want: sdktrace.RecordAndSample},
		{name: "root never", rate: 0, ctx: context.Background(), want: sdktrace.Drop},
		{name: "sampled parent overrides zero rate", rate: 0, ctx: sampledParent, want: sdktrace.RecordAndSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sampler(tt.rate).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: tt.ctx,
				TraceID:       trace.TraceID{2},
				Name:          "GET /api/merchants",
			})
			assert.Equal(t, tt.want, result.Decision)
		})
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("DIRECTORY_ENVIRONMENT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	assert.Equal(t, "development", environment())

	t.Setenv("DEPLOYMENT_ENV", "staging")
	assert.Equal(t, "staging", environment())

	t.Setenv("DIRECTORY_ENVIRONMENT", "production")
	assert.Equal(t, "production", environment())
}

func TestProvider_ShutdownNilProviders(t *testing.T) {
	p := &Provider{}
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.Nil(t, p.Gatherer())
}
