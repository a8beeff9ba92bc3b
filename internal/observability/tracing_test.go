package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "test-service"})
	require.NoError(t, err)
	assert.Nil(t, tracer.provider)

	ctx, span := tracer.StartSpan(context.Background(), "op")
	assert.NotNil(t, ctx)
	span.End()
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     float64
		contains string
	}{
		{name: "always", rate: 1, contains: "AlwaysOnSampler"},
		{name: "never", rate: 0, contains: "AlwaysOffSampler"},
		{name: "ratio", rate: 0.25, contains: "TraceIDRatioBased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, createSampler(tt.rate).Description(), tt.contains)
		})
	}
}

func TestBuildOTLPExporterOptions(t *testing.T) {
	t.Parallel()

	secure := buildOTLPExporterOptions(TracerConfig{OTLPEndpoint: "otel:4317"})
	insecure := buildOTLPExporterOptions(TracerConfig{OTLPEndpoint: "otel:4317", Insecure: true})
	assert.Len(t, secure, 4)
	assert.Len(t, insecure, 5)
}
