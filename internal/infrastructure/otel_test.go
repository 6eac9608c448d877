package infrastructure

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitializeTracing_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf, logs bytes.Buffer
	ctx := context.Background()

	shutdown, err := InitializeTracing(ctx, &buf, NewLogger(&logs, "info"))
	require.NoError(t, err)

	_, span := Tracer(TracerName).Start(ctx, "preprocess")
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), `"Name": "preprocess"`)
	assert.Contains(t, logs.String(), "Tracing initialized")
}
