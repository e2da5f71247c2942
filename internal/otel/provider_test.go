package otel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gootel "go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/maniacs-satm/meemo/internal/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(t.Context(), "meemo-test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	t.Cleanup(func() { gootel.SetTracerProvider(noop.NewTracerProvider()) })

	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := otel.Setup(t.Context(), "meemo-test", "http://192.0.2.1:4318")
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, gootel.GetTracerProvider())
	assert.NoError(t, shutdown(t.Context()))
}
