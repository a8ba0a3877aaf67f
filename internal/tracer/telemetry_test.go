package tracer

import (
	"context"
	"testing"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_WithoutExporter(t *testing.T) {
	cfg := &config.Config{AppName: "storefront-test", Env: "test"}

	shutdown, err := setup(context.Background(), cfg)
	require.NoError(t, err)
	defer shutdown()

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestNewExporter(t *testing.T) {
	exp, err := newExporter(context.Background(), &config.Config{Env: "production"})
	require.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = newExporter(context.Background(), &config.Config{Env: "development"})
	require.NoError(t, err)
	assert.NotNil(t, exp)
}
