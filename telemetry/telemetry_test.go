package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), Config{}, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), "")
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "muhabbet", attrs["service.name"])
	assert.Equal(t, "dev", attrs["service.version"])
}

func TestTracerProvider_RecordsSpans(t *testing.T) {
	res, err := newResource(context.Background(), "1.2.3")
	require.NoError(t, err)

	rec := tracetest.NewSpanRecorder()
	p := &Provider{tp: newTracerProvider(res, sdktrace.WithSpanProcessor(rec)), enabled: true}

	_, span := p.Tracer("muhabbet/test").Start(context.Background(), "chat.send")
	span.SetAttributes(attribute.String("reply.kind", "ok"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "chat.send", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("reply.kind", "ok"))
	assert.NoError(t, p.Shutdown(context.Background()))
}
