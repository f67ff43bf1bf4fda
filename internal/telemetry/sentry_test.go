package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WithoutDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestStartSpan_WithoutSentry(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "Finder.Find", SpanAttributes{Operation: "search", Entities: 2})
	require.NotNil(t, span)
	assert.NotNil(t, ctx)

	child, childSpan := StartSpan(ctx, "child", SpanAttributes{Entity: "products"})
	assert.NotNil(t, child)

	childSpan.SetError(errors.New("boom"))
	childSpan.End()
	span.End()
}

func TestUnsampledRoutes(t *testing.T) {
	assert.True(t, unsampledRoutes["GET /health"])
	assert.True(t, unsampledRoutes["GET /metrics"])
	assert.False(t, unsampledRoutes["GET /search"])
}

func TestStartTransaction_WithoutSentry(t *testing.T) {
	ctx, span := StartTransaction(context.Background(), "worker.search-log-retention", "job")
	require.NotNil(t, span)
	CaptureError(ctx, errors.New("prune failed"))
	span.End()
}

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{QueryString: "q=secret+plans&type=products&page=2"}}
	out := scrubEvent(event, nil)
	assert.Equal(t, "page=2&type=products", out.Request.QueryString)

	bare := &sentry.Event{}
	assert.Same(t, bare, scrubEvent(bare, nil))

	broken := &sentry.Event{Request: &sentry.Request{QueryString: "q=%zz"}}
	assert.Empty(t, scrubEvent(broken, nil).Request.QueryString)
}

func TestSampler(t *testing.T) {
	sample := sampler(0.25)
	assert.Equal(t, 0.0, sample(sentry.SamplingContext{Span: &sentry.Span{Name: "GET /health"}}))
	assert.Equal(t, 0.25, sample(sentry.SamplingContext{Span: &sentry.Span{Name: "GET /search"}}))

	child := &sentry.Span{Name: "Finder.Find", ParentSpanID: sentry.SpanID{1}, Sampled: sentry.SampledTrue}
	assert.Equal(t, 1.0, sample(sentry.SamplingContext{Span: child}))
}
