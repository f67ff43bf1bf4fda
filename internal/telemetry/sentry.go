// Package telemetry wires Sentry error reporting and tracing into finder.
package telemetry

import (
	"context"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serverName   = "finder"
	flushTimeout = 5 * time.Second
	// keywordParam carries the search keyword; it stays out of Sentry events.
	keywordParam = "q"
)

// Probe and scrape endpoints are never traced.
var unsampledRoutes = map[string]bool{
	"GET /health":  true,
	"GET /metrics": true,
}

type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init starts the Sentry client and returns a function that flushes pending
// events. An empty DSN, or a client that fails to start, leaves telemetry off.
func Init(cfg Config, logger *zap.Logger) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		TracesSampler:    sampler(cfg.TracesSampleRate),
		BeforeSend:       scrubEvent,
		Debug:            cfg.Debug,
		ServerName:       serverName,
	})
	if err != nil {
		logger.Warn("sentry: failed to initialize, continuing without telemetry", zap.Error(err))
		return func() {}, nil
	}

	logger.Info("sentry: initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.TracesSampleRate))
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampler drops probe routes and keeps child spans with their parent.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if unsampledRoutes[ctx.Span.Name] {
			return 0
		}
		if ctx.Span.ParentSpanID != (sentry.SpanID{}) {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// scrubEvent removes the search keyword from the request of an event.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil || event.Request.QueryString == "" {
		return event
	}
	values, err := url.ParseQuery(event.Request.QueryString)
	if err != nil {
		event.Request.QueryString = ""
		return event
	}
	values.Del(keywordParam)
	event.Request.QueryString = values.Encode()
	return event
}

// SpanAttributes are the tags and data attached to a search span.
type SpanAttributes struct {
	Operation string
	Entity    string
	Entities  int
}

// Span is a nil-safe handle on a Sentry span.
type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s.inner == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	CaptureError(s.inner.Context(), err)
}

// StartSpan starts a child of the span in ctx, or a new transaction when ctx
// carries none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.Entity != "" {
		span.SetTag("entity", attrs.Entity)
	}
	if attrs.Entities > 0 {
		span.SetData("entities", attrs.Entities)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
	return span.Context(), &Span{inner: span}
}

// StartTransaction starts a root span, for background runs outside any request.
func StartTransaction(ctx context.Context, name, op string) (context.Context, *Span) {
	span := sentry.StartSpan(ctx, op, sentry.WithTransactionName(name), sentry.WithOpName(op))
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the hub of ctx, falling back to the global hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
