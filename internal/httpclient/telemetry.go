package httpclient

import (
	"context"
	"log"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"quiz-platform/webclient/internal/platform/apierr"
)

const instrumentationName = "quiz-platform/webclient/httpclient"

// WithTelemetry sets the providers used for spans, request metrics, and per-exchange log records.
// Nil providers fall back to the otel globals (tracer, meter) or a no-op logger.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, lp otellog.LoggerProvider) Option {
	return func(c *Client) {
		c.obs = newObserver(&providers{tracer: tp, meter: mp, logger: lp})
	}
}

type providers struct {
	tracer trace.TracerProvider
	meter  metric.MeterProvider
	logger otellog.LoggerProvider
}

type exchange struct {
	method    string
	path      string
	requestID string
	status    int
	duration  time.Duration
	kind      apierr.Kind
	err       error
}

type observer struct {
	tracer   trace.Tracer
	logger   otellog.Logger
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newObserver(p *providers) *observer {
	if p == nil {
		p = &providers{}
	}
	if p.tracer == nil {
		p.tracer = otel.GetTracerProvider()
	}
	if p.meter == nil {
		p.meter = otel.GetMeterProvider()
	}
	if p.logger == nil {
		p.logger = lognoop.NewLoggerProvider()
	}
	meter := p.meter.Meter(instrumentationName)
	requests, err := meter.Int64Counter("webclient.http.requests",
		metric.WithDescription("Outbound REST calls by method, path, status and error kind."))
	if err != nil {
		log.Printf("httpclient: requests counter: %v", err)
	}
	duration, err := meter.Float64Histogram("webclient.http.duration",
		metric.WithDescription("Outbound REST call latency."), metric.WithUnit("ms"))
	if err != nil {
		log.Printf("httpclient: duration histogram: %v", err)
	}
	return &observer{
		tracer:   p.tracer.Tracer(instrumentationName),
		logger:   p.logger.Logger(instrumentationName),
		requests: requests,
		duration: duration,
	}
}

func (o *observer) start(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "http.client "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
}

func (o *observer) finish(ctx context.Context, span trace.Span, ex exchange) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", ex.method),
		attribute.String("url.path", ex.path),
		attribute.Int("http.response.status_code", ex.status),
	}
	if ex.kind != "" {
		attrs = append(attrs, attribute.String("error.type", string(ex.kind)))
		span.SetStatus(codes.Error, string(ex.kind))
		if ex.err != nil {
			span.RecordError(ex.err)
		}
	}
	span.SetAttributes(attrs...)
	span.End()

	if o.requests != nil {
		o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(ex.duration.Microseconds())/1000, metric.WithAttributes(attrs...))
	}

	rec := otellog.Record{}
	rec.SetTimestamp(time.Now().UTC())
	rec.SetSeverity(otellog.SeverityInfo)
	if ex.kind != "" {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	rec.SetBody(otellog.StringValue(ex.method + " " + ex.path + " " + strconv.Itoa(ex.status)))
	rec.AddAttributes(
		otellog.String("method", ex.method),
		otellog.String("path", ex.path),
		otellog.Int("status", ex.status),
		otellog.Int64("duration_ms", ex.duration.Milliseconds()),
		otellog.String("request_id", ex.requestID),
	)
	if ex.kind != "" {
		rec.AddAttributes(otellog.String("error_kind", string(ex.kind)))
	}
	o.logger.Emit(ctx, rec)
}
