package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	sessiondomain "quiz-platform/webclient/internal/session/domain"
)

const eventsScope = "quiz-webclient/session"

// SessionEvents emits session lifecycle events as OTel log records.
type SessionEvents struct {
	logger otellog.Logger
}

// NewSessionEvents returns an emitter on provider. A nil provider yields a no-op emitter.
func NewSessionEvents(provider otellog.LoggerProvider) *SessionEvents {
	if provider == nil {
		provider = noop.NewLoggerProvider()
	}
	return &SessionEvents{logger: provider.Logger(eventsScope)}
}

// Emit converts ev to a log record. It never blocks on export.
func (e *SessionEvents) Emit(ctx context.Context, ev sessiondomain.Event) {
	rec := otellog.Record{}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetSeverity(severity(ev.Type))
	rec.SetBody(otellog.StringValue("session " + string(ev.Type)))
	rec.AddAttributes(otellog.String("event_type", string(ev.Type)))
	if ev.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", ev.UserID))
	}
	if ev.Reason != "" {
		rec.AddAttributes(otellog.String("reason", ev.Reason))
	}
	e.logger.Emit(ctx, rec)
}

func severity(t sessiondomain.EventType) otellog.Severity {
	switch t {
	case sessiondomain.EventForced, sessiondomain.EventExpired, sessiondomain.EventUndecodable:
		return otellog.SeverityWarn
	}
	return otellog.SeverityInfo
}
