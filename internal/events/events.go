// Package events carries order lifecycle notifications to interested
// listeners (admin dashboards, downstream consumers). Delivery is best-effort
// and fire-and-forget: a failed notification must never fail the operation
// that produced it.
package events

import (
	"context"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Type identifies the kind of order event being broadcast.
type Type string

const (
	OrderNew    Type = "ORDER_NEW"
	OrderUpdate Type = "ORDER_UPDATE"
)

// Notifier broadcasts an order event with a human-readable message.
// Implementations must not block the caller beyond a short internal timeout
// and must swallow delivery errors (logging them is fine).
type Notifier interface {
	Notify(ctx context.Context, t Type, message string)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(context.Context, Type, string) {}

// LogNotifier writes events to the context logger. It is the default sink
// when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, t Type, message string) {
	zctx.From(ctx).Info("order event",
		zap.String("type", string(t)),
		zap.String("message", message),
	)
}

// encodePayload renders the wire form of an event.
func encodePayload(t Type, message string, ts time.Time) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(t)) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(ts.UTC().Format(time.RFC3339)) })
	})
	return e.Bytes()
}
