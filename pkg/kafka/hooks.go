package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

const traceHeader = "trace_id"

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler and sends the
// message down the failure path (DLQ and commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook; nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

// TraceHook copies the trace_id header onto the handler context.
type TraceHook struct{}

func (TraceHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	return WithTraceID(ctx, ExtractTraceID(km)), nil
}

func (TraceHook) AfterHandle(context.Context, kafka.Message, error) {}

type ctxKey string

const ctxTraceID ctxKey = "kafka_trace_id"

// WithTraceID sets trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxTraceID, traceID)
}

// TraceIDFrom returns the trace id stored on ctx, or "".
func TraceIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		return v
	}
	return ""
}

// ExtractTraceID tries to get trace id from Kafka headers.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == traceHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}
