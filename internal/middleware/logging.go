package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LogAttrser is implemented by RPC messages that add billing context, such
// as consommation IDs or a payment outcome, to the RPC log line.
type LogAttrser interface {
	LogAttrs() []any
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, cashier, duration and the billing attributes of the
// request and response messages. A nil logger uses slog.Default().
// Install it after the auth interceptor so the cashier is known.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			log := logger
			if log == nil {
				log = slog.Default()
			}
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"cashier_id", GetCashierID(ctx), // empty if pre-auth
				"duration_ms", time.Since(start).Milliseconds(),
			}
			attrs = append(attrs, messageAttrs(req.Any())...)

			var connectErr *connect.Error
			switch {
			case errors.As(err, &connectErr):
				log.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			case err != nil:
				log.Error("RPC error", append(attrs, "error", err)...)
			default:
				if resp != nil {
					attrs = append(attrs, messageAttrs(resp.Any())...)
				}
				log.Info("RPC ok", attrs...)
			}

			return resp, err
		}
	}
}

func messageAttrs(msg any) []any {
	if m, ok := msg.(LogAttrser); ok {
		return m.LogAttrs()
	}
	return nil
}
