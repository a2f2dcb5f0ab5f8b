package http

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/pkg/logger"
)

type ctxKey string

const (
	terminalIDKey ctxKey = "terminal_id"
	requestIDKey  ctxKey = "request_id"

	TerminalHeader    = "X-Terminal-ID"
	DefaultTerminalID = "default"
)

var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// TerminalMiddleware resolves which register terminal the request acts on.
// Requests without the header share the default terminal.
func TerminalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		terminalID := r.Header.Get(TerminalHeader)
		if terminalID == "" {
			terminalID = DefaultTerminalID
		}
		if !terminalIDPattern.MatchString(terminalID) {
			respondError(w, http.StatusBadRequest, "invalid_terminal_id", "invalid terminal id")
			return
		}

		ctx := context.WithValue(r.Context(), terminalIDKey, terminalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request, correlated with the active trace.
func RequestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())),
			}
			if id := r.Header.Get(TerminalHeader); id != "" {
				fields = append(fields, zap.String("terminal_id", id))
			}

			log := logger.WithTrace(r.Context(), l)
			if status >= http.StatusInternalServerError {
				log.Warn("request completed", fields...)
				return
			}
			log.Info("request completed", fields...)
		})
	}
}

func getTerminalID(ctx context.Context) string {
	if id, ok := ctx.Value(terminalIDKey).(string); ok {
		return id
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return middleware.GetReqID(ctx)
}
