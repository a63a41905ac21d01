package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/utafrali/cadastro/pkg/errors"
	"github.com/utafrali/cadastro/pkg/httputil"
	"github.com/utafrali/cadastro/pkg/logger"
)

// Recovery turns a panic in a handler into a 500 response and logs it with
// the stack trace.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				internal := apperrors.Internal(fmt.Errorf("panic: %v", rec))
				httputil.WriteJSON(w, internal.Status, httputil.ErrorResponse{
					Code:      internal.Code,
					Message:   internal.Message,
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
