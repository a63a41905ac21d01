package middleware

import (
	"mime"
	"net/http"

	"github.com/utafrali/cadastro/pkg/httputil"
	"github.com/utafrali/cadastro/pkg/logger"
)

// ContentTypeJSON rejects POST and PUT requests whose Content-Type is not
// application/json with 415.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
					Code:      "UNSUPPORTED_MEDIA_TYPE",
					Message:   "Content-Type must be application/json",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
