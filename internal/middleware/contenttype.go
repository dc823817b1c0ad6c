package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ContentType requires application/json on requests that carry a body.
// Bodiless POSTs, such as analyze with a query date, pass through.
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasBody(r) {
				contentType := strings.ToLower(r.Header.Get("Content-Type"))
				if contentType == "" {
					respondErrorJSON(w, r, http.StatusBadRequest, "invalid_input", "Content-Type header is required", logger)
					return
				}
				if !strings.HasPrefix(contentType, "application/json") {
					respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "invalid_input", "Content-Type must be application/json", logger)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.ContentLength > 0 || len(r.TransferEncoding) > 0
}
