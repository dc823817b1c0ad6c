package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/request"
	"github.com/benvon/selfspeak/internal/services/auth"
)

// TokenVerifier verifies a bearer token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

var _ TokenVerifier = (*auth.Verifier)(nil)

// Auth creates authentication middleware that validates bearer tokens and
// puts the caller in the request context
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", logger)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format", logger)
				return
			}

			claims, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				level := logger.Info
				if !errors.Is(err, auth.ErrInvalidToken) {
					level = logger.Warn
				}
				level("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", logger)
				return
			}

			logger.Debug("request_authenticated",
				zap.String("user_id", logpkg.SanitizeUserID(claims.Sub)),
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
			)
			ctx := request.WithUser(r.Context(), claims.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
