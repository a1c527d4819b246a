package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"trustscore/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the caller it identifies.
type TokenValidator interface {
	ValidateToken(tokenString string) (requestcontext.ActorInfo, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireRole returns middleware that accepts only bearer tokens whose role
// is one of roles, and stores the caller in the request context.
func RequireRole(validator TokenValidator, logger *slog.Logger, roles ...requestcontext.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if !slices.Contains(roles, actor.Role) {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"role", actor.Role,
					"subject", actor.Subject,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Token role not permitted for this endpoint")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}
