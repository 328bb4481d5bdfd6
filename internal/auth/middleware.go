package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const OperatorKey contextKey = "operator"

// AuthMiddleware requires a bearer token on every request.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		operator, err := s.ValidateToken(parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), OperatorKey, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MutationMiddleware lets reads through and requires a token for
// everything else.
func (s *Service) MutationMiddleware(next http.Handler) http.Handler {
	guarded := s.AuthMiddleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			guarded.ServeHTTP(w, r)
		}
	})
}

func OperatorFromContext(ctx context.Context) string {
	operator, _ := ctx.Value(OperatorKey).(string)
	return operator
}
