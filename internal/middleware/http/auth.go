package middleware_http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims placed by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return claims, ok
}

// AuthMiddleware verifies an HS256 bearer token. A missing or malformed header is 401,
// a token that fails verification is 403.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			scheme, raw, found := strings.Cut(authHeader, " ")
			raw = strings.TrimSpace(raw)
			if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
				denied(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				if err == nil {
					err = errors.New("token not valid")
				}
				logger.Warn(r.Context(), "Rejected bearer token", logger.Err(err))
				denied(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denied(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
