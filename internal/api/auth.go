package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stockup/config"
	"stockup/observability"

	"github.com/golang-jwt/jwt/v5"
)

type ownerKey struct{}

// OwnerFromContext returns the authenticated owner id set by RequireAuth
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// WithOwner stores an owner id in the context
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// validateToken parses an HS256 bearer token and returns its subject.
// The issuer is checked only when one is configured.
func validateToken(tokenString string, cfg config.AuthConfig) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject as the owner id for the handlers.
func RequireAuth(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.JWTSecret == "" {
				writeJSONError(w, "authentication not configured", http.StatusServiceUnavailable, false)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="stockup"`)
				writeJSONError(w, "missing bearer token", http.StatusUnauthorized, false)
				return
			}

			owner, err := validateToken(strings.TrimPrefix(authHeader, "Bearer "), cfg)
			if err != nil {
				observability.WithContext(r.Context()).Debug("rejected bearer token", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="stockup", error="invalid_token"`)
				writeJSONError(w, "invalid or expired token", http.StatusUnauthorized, false)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
