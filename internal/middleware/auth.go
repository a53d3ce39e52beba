package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal returns the token subject stored by RequireRole.
func Principal(ctx context.Context) string {
	p, _ := ctx.Value(principalKey).(string)
	return p
}

// RequireRole rejects requests without a valid HMAC-signed bearer token
// carrying role in its authorities or roles claim.
func RequireRole(secret, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := validateToken(parts[1], secret)
			if err != nil {
				log.Debug().Err(err).Msg("rejected bearer token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			subject, _ := claims.GetSubject()
			if !hasRole(claims, role) {
				log.Warn().Str("principal", subject).Str("role", role).Msg("token lacks required role")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func hasRole(claims jwt.MapClaims, role string) bool {
	for _, name := range []string{"authorities", "roles"} {
		values, ok := claims[name].([]interface{})
		if !ok {
			continue
		}
		for _, v := range values {
			if s, ok := v.(string); ok && (s == role || "ROLE_"+s == role) {
				return true
			}
		}
	}
	return false
}
