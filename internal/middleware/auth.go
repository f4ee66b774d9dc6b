// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aiva-platform/chat/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// SessionKey is the context key for the authenticated session.
	SessionKey ContextKey = "session"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey ContextKey = "correlation_id"
)

// Claims represents JWT claims issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	DisplayName        string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Provider           string `json:"provider"`
	DefaultWorkspaceID string `json:"default_workspace_id"`
}

// Auth creates JWT authentication middleware. A valid bearer token is
// resolved into a model.Session once; handlers consume the session as a
// value type.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid || claims.Subject == "" {
				writeAuthError(w, "invalid token")
				return
			}

			session := model.Session{
				UserID:             claims.Subject,
				DisplayName:        claims.DisplayName,
				Email:              claims.Email,
				Role:               claims.Role,
				Provider:           claims.Provider,
				DefaultWorkspaceID: claims.DefaultWorkspaceID,
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession gets the authenticated session from context. The second return
// is false when the request was not authenticated.
func GetSession(ctx context.Context) (model.Session, bool) {
	if v := ctx.Value(SessionKey); v != nil {
		s, ok := v.(model.Session)
		return s, ok
	}
	return model.Session{}, false
}

// GetUserID gets the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	s, _ := GetSession(ctx)
	return s.UserID
}

// GetCorrelationID gets the correlation ID from context.
func GetCorrelationID(ctx context.Context) string {
	if v := ctx.Value(CorrelationIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"kind":"` + string(model.ErrKindAuth) + `","message":"` + message + `"}`))
}
