// Package auth carries the caller's already-issued identity into the engine.
// Registration, login, and approval live in the external identity subsystem;
// this middleware only validates the bearer token and exposes the subject and
// role claims so handlers can resolve the typed profile.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token's "role" claim.
const (
	RoleDonor   = "donor"
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

// Claims is the subset of token claims the service consumes.
type Claims struct {
	SubjectID string
	Role      string
}

// Validator verifies HMAC-signed tokens issued by the identity subsystem.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	role, _ := mapClaims["role"].(string)
	if role == "" {
		return nil, fmt.Errorf("token missing role")
	}
	return &Claims{SubjectID: subject, Role: role}, nil
}

type contextKeySubject struct{}
type contextKeyRole struct{}

// GetSubjectID retrieves the authenticated profile ID from the context.
func GetSubjectID(ctx context.Context) string {
	subject, _ := ctx.Value(contextKeySubject{}).(string)
	return subject
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(contextKeyRole{}).(string)
	return role
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// subject and role in the request context.
func RequireAuth(validator *Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "unauthorized access - invalid token", "error", err)
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), contextKeySubject{}, claims.SubjectID)
			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to one role. It must run after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != role {
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
