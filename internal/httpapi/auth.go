package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/logger"
)

type contextKey string

const callerKey contextKey = "caller"

// WithCaller stores the authenticated caller in ctx
func WithCaller(ctx context.Context, caller auth.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller stored by Authenticate
func CallerFromContext(ctx context.Context) (auth.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(auth.Caller)
	return caller, ok
}

// Authenticate validates the bearer token and admits callers whose role is in roles
func Authenticate(tokens *auth.TokenService, roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(r.Context()).Msg("Missing authorization header")
				RespondError(w, r, apperror.Unauthorized("Authorization header required"))
				return
			}

			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				RespondError(w, r, apperror.Unauthorized("Invalid authorization header format"))
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token expired"
				}
				RespondError(w, r, apperror.Unauthorized("%s", msg))
				return
			}

			caller := claims.Caller()
			if !allowed[caller.Role] {
				logger.Warn(r.Context()).
					Str("user_id", caller.ID).
					Str("role", caller.Role).
					Msg("Role not permitted")
				RespondError(w, r, apperror.Forbidden("Role %q is not permitted", caller.Role))
				return
			}

			logger.Debug(r.Context()).
				Str("user_id", caller.ID).
				Str("role", caller.Role).
				Msg("User authenticated")

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		}
	}
}
