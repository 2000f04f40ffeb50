package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// AccountIDKey is the context key for storing the authenticated account ID.
	AccountIDKey contextKey = "account_id"
	// EmailKey is the context key for storing the authenticated account's email.
	EmailKey contextKey = "email"
)

// GetAccountID extracts the account ID from the context.
// Returns empty string if not found.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}

// GetEmail extracts the account email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithAccount returns a context carrying the account identity.
func WithAccount(ctx context.Context, accountID, email string) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, accountID)
	return context.WithValue(ctx, EmailKey, email)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the account ID and email to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithAccount(ctx, claims.AccountID, claims.Email), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Useful for endpoints that have different behavior
// for authenticated vs unauthenticated callers.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored here
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithAccount(ctx, claims.AccountID, claims.Email)
				}
			}
			return next(ctx, req)
		}
	}
}

// BearerAuth returns a client interceptor that attaches the token returned by
// token to every request. An empty token sends no header.
func BearerAuth(token func() string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if t := token(); t != "" {
				req.Header().Set("Authorization", "Bearer "+t)
			}
			return next(ctx, req)
		}
	}
}
