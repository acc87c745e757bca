// Package middleware authenticates bearer tokens and resolves the live caller
// identity for downstream authorization.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rentmeroom/internal/access"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/requestcontext"
)

// Claims is what the auth middleware needs from a validated token.
type Claims struct {
	UserID    id.UserID
	JTI       string
	ExpiresAt time.Time
}

type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// IdentityResolver loads the live role and verification state for a user.
// It returns a not_found domain error when the account no longer exists.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID id.UserID) (access.Identity, error)
}

const bearerPrefix = "Bearer "

// RequireAuth rejects requests without a valid, unrevoked bearer token whose
// user still exists. revocations may be nil.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r, validator, revocations, resolver)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the caller when a bearer token is present and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalAuth(validator TokenValidator, revocations RevocationChecker, resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	required := RequireAuth(validator, revocations, resolver, logger)
	return func(next http.Handler) http.Handler {
		withAuth := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			withAuth.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, validator TokenValidator, revocations RevocationChecker, resolver IdentityResolver) (context.Context, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header")
	}
	claims, err := validator.ValidateToken(strings.TrimSpace(raw))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	ctx := r.Context()
	if revocations != nil {
		revoked, err := revocations.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
		}
		if revoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	identity, err := resolver.ResolveIdentity(ctx, claims.UserID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, err
	}

	ctx = requestcontext.WithUserID(ctx, identity.UserID)
	ctx = requestcontext.WithToken(ctx, claims.JTI, claims.ExpiresAt)
	ctx = access.WithIdentity(ctx, identity)
	return ctx, nil
}
