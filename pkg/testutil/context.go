package testutil

import (
	"context"
	"net/http"

	"rentmeroom/internal/access"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/requestcontext"
)

// WithIdentity attaches a resolved caller identity to the request, as the auth
// middleware would after validating a bearer token.
func WithIdentity(req *http.Request, identity access.Identity) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), identity.UserID)
	ctx = access.WithIdentity(ctx, identity)
	return req.WithContext(ctx)
}

// Tenant returns an authenticated tenant identity.
func Tenant(userID id.UserID) access.Identity {
	return access.Identity{UserID: userID, Role: access.RoleTenant, Email: "tenant@example.com", Name: "Tenant"}
}

// VerifiedOwner returns an owner identity that passed admin verification.
func VerifiedOwner(userID id.UserID) access.Identity {
	return access.Identity{UserID: userID, Role: access.RoleOwner, OwnerVerified: true, Email: "owner@example.com", Name: "Owner"}
}

// Admin returns an admin identity.
func Admin(userID id.UserID) access.Identity {
	return access.Identity{UserID: userID, Role: access.RoleAdmin, Email: "admin@example.com", Name: "Admin"}
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}

// Authenticate stands in for the bearer-token middleware: requests that carry
// an identity pass, anonymous ones get 401.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access.FromContext(r.Context()).Anonymous() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
