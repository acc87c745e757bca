// Package access is the single authorization gate. Every privileged operation
// asks Authorize with the caller's live identity instead of scattering role
// checks through handlers.
package access

import (
	"context"

	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
)

type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleTenant, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return r, nil
}

// Identity is the caller as seen by core operations. It is resolved from the
// identity store on every request, so Role and OwnerVerified reflect the live
// record rather than the token.
type Identity struct {
	UserID        id.UserID
	Name          string
	Email         string
	Role          Role
	OwnerVerified bool
}

// Anonymous reports whether no authenticated caller is present.
func (i Identity) Anonymous() bool {
	return i.UserID.IsNil()
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IsVerifiedOwner is the precondition for every owner-only action.
func (i Identity) IsVerifiedOwner() bool {
	return i.Role == RoleOwner && i.OwnerVerified
}

// Authorize decides whether identity may act with requiredRole. An empty
// requiredRole only demands authentication. requireVerified additionally
// demands ownerVerified and is meaningful for RoleOwner.
func Authorize(identity Identity, requiredRole Role, requireVerified bool) error {
	if identity.Anonymous() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if requiredRole == "" {
		return nil
	}
	if identity.Role != requiredRole {
		return dErrors.New(dErrors.CodeForbidden, "requires role "+string(requiredRole))
	}
	if requireVerified && !identity.OwnerVerified {
		return dErrors.New(dErrors.CodeForbidden, "owner account is not verified")
	}
	return nil
}

// AuthorizeAny passes when any of the rules passes. Used where either a
// verified owner or an admin may act (room deletion).
func AuthorizeAny(identity Identity, rules ...Rule) error {
	var last error
	for _, r := range rules {
		err := Authorize(identity, r.Role, r.RequireVerified)
		if err == nil {
			return nil
		}
		last = err
	}
	if last == nil {
		return Authorize(identity, "", false)
	}
	return last
}

// Rule is one (role, verified) requirement.
type Rule struct {
	Role            Role
	RequireVerified bool
}

type identityKey struct{}

// WithIdentity stores the resolved caller in ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the resolved caller, or an anonymous identity.
func FromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityKey{}).(Identity); ok {
		return identity
	}
	return Identity{}
}
