package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTenant(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(id.NewUserID(), " Sita ", " Sita@Example.COM ", "hash", now)
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	u := newTenant(t)
	assert.Equal(t, "Sita", u.Name)
	assert.Equal(t, "sita@example.com", u.Email)
	assert.Equal(t, access.RoleTenant, u.Role)
	assert.Nil(t, u.Owner)

	_, err := NewUser(id.UserID{}, "a", "a@b.c", "h", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewUser(id.NewUserID(), "a", "", "h", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewUser(id.NewUserID(), "a", "a@b.c", "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestOwnerLifecycle(t *testing.T) {
	u := newTenant(t)

	err := u.VerifyOwner(now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotOwner))

	profile := OwnerProfile{Phone: "9800000000", GovIDType: "citizenship", GovIDNumber: "12-34", GovIDImage: blob.Image{URL: "u", Handle: "h"}, PropertyCount: 7, Verified: true}
	require.NoError(t, u.ApplyOwnerRequest(profile, now))
	assert.Equal(t, access.RoleOwner, u.Role)
	assert.False(t, u.Owner.Verified, "verification is never granted by the request")
	assert.Zero(t, u.Owner.PropertyCount)
	assert.False(t, u.Identity().OwnerVerified)

	err = u.ApplyOwnerRequest(profile, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyOwner))

	require.NoError(t, u.VerifyOwner(now))
	require.NoError(t, u.VerifyOwner(now))
	assert.True(t, u.Identity().IsVerifiedOwner())
}

func TestChangeRole(t *testing.T) {
	u := newTenant(t)

	err := u.ChangeRole(access.RoleOwner, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	require.NoError(t, u.ChangeRole(access.RoleAdmin, now))
	assert.True(t, u.Identity().IsAdmin())

	err = u.ApplyOwnerRequest(OwnerProfile{}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	err = u.ChangeRole(access.Role("root"), now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAdjustPropertyCount(t *testing.T) {
	u := newTenant(t)
	u.AdjustPropertyCount(1)
	assert.Nil(t, u.Owner)

	require.NoError(t, u.ApplyOwnerRequest(OwnerProfile{}, now))
	u.AdjustPropertyCount(2)
	u.AdjustPropertyCount(-5)
	assert.Zero(t, u.Owner.PropertyCount)
}

func TestPendingExpired(t *testing.T) {
	p := PendingRegistration{ExpiresAt: now}
	assert.True(t, p.Expired(now))
	assert.False(t, p.Expired(now.Add(-time.Second)))
}
