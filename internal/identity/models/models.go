// Package models holds account and registration records.
package models

import (
	"strings"
	"time"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/email"
)

// User is an account. PasswordHash never leaves the identity package in a response.
type User struct {
	ID           id.UserID
	Name         string
	Email        string
	PasswordHash string
	Role         access.Role
	Owner        *OwnerProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerProfile exists once a user has asked to become an owner.
type OwnerProfile struct {
	Phone         string
	Address       string
	GovIDType     string
	GovIDNumber   string
	GovIDImage    blob.Image
	ProfileImage  *blob.Image
	Bio           string
	Facebook      string
	WhatsApp      string
	PropertyCount int
	Verified      bool
}

// NewUser builds a tenant account with a normalized email.
func NewUser(userID id.UserID, name, rawEmail, passwordHash string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	addr := email.Normalize(rawEmail)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name required")
	}
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash required")
	}
	return &User{
		ID:           userID,
		Name:         name,
		Email:        addr,
		PasswordHash: passwordHash,
		Role:         access.RoleTenant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Identity is the access-control view of the live record.
func (u *User) Identity() access.Identity {
	return access.Identity{
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		OwnerVerified: u.Role == access.RoleOwner && u.Owner != nil && u.Owner.Verified,
	}
}

// CanRequestOwner reports whether the user may apply to become an owner.
func (u *User) CanRequestOwner() error {
	switch u.Role {
	case access.RoleOwner:
		return dErrors.New(dErrors.CodeAlreadyOwner, "user is already an owner")
	case access.RoleAdmin:
		return dErrors.New(dErrors.CodeForbidden, "admins cannot become owners")
	}
	return nil
}

// ApplyOwnerRequest turns a tenant into an unverified owner.
func (u *User) ApplyOwnerRequest(profile OwnerProfile, now time.Time) error {
	if err := u.CanRequestOwner(); err != nil {
		return err
	}
	profile.PropertyCount = 0
	profile.Verified = false
	u.Owner = &profile
	u.Role = access.RoleOwner
	u.UpdatedAt = now
	return nil
}

// VerifyOwner marks the owner profile verified. Repeating it is a no-op.
func (u *User) VerifyOwner(now time.Time) error {
	if u.Role != access.RoleOwner || u.Owner == nil {
		return dErrors.New(dErrors.CodeNotOwner, "user is not an owner")
	}
	if !u.Owner.Verified {
		u.Owner.Verified = true
		u.UpdatedAt = now
	}
	return nil
}

// ChangeRole switches between roles without touching owner verification.
// Owner is only reachable when an owner profile already exists.
func (u *User) ChangeRole(role access.Role, now time.Time) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if role == access.RoleOwner && u.Owner == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "user has no owner profile")
	}
	u.Role = role
	u.UpdatedAt = now
	return nil
}

// AdjustPropertyCount moves the owner's listing counter, never below zero.
func (u *User) AdjustPropertyCount(delta int) {
	if u.Owner == nil {
		return
	}
	u.Owner.PropertyCount = max(u.Owner.PropertyCount+delta, 0)
}

// PublicUser is what another party may see about an account.
type PublicUser struct {
	ID    id.UserID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PendingRegistration is an unconfirmed signup keyed by email.
type PendingRegistration struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"password"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p *PendingRegistration) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Session is the outcome of confirmation or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      PublicUser
}

// OwnerApplication is a tenant's request to become an owner.
type OwnerApplication struct {
	Phone        string
	Address      string
	GovIDType    string
	GovIDNumber  string
	Bio          string
	Facebook     string
	WhatsApp     string
	GovIDImage   *blob.Upload
	ProfileImage *blob.Upload
}

// Validate reports every missing mandatory field.
func (a OwnerApplication) Validate() error {
	var fields []dErrors.FieldError
	if strings.TrimSpace(a.Phone) == "" {
		fields = append(fields, dErrors.FieldError{Field: "phone", Message: "is required"})
	}
	if strings.TrimSpace(a.GovIDType) == "" {
		fields = append(fields, dErrors.FieldError{Field: "govIdType", Message: "is required"})
	}
	if strings.TrimSpace(a.GovIDNumber) == "" {
		fields = append(fields, dErrors.FieldError{Field: "govIdNumber", Message: "is required"})
	}
	if a.GovIDImage == nil {
		fields = append(fields, dErrors.FieldError{Field: "govIdImage", Message: "is required"})
	}
	if len(fields) > 0 {
		return dErrors.Validation(fields...)
	}
	return nil
}

// UserPage is one page of accounts, newest first.
type UserPage struct {
	Users []*User
	Total int
	Page  int
	Limit int
}
