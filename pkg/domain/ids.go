// Package domain holds identifier types shared across bounded contexts.
//
// Each aggregate gets its own UUID-backed type so a RoomID can never be passed
// where a UserID is expected.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "rentmeroom/pkg/domain-errors"
)

type (
	UserID     uuid.UUID
	RoomID     uuid.UUID
	InterestID uuid.UUID
)

func NewUserID() UserID         { return UserID(uuid.New()) }
func NewRoomID() RoomID         { return RoomID(uuid.New()) }
func NewInterestID() InterestID { return InterestID(uuid.New()) }

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id RoomID) String() string     { return uuid.UUID(id).String() }
func (id InterestID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RoomID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id InterestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RoomID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id InterestID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RoomID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *InterestID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID parses a user id received at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user id")
	return UserID(u), err
}

// ParseRoomID parses a room id received at a trust boundary.
func ParseRoomID(s string) (RoomID, error) {
	u, err := parse(s, "room id")
	return RoomID(u), err
}

// ParseInterestID parses an interest id received at a trust boundary.
func ParseInterestID(s string) (InterestID, error) {
	u, err := parse(s, "interest id")
	return InterestID(u), err
}

// parse rejects empty, malformed and nil UUIDs.
func parse(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}
