// Package models holds the interest record and the two read views built from
// it: the tenant's own list and the owner's contact queue.
package models

import (
	"strings"
	"time"

	identity "rentmeroom/internal/identity/models"
	listing "rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
)

const MaxMessageLen = 1000

type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	// StatusNotInterested is terminal. It is stored and reported but nothing
	// sets it yet.
	StatusNotInterested Status = "not_interested"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusNotInterested:
		return true
	}
	return false
}

// Interest records that a tenant wants to be contacted about a room. One per
// (tenant, room) pair.
type Interest struct {
	ID        id.InterestID
	TenantID  id.UserID
	RoomID    id.RoomID
	Message   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInterest builds a pending interest after checking the message.
func NewInterest(tenantID id.UserID, roomID id.RoomID, message string, now time.Time) (*Interest, error) {
	message = strings.TrimSpace(message)
	if len(message) > MaxMessageLen {
		return nil, dErrors.Validation(dErrors.FieldError{Field: "message", Message: "must be at most 1000 characters long"})
	}
	return &Interest{
		ID:        id.NewInterestID(),
		TenantID:  tenantID,
		RoomID:    roomID,
		Message:   message,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkContacted moves pending to contacted. Any other status is left alone
// and it reports false.
func (i *Interest) MarkContacted(now time.Time) bool {
	if i.Status != StatusPending {
		return false
	}
	i.Status = StatusContacted
	i.UpdatedAt = now
	return true
}

// RoomSnapshot is the room as shown next to an interest. Contact is null
// until the owner has marked the interest contacted.
type RoomSnapshot struct {
	ID          id.RoomID         `json:"id"`
	Title       string            `json:"title"`
	Rent        int64             `json:"rent"`
	AddressText string            `json:"address,omitempty"`
	Address     *listing.Address  `json:"structuredAddress,omitempty"`
	Location    *listing.GeoPoint `json:"location,omitempty"`
	Contact     *string           `json:"contact"`
	IsVerified  bool              `json:"isVerified"`
}

// Snapshot projects r for an interest in status st.
func Snapshot(r *listing.Room, st Status) RoomSnapshot {
	snap := RoomSnapshot{
		ID:          r.ID,
		Title:       r.Title,
		Rent:        r.Rent,
		AddressText: r.AddressText,
		Location:    r.Location,
		IsVerified:  r.IsVerified,
	}
	if !r.Address.IsZero() {
		addr := r.Address
		snap.Address = &addr
	}
	if st == StatusContacted {
		contact := r.Contact
		snap.Contact = &contact
	}
	return snap
}

// MyInterest is one entry of a tenant's own list.
type MyInterest struct {
	ID        id.InterestID `json:"id"`
	Message   string        `json:"message,omitempty"`
	Status    Status        `json:"status"`
	Room      RoomSnapshot  `json:"room"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// QueueEntry is one interested tenant in an owner's queue.
type QueueEntry struct {
	ID        id.InterestID       `json:"id"`
	Tenant    identity.PublicUser `json:"tenant"`
	Message   string              `json:"message,omitempty"`
	Status    Status              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// QueueGroup is the FIFO of interests on one room.
type QueueGroup struct {
	Room      RoomSnapshot `json:"room"`
	Interests []QueueEntry `json:"interests"`
}
