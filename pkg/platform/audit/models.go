package audit

import (
	"context"
	"time"

	id "rentmeroom/pkg/domain"
)

// EventCategory drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle and role changes.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication outcomes and moderation actions.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine marketplace activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services to capture key actions. It stays
// transport-agnostic so sinks (memory, log, kafka) can fan out.
type Event struct {
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    id.UserID         `json:"user_id"`
	Subject   string            `json:"subject,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

type AuditEvent string

const (
	// Identity events
	EventRegistrationStarted AuditEvent = "registration_started"
	EventUserCreated         AuditEvent = "user_created"
	EventLoginSucceeded      AuditEvent = "login_succeeded"
	EventAuthFailed          AuditEvent = "auth_failed"
	EventLoggedOut           AuditEvent = "logged_out"
	EventOwnerRequested      AuditEvent = "owner_requested"
	EventOwnerVerified       AuditEvent = "owner_verified"
	EventRoleUpdated         AuditEvent = "role_updated"
	EventUserDeleted         AuditEvent = "user_deleted"

	// Listing events
	EventRoomCreated  AuditEvent = "room_created"
	EventRoomUpdated  AuditEvent = "room_updated"
	EventRoomDeleted  AuditEvent = "room_deleted"
	EventRoomVerified AuditEvent = "room_verified"

	// Interest events
	EventInterestCreated   AuditEvent = "interest_created"
	EventInterestContacted AuditEvent = "interest_contacted"
	EventInterestDeleted   AuditEvent = "interest_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:    CategoryCompliance,
	EventUserDeleted:    CategoryCompliance,
	EventOwnerRequested: CategoryCompliance,
	EventRoleUpdated:    CategoryCompliance,

	EventAuthFailed:     CategorySecurity,
	EventLoggedOut:      CategorySecurity,
	EventOwnerVerified:  CategorySecurity,
	EventRoomVerified:   CategorySecurity,
	EventLoginSucceeded: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is a sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
