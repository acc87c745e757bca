package handler

import (
	"time"

	"rentmeroom/internal/interest/models"
)

type interestsResponse struct {
	Interests []models.MyInterest `json:"interests"`
}

type queueResponse struct {
	Rooms []models.QueueGroup `json:"rooms"`
}

type interestResponse struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenantId"`
	RoomID    string        `json:"roomId"`
	Message   string        `json:"message,omitempty"`
	Status    models.Status `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toInterestResponse(i *models.Interest) interestResponse {
	return interestResponse{
		ID:        i.ID.String(),
		TenantID:  i.TenantID.String(),
		RoomID:    i.RoomID.String(),
		Message:   i.Message,
		Status:    i.Status,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
