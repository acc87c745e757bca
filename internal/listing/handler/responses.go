package handler

import "rentmeroom/internal/listing/models"

type ownerRoomsResponse struct {
	Rooms []models.OwnerRoom `json:"rooms"`
}
