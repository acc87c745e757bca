package handler

type markInterestRequest struct {
	RoomID  string `json:"roomId" validate:"required,uuid"`
	Message string `json:"message" validate:"max=1000"`
}
