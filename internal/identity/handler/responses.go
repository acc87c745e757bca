package handler

import (
	"time"

	"rentmeroom/internal/blob"
	"rentmeroom/internal/identity/models"
)

type sessionResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.PublicUser `json:"user"`
}

type ownerResponse struct {
	Phone         string      `json:"phone"`
	Address       string      `json:"address,omitempty"`
	GovIDType     string      `json:"govIdType"`
	GovIDNumber   string      `json:"govIdNumber"`
	GovIDImage    blob.Image  `json:"govIdImage"`
	ProfileImage  *blob.Image `json:"profileImage,omitempty"`
	Bio           string      `json:"bio,omitempty"`
	Facebook      string      `json:"facebook,omitempty"`
	WhatsApp      string      `json:"whatsapp,omitempty"`
	PropertyCount int         `json:"propertyCount"`
	Verified      bool        `json:"verified"`
}

type userResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Owner     *ownerResponse `json:"owner,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type userListResponse struct {
	Users []userResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.User}
}

func toUserResponse(u *models.User) userResponse {
	resp := userResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if o := u.Owner; o != nil {
		resp.Owner = &ownerResponse{
			Phone:         o.Phone,
			Address:       o.Address,
			GovIDType:     o.GovIDType,
			GovIDNumber:   o.GovIDNumber,
			GovIDImage:    o.GovIDImage,
			ProfileImage:  o.ProfileImage,
			Bio:           o.Bio,
			Facebook:      o.Facebook,
			WhatsApp:      o.WhatsApp,
			PropertyCount: o.PropertyCount,
			Verified:      o.Verified,
		}
	}
	return resp
}

func toUserListResponse(page *models.UserPage) userListResponse {
	users := make([]userResponse, 0, len(page.Users))
	for _, u := range page.Users {
		users = append(users, toUserResponse(u))
	}
	return userListResponse{Users: users, Total: page.Total, Page: page.Page, Limit: page.Limit}
}
