package handler

import (
	"rentmeroom/pkg/platform/validation"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,strongpassword"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type ownerRequest struct {
	Phone       string `form:"phone" validate:"required,len=10,numeric"`
	Address     string `form:"address" validate:"max=200"`
	GovIDType   string `form:"govIdType" validate:"required,max=50"`
	GovIDNumber string `form:"govIdNumber" validate:"required,max=50"`
	Bio         string `form:"bio" validate:"max=500"`
	Facebook    string `form:"facebook" validate:"max=200"`
	WhatsApp    string `form:"whatsapp" validate:"max=20"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=tenant owner admin"`
}

func validate(req any) error {
	return validation.Struct(req)
}
