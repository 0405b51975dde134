package auth

import (
	"errors"
	"strings"
)

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (dto LoginDTO) Validate() error {
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (dto RefreshDTO) Validate() error {
	if dto.RefreshToken == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

// RequestOTPDTO starts portal identity verification for the customer/careers
// portal. Purpose tags the flow, e.g. "careers" or "customer".
type RequestOTPDTO struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required"`
}

func (dto RequestOTPDTO) Validate() error {
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.Purpose == "" {
		return errors.New("purpose is required")
	}
	return nil
}

type VerifyOTPDTO struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

func (dto VerifyOTPDTO) Validate() error {
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(dto.Code) != 6 {
		return errors.New("code must be 6 digits")
	}
	return nil
}
