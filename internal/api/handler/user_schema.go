package handler

import (
	"encoding/json"

	"github.com/storefront/identity/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// registerRequest is bound from a multipart form. The avatar file is read
// separately.
type registerRequest struct {
	Name     string `form:"name"     validate:"required,max=120"`
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	Phone    string `form:"phone"`
	Address  string `form:"address"`
	City     string `form:"city"`
	Country  string `form:"country"`
}

// googleLoginRequest carries the client-verified Google identity. userInfo is
// kept raw because providers deliver several shapes.
type googleLoginRequest struct {
	IDToken     string          `json:"idToken"     validate:"required"`
	UserInfo    json.RawMessage `json:"userInfo"    validate:"required" swaggertype:"object"`
	FirebaseUID string          `json:"firebaseUid"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
