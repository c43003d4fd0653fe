package requestresponse

import "github.com/lightwaver/gallerix/internal/model"

// LoginRequest : login request body
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// LoginResponse : successful login
type LoginResponse struct {
	Token string          `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User  model.Principal `json:"user"`
}

// CurrentUserResponse : resolved principal
type CurrentUserResponse struct {
	User model.Principal `json:"user"`
}

// ErrorResponse : standard error body
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
	Code  int    `json:"code" example:"401"`
}

// SuccessResponse : acknowledgement for mutations
type SuccessResponse struct {
	OK bool `json:"ok" example:"true"`
}
