package auth

import "github.com/zerofy/zerofy-backend/internal/users"

// RegisterInput holds the fields a new seller submits.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Phone    string `json:"phone" validate:"omitempty,min=5,max=32"`
}

// LoginInput holds the credentials for a login attempt.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries the refresh token for session rotation.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPairDTO is the issued credential pair.
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponseDTO is the full login/register response.
type AuthResponseDTO struct {
	TokenPairDTO
	User *users.UserDTO `json:"user"`
}
