package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// UserDTO exposes safe account data in API responses.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Phone       *string          `json:"phone,omitempty"`
	Role        enums.MemberRole `json:"role"`
	IsActive    bool             `json:"is_active"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CreateUserDTO holds creation-time data for a new account.
type CreateUserDTO struct {
	Email        string
	Name         string
	Phone        *string
	PasswordHash string
	Role         enums.MemberRole
}

// ToModel maps the DTO into a persistable user.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.MemberRoleUser
	}
	return &models.User{
		Email:        d.Email,
		Name:         d.Name,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		Role:         role,
		IsActive:     true,
	}
}

// FromModel maps the persisted user into a DTO.
func FromModel(m *models.User) *UserDTO {
	if m == nil {
		return nil
	}
	return &UserDTO{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		Phone:       m.Phone,
		Role:        m.Role,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
