package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// CreateUserRequest payload. Active defaults to true; an empty password
// falls back to the default one.
type CreateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	SectorID *string `json:"sectorId"`
	Active   *bool   `json:"active"`
	Password string  `json:"password"`
}

// UpdateUserRequest payload; omitted fields are left untouched.
type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
	SectorID    *string `json:"sectorId"`
	ClearSector bool    `json:"clearSector"`
	Active      *bool   `json:"active"`
}

// UserResponse hides credentials and carries the computed permissions.
type UserResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Role        domain.UserRole      `json:"role"`
	SectorID    *string              `json:"sectorId,omitempty"`
	Active      bool                 `json:"active"`
	LastLogin   *time.Time           `json:"lastLogin,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Permissions domain.PermissionSet `json:"permissions"`
	Sessions    []domain.Session     `json:"sessions"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	sessions := u.Sessions
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		SectorID:    u.SectorID,
		Active:      u.Active,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Permissions: u.Permissions(),
		Sessions:    sessions,
	}
}
