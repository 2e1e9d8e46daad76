package identity

import (
	"time"

	"github.com/gestionale/backend/internal/domain/identity"
)

// RoleDTO is the API representation of a custom role.
type RoleDTO struct {
	ID          string                                 `json:"id"`
	TenantID    string                                 `json:"tenant_id"`
	Name        string                                 `json:"name"`
	Description string                                 `json:"description,omitempty"`
	Icon        string                                 `json:"icon,omitempty"`
	Permissions identity.PermissionSet                 `json:"permissions"`
	Version     int                                    `json:"version"`
	CreatedAt   time.Time                              `json:"created_at"`
	UpdatedAt   time.Time                              `json:"updated_at"`
}

func toRoleDTO(role *identity.Role) *RoleDTO {
	return &RoleDTO{
		ID:          role.ID.String(),
		TenantID:    role.TenantID.String(),
		Name:        role.Name,
		Description: role.Description,
		Icon:        role.Icon,
		Permissions: role.Permissions.Clone(),
		Version:     role.Version,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// UserDTO is the API representation of a tenant member.
type UserDTO struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	BuiltinRole  string     `json:"builtin_role,omitempty"`
	CustomRoleID string     `json:"custom_role_id,omitempty"`
	Status       string     `json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toUserDTO(user *identity.User) *UserDTO {
	dto := &UserDTO{
		ID:          user.ID.String(),
		TenantID:    user.TenantID.String(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Status:      string(user.Status),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
	if user.Role.IsBuiltin() {
		dto.BuiltinRole = string(user.Role.Builtin)
	}
	if user.Role.IsCustom() {
		dto.CustomRoleID = user.Role.CustomID.String()
	}
	return dto
}
