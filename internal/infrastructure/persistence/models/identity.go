package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/domain/identity"
)

// RoleModel is the persistence model for tenant-defined custom roles. The
// permission set is stored as a JSON document; the closed vocabulary is
// enforced by the domain on the way in, so the column is opaque to SQL.
type RoleModel struct {
	TenantModel
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	Icon        string `gorm:"type:varchar(50)"`
	Permissions string `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (RoleModel) TableName() string {
	return "custom_roles"
}

// RoleModelFromDomain converts a domain Role to its persistence model.
func RoleModelFromDomain(role *identity.Role) (*RoleModel, error) {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal permission set: %w", err)
	}

	m := &RoleModel{
		Name:        role.Name,
		Description: role.Description,
		Icon:        role.Icon,
		Permissions: string(permissions),
	}
	m.fromAggregate(role.TenantAggregateRoot)
	return m, nil
}

// ToDomain converts the persistence model to a domain Role.
func (m *RoleModel) ToDomain() (*identity.Role, error) {
	var permissions identity.PermissionSet
	if err := json.Unmarshal([]byte(m.Permissions), &permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permission set for role %s: %w", m.ID, err)
	}

	return &identity.Role{
		TenantAggregateRoot: m.toAggregate(),
		Name:                m.Name,
		Description:         m.Description,
		Icon:                m.Icon,
		Permissions:         permissions,
	}, nil
}

// UserModel is the persistence model for tenant members. The role reference
// is flattened: exactly one of builtin_role and custom_role_id is set.
type UserModel struct {
	TenantModel
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string     `gorm:"type:varchar(200)"`
	PasswordHash string     `gorm:"type:varchar(100);not null"`
	BuiltinRole  string     `gorm:"type:varchar(50)"`
	CustomRoleID *uuid.UUID `gorm:"type:uuid;index"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// UserModelFromDomain converts a domain User to its persistence model.
func UserModelFromDomain(user *identity.User) *UserModel {
	m := &UserModel{
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		BuiltinRole:  string(user.Role.Builtin),
		CustomRoleID: user.Role.CustomID,
		Status:       string(user.Status),
		LastLoginAt:  user.LastLoginAt,
	}
	m.fromAggregate(user.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.toAggregate(),
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		PasswordHash:        m.PasswordHash,
		Role: identity.RoleRef{
			Builtin:  identity.BuiltinRole(m.BuiltinRole),
			CustomID: m.CustomRoleID,
		},
		Status:      identity.UserStatus(m.Status),
		LastLoginAt: m.LastLoginAt,
	}
}
