package identity

import (
	"strings"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// UserStatus represents the account status of a user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// RoleRef is a user's single role reference: either a built-in role key or
// the ID of a tenant-defined custom role, never both. It is a weak
// reference: a user stays valid if the custom role is later deleted, but
// every permission check against the dangling reference denies.
type RoleRef struct {
	Builtin  BuiltinRole
	CustomID *uuid.UUID
}

// NewBuiltinRoleRef creates a reference to a built-in role
func NewBuiltinRoleRef(role BuiltinRole) (RoleRef, error) {
	if !role.IsValid() {
		return RoleRef{}, shared.NewDomainError(shared.CodeInvalidInput, "Unknown built-in role: "+string(role))
	}
	return RoleRef{Builtin: role}, nil
}

// NewCustomRoleRef creates a reference to a custom role by ID
func NewCustomRoleRef(roleID uuid.UUID) (RoleRef, error) {
	if roleID == uuid.Nil {
		return RoleRef{}, shared.NewDomainError(shared.CodeInvalidInput, "Custom role ID cannot be empty")
	}
	return RoleRef{CustomID: &roleID}, nil
}

// IsBuiltin reports whether the reference points at a built-in role
func (r RoleRef) IsBuiltin() bool {
	return r.Builtin != "" && r.CustomID == nil
}

// IsCustom reports whether the reference points at a custom role
func (r RoleRef) IsCustom() bool {
	return r.CustomID != nil
}

// IsZero reports whether the reference points at nothing
func (r RoleRef) IsZero() bool {
	return r.Builtin == "" && r.CustomID == nil
}

// User is a tenant member with exactly one role reference at a time.
type User struct {
	shared.TenantAggregateRoot
	Email        string
	DisplayName  string
	PasswordHash string
	Role         RoleRef
	Status       UserStatus
	LastLoginAt  *time.Time
}

// NewUser creates an active user with the given role reference.
func NewUser(tenantID uuid.UUID, email, displayName, password string, role RoleRef) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Email cannot be empty")
	}
	if role.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User must reference a role")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		DisplayName:         strings.TrimSpace(displayName),
		Role:                role,
		Status:              UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword sets a new password (admin reset, no old password check)
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return nil
}

// ChangePassword verifies the old password before setting the new one.
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// AssignRole replaces the user's role reference.
func (u *User) AssignRole(role RoleRef) error {
	if role.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidInput, "User must reference a role")
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// Disable locks the user out.
func (u *User) Disable() {
	u.Status = UserStatusDisabled
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// RecordLogin stores the last successful login time.
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = time.Now()
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
