package identity

import (
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for Role
const AggregateTypeRole = "Role"

// Role domain event types
const (
	EventTypeRoleCreated = "RoleCreated"
	EventTypeRoleUpdated = "RoleUpdated"
	EventTypeRoleDeleted = "RoleDeleted"
)

// RoleCreatedEvent is published when a custom role is created
type RoleCreatedEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	GrantsTotal int    `json:"grants_total"`
}

// NewRoleCreatedEvent creates a new RoleCreatedEvent
func NewRoleCreatedEvent(role *Role) *RoleCreatedEvent {
	return &RoleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoleCreated, AggregateTypeRole, role.ID, role.TenantID),
		Name:            role.Name,
		GrantsTotal:     role.Permissions.TotalGrants(),
	}
}

// RoleUpdatedEvent is published when a custom role is updated
type RoleUpdatedEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	GrantsTotal int    `json:"grants_total"`
}

// NewRoleUpdatedEvent creates a new RoleUpdatedEvent
func NewRoleUpdatedEvent(role *Role) *RoleUpdatedEvent {
	return &RoleUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoleUpdated, AggregateTypeRole, role.ID, role.TenantID),
		Name:            role.Name,
		GrantsTotal:     role.Permissions.TotalGrants(),
	}
}

// RoleDeletedEvent is published when a custom role is deleted
type RoleDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewRoleDeletedEvent creates a new RoleDeletedEvent
func NewRoleDeletedEvent(tenantID, roleID uuid.UUID, name string) *RoleDeletedEvent {
	return &RoleDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoleDeleted, AggregateTypeRole, roleID, tenantID),
		Name:            name,
	}
}
