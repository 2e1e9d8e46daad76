package handler

import (
	"github.com/gestionale/backend/internal/domain/identity"
)

// RoleRequest carries a custom role create or update
type RoleRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Description string              `json:"description" binding:"omitempty,max=500"`
	Icon        string              `json:"icon" binding:"omitempty,max=50"`
	Permissions map[string][]string `json:"permissions" binding:"required"`
}

// permissionGrants converts the wire permission map to the domain
// vocabulary. Unknown sections or actions survive the conversion and are
// rejected by the domain constructor, which owns the closed vocabulary.
func (r RoleRequest) permissionGrants() map[identity.Section][]identity.Action {
	grants := make(map[identity.Section][]identity.Action, len(r.Permissions))
	for section, actions := range r.Permissions {
		converted := make([]identity.Action, len(actions))
		for i, action := range actions {
			converted[i] = identity.Action(action)
		}
		grants[identity.Section(section)] = converted
	}
	return grants
}
