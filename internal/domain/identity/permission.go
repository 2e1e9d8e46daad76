package identity

import (
	"sort"

	"github.com/gestionale/backend/internal/domain/shared"
)

// Section identifies a functional area of the application that permissions
// are granted against. The vocabulary is closed: permissions referencing an
// unknown section are rejected at construction, never silently granted.
type Section string

const (
	SectionUsers     Section = "users"
	SectionEmployees Section = "employees"
	SectionTimesheet Section = "timesheets"
	SectionProjects  Section = "projects"
	SectionClients   Section = "clients"
	SectionSuppliers Section = "suppliers"
	SectionInvoicing Section = "invoicing"
	SectionCosts     Section = "costs"
	SectionDocuments Section = "documents"
	SectionSettings  Section = "settings"
	SectionBilling   Section = "billing"
)

// Action identifies an operation within a section.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionUpload Action = "upload"
)

var crudActions = []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}

// sectionActions fixes which actions each section supports. Not every
// section supports every action: documents additionally allow uploads,
// settings and billing are view/update only.
var sectionActions = map[Section][]Action{
	SectionUsers:     crudActions,
	SectionEmployees: crudActions,
	SectionTimesheet: crudActions,
	SectionProjects:  crudActions,
	SectionClients:   crudActions,
	SectionSuppliers: crudActions,
	SectionInvoicing: crudActions,
	SectionCosts:     crudActions,
	SectionDocuments: {ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionUpload},
	SectionSettings:  {ActionView, ActionUpdate},
	SectionBilling:   {ActionView, ActionUpdate},
}

// AllSections returns the closed section vocabulary in stable order.
func AllSections() []Section {
	sections := make([]Section, 0, len(sectionActions))
	for s := range sectionActions {
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i] < sections[j] })
	return sections
}

// IsValid reports whether the section is part of the closed vocabulary.
func (s Section) IsValid() bool {
	_, ok := sectionActions[s]
	return ok
}

// Supports reports whether the section supports the given action.
func (s Section) Supports(a Action) bool {
	for _, allowed := range sectionActions[s] {
		if allowed == a {
			return true
		}
	}
	return false
}

// SupportedActions returns the actions the section supports.
func (s Section) SupportedActions() []Action {
	actions := sectionActions[s]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// PermissionSet maps sections to the actions a role is allowed to perform.
// A section key with an empty action list is equivalent to the section being
// absent; NewPermissionSet normalizes by omission.
type PermissionSet map[Section][]Action

// NewPermissionSet validates and normalizes a raw grant map: unknown
// sections and unsupported actions are rejected, duplicates collapsed,
// empty sections dropped.
func NewPermissionSet(grants map[Section][]Action) (PermissionSet, error) {
	ps := make(PermissionSet, len(grants))
	for section, actions := range grants {
		if !section.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown permission section: "+string(section))
		}
		seen := make(map[Action]bool, len(actions))
		normalized := make([]Action, 0, len(actions))
		for _, action := range actions {
			if !section.Supports(action) {
				return nil, shared.NewDomainError(shared.CodeInvalidInput,
					"Section "+string(section)+" does not support action "+string(action))
			}
			if seen[action] {
				continue
			}
			seen[action] = true
			normalized = append(normalized, action)
		}
		if len(normalized) == 0 {
			continue
		}
		ps[section] = normalized
	}
	return ps, nil
}

// Allows reports whether the set grants the given (section, action) pair.
// Anything absent from the set is denied.
func (ps PermissionSet) Allows(section Section, action Action) bool {
	for _, granted := range ps[section] {
		if granted == action {
			return true
		}
	}
	return false
}

// TotalGrants counts the (section, action) pairs held by the set.
func (ps PermissionSet) TotalGrants() int {
	total := 0
	for _, actions := range ps {
		total += len(actions)
	}
	return total
}

// IsEmpty reports whether the set grants nothing at all.
func (ps PermissionSet) IsEmpty() bool {
	return ps.TotalGrants() == 0
}

// Clone returns a deep copy of the set.
func (ps PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(ps))
	for section, actions := range ps {
		copied := make([]Action, len(actions))
		copy(copied, actions)
		out[section] = copied
	}
	return out
}

// fullAccessSet grants every supported action on every section.
func fullAccessSet() PermissionSet {
	ps := make(PermissionSet, len(sectionActions))
	for section, actions := range sectionActions {
		copied := make([]Action, len(actions))
		copy(copied, actions)
		ps[section] = copied
	}
	return ps
}

// viewOnlySet grants view on every section.
func viewOnlySet() PermissionSet {
	ps := make(PermissionSet, len(sectionActions))
	for section := range sectionActions {
		ps[section] = []Action{ActionView}
	}
	return ps
}
