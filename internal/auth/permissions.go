// Package auth - Permission checking
package auth

import (
	"slices"

	"github.com/aethra/foxops/internal/models"
)

// Action represents a dashboard permission action
type Action string

const (
	ActionViewSettings   Action = "view_settings"
	ActionManageFields   Action = "manage_fields"
	ActionManageForms    Action = "manage_forms"
	ActionManageAPIKeys  Action = "manage_api_keys"
	ActionViewSubmission Action = "view_submissions"
)

var roleActions = map[string][]Action{
	models.RoleOwner:  {ActionViewSettings, ActionManageFields, ActionManageForms, ActionManageAPIKeys, ActionViewSubmission},
	models.RoleAdmin:  {ActionViewSettings, ActionManageFields, ActionManageForms, ActionManageAPIKeys, ActionViewSubmission},
	models.RoleMember: {ActionViewSettings, ActionViewSubmission},
}

// RoleAllows reports whether role may perform action
func RoleAllows(role string, action Action) bool {
	return slices.Contains(roleActions[role], action)
}

// API key scopes
const (
	ScopeLocationsRead  = "locations:read"
	ScopeLocationsWrite = "locations:write"
	ScopeAll            = "*"
)

// DefaultScopes are granted to keys created without explicit scopes
var DefaultScopes = []string{ScopeLocationsRead, ScopeLocationsWrite}

// KnownScope reports whether scope can be granted to a key
func KnownScope(scope string) bool {
	return scope == ScopeLocationsRead || scope == ScopeLocationsWrite || scope == ScopeAll
}

// KeyAllows reports whether a key's permissions include scope
func KeyAllows(permissions []string, scope string) bool {
	return slices.Contains(permissions, ScopeAll) || slices.Contains(permissions, scope)
}
