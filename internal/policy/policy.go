// Package policy enforces workspace naming and role-based access.
package policy

import (
	"regexp"

	"github.com/seocho-ai/seocho/internal/model"
)

var workspaceRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{1,63}$`)

// ValidateWorkspace checks the workspace identifier format.
func ValidateWorkspace(id string) error {
	if !workspaceRe.MatchString(id) {
		return model.Errorf(model.KindValidation,
			"policy: invalid workspace id %q: must start with a letter and use letters, digits, underscore, or hyphen (2-64 chars)", id)
	}
	return nil
}

// Role is the caller's access level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of the defined levels.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Action names one protected operation.
type Action string

const (
	ActionRunAgent           Action = "run_agent"
	ActionRunDebate          Action = "run_debate"
	ActionRunSemantic        Action = "run_semantic"
	ActionReadDatabases      Action = "read_databases"
	ActionReadAgents         Action = "read_agents"
	ActionInferRules         Action = "infer_rules"
	ActionValidateRules      Action = "validate_rules"
	ActionManageRuleProfiles Action = "manage_rule_profiles"
	ActionExportRules        Action = "export_rules"
	ActionManageIndexes      Action = "manage_indexes"
	ActionRunPlatform        Action = "run_platform"
	ActionIngestRaw          Action = "ingest_raw"
	ActionManageArtifacts    Action = "manage_artifacts"
)

var viewerActions = map[Action]bool{
	ActionReadDatabases: true,
	ActionReadAgents:    true,
}

// Allowed reports whether role may perform action. Admin and user hold
// the full action set; viewer is read-only.
func Allowed(role Role, action Action) bool {
	switch role {
	case RoleAdmin, RoleUser:
		return true
	case RoleViewer:
		return viewerActions[action]
	default:
		return false
	}
}

// Authorize returns a permission error when role may not perform action.
func Authorize(role Role, action Action) error {
	if !Allowed(role, action) {
		return model.Errorf(model.KindPermission, "policy: role %q is not allowed to %s", role, action)
	}
	return nil
}
