package nickname

import "slices"

// Identity is the subset of a Discord user/member the nickname flow needs.
type Identity struct {
	ID         string
	Username   string
	GlobalName string

	// Roles is nil when the member's roles are unknown.
	Roles []string
}

// DisplayName prefers the global display name over the username.
func (id Identity) DisplayName() string {
	if id.GlobalName != "" {
		return id.GlobalName
	}
	return id.Username
}

// HasRole reports whether roleID is among the known roles.
func (id Identity) HasRole(roleID string) bool {
	return slices.Contains(id.Roles, roleID)
}

// Request is one invocation's raw input. It is consumed immediately and
// never persisted.
type Request struct {
	RawName        string
	RawInstitution string
	Target         Identity
	Actor          Identity
}

// SelfService reports whether the actor is renaming themselves.
func (r Request) SelfService() bool {
	return r.Target.ID == r.Actor.ID
}

type NicknameOutcome int

const (
	NicknameNotAttempted NicknameOutcome = iota
	NicknameApplied
	NicknamePermissionDenied
)

func (o NicknameOutcome) String() string {
	switch o {
	case NicknameApplied:
		return "applied"
	case NicknamePermissionDenied:
		return "permission_denied"
	default:
		return "not_attempted"
	}
}

type RoleOutcome int

const (
	RoleNotAttempted RoleOutcome = iota
	RoleGranted
	RoleAlreadyPresent
	RolePermissionDenied
)

func (o RoleOutcome) String() string {
	switch o {
	case RoleGranted:
		return "granted"
	case RoleAlreadyPresent:
		return "already_present"
	case RolePermissionDenied:
		return "permission_denied"
	default:
		return "not_attempted"
	}
}
