package enums

import "fmt"

// ActorRole identifies the kind of authenticated account.
type ActorRole string

const (
	RoleCollector ActorRole = "collector"
	RoleArtist    ActorRole = "artist"
)

var validActorRoles = []ActorRole{RoleCollector, RoleArtist}

// IsValid reports whether the role is one of the canonical values.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
