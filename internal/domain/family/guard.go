package family

import "family-calendar-go/pkg/apperr"

// RequireRole checks a member's role against the privilege an operation
// needs. Owners satisfy every requirement; editors only editor-level ones.
func RequireRole(member *Member, required string) error {
	if roleSatisfies(member.Role, required) {
		return nil
	}
	return apperr.Authorization("requires " + required + " role")
}

func roleSatisfies(role, required string) bool {
	if role == RoleOwner {
		return true
	}
	return role == RoleEditor && required == RoleEditor
}

// WouldViolateMinOwner reports whether removing or demoting the given member
// would leave the family without any owner.
func WouldViolateMinOwner(members []Member, userID string) bool {
	owners := 0
	for _, m := range members {
		if m.Role == RoleOwner && m.UserID != userID {
			owners++
		}
	}
	return owners == 0
}
