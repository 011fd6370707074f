package enums

import "fmt"

// MemberRole identifies who a JWT was minted for.
type MemberRole string

const (
	MemberRoleSeller     MemberRole = "seller"
	MemberRolePartner    MemberRole = "partner"
	MemberRoleAdmin      MemberRole = "admin"
	MemberRoleOperations MemberRole = "operations"
)

var validMemberRoles = []MemberRole{
	MemberRoleSeller,
	MemberRolePartner,
	MemberRoleAdmin,
	MemberRoleOperations,
}

// String implements fmt.Stringer.
func (r MemberRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may use the admin API surface.
func (r MemberRole) IsStaff() bool {
	return r == MemberRoleAdmin || r == MemberRoleOperations
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
