// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"fmt"
	"strings"
)

// Role is the access level a permission grants on a label.
type Role string

const (
	RoleReader    Role = "READER"
	RoleApplier   Role = "APPLIER"
	RoleEditor    Role = "EDITOR"
	RoleOrganizer Role = "ORGANIZER"
)

// Roles lists the roles that can be granted, from the weakest.
var Roles = []Role{RoleReader, RoleApplier, RoleEditor, RoleOrganizer}

// ParseRole returns the role named s, case insensitive.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if role == known {
			return role, nil
		}
	}

	names := make([]string, 0, len(Roles))
	for _, known := range Roles {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("%w: %q, must be one of %s", ErrInvalidRole, s, strings.Join(names, ", "))
}

// Permission grants Role on a label to a user, a group or a whole audience.
type Permission struct {
	Name     string
	Email    string
	Person   string
	Group    string
	Audience string
	Role     Role
}

// Principal returns who the permission is granted to.
func (p Permission) Principal() string {
	for _, principal := range []string{p.Email, p.Person, p.Group, p.Audience} {
		if principal != "" {
			return principal
		}
	}
	return p.Name
}
