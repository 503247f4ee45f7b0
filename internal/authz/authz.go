// Package authz holds the role predicates shared by the HTTP guards and the services.
package authz

import (
	"fmt"
	"strings"

	"campusdesk/internal/user/model"
	pkgerrors "campusdesk/pkg/errors"
)

// RequireRole returns nil when actor holds one of roles.
// A nil actor fails with Unauthorized; a role mismatch fails with Forbidden.
func RequireRole(actor *model.User, roles ...model.Role) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.Unauthorized)
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.Forbidden).WithMessage(deniedMessage(roles)).
		WithDetail("role", string(actor.Role))
}

// IsStudent reports whether actor is a student.
func IsStudent(actor *model.User) bool {
	return actor != nil && actor.Role == model.RoleStudent
}

// IsProfessor reports whether actor is a professor.
func IsProfessor(actor *model.User) bool {
	return actor != nil && actor.Role == model.RoleProfessor
}

// IsOwner reports whether actor created the record owned by ownerID.
func IsOwner(actor *model.User, ownerID string) bool {
	return actor != nil && ownerID != "" && actor.ID == ownerID
}

func deniedMessage(roles []model.Role) string {
	if len(roles) == 0 {
		return "Access denied"
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, roleLabel(role))
	}
	return fmt.Sprintf("Access denied: %s only.", strings.Join(names, " and "))
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleStudent:
		return "Students"
	case model.RoleProfessor:
		return "Professors"
	case model.RoleAdmin:
		return "Admins"
	default:
		return string(role)
	}
}
