package service

import (
	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/model"
)

const (
	reasonAccessRestricted = "access restricted"
	reasonNotAssigned      = "not assigned to this subject and class"
)

// authorizeScope allows admins and teachers assigned to subject/classID.
func authorizeScope(caller model.Caller, subject, classID string) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		if caller.IsAssigned(subject, classID) {
			return nil
		}
		return apperror.Forbidden(reasonNotAssigned)
	default:
		return apperror.Forbidden(reasonAccessRestricted)
	}
}

func requireRole(caller model.Caller, roles ...model.Role) error {
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return apperror.Forbidden(reasonAccessRestricted)
}
