package model

import "context"

// Role is the access level resolved by the identity service.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// SubjectAssignment is one {subject, class} pair a teacher is assigned to.
type SubjectAssignment struct {
	Subject string `json:"subject"`
	ClassID string `json:"class"`
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID       string
	Role     Role
	Subjects []SubjectAssignment
}

// IsAssigned reports whether the caller teaches subject in classID.
func (c Caller) IsAssigned(subject, classID string) bool {
	for _, s := range c.Subjects {
		if s.Subject == subject && s.ClassID == classID {
			return true
		}
	}
	return false
}

type callerCtxKey struct{}

// ContextWithCaller stores the caller in ctx.
func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, c)
}

// CallerFromContext returns the caller stored in ctx, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerCtxKey{}).(Caller)
	return c, ok
}
