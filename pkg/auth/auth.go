package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleCoach Role = "coach"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

type Principal interface {
	Name() string
	// ID is the user id, empty for principals not backed by a user.
	ID() string
}

type Authentication interface {
	Principal() Principal
	Roles() []Role
	Anonymous() bool
}

type (
	SimpleAuth struct {
		principal Principal
		roles     []Role
		anonymous bool
	}
	SimplePrincipal struct {
		name string
		id   string
	}
)

func NewAuth(name, id string, roles ...Role) *SimpleAuth {
	return &SimpleAuth{
		principal: &SimplePrincipal{name: name, id: id},
		roles:     roles,
	}
}

func (s *SimplePrincipal) Name() string { return s.name }
func (s *SimplePrincipal) ID() string   { return s.id }

func (s *SimpleAuth) Principal() Principal { return s.principal }
func (s *SimpleAuth) Roles() []Role        { return s.roles }
func (s *SimpleAuth) Anonymous() bool      { return s.anonymous }

var anon = &SimpleAuth{
	principal: &SimplePrincipal{name: "anon"},
	roles:     []Role{},
	anonymous: true,
}

func Anonymous() Authentication {
	return anon
}

type authCtxKey struct{}

func NewContext(ctx context.Context, a Authentication) context.Context {
	return context.WithValue(ctx, authCtxKey{}, a)
}

// FromContext returns the authentication stored in ctx or the anonymous one.
func FromContext(ctx context.Context) Authentication {
	if ctx == nil {
		return anon
	}
	if a, ok := ctx.Value(authCtxKey{}).(Authentication); ok {
		return a
	}
	return anon
}
