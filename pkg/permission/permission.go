package permission

import (
	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/auth"
)

type Permission string

const (
	PermissionCreateDiagram   Permission = "create-diagram"
	PermissionReadDiagram     Permission = "read-diagram"
	PermissionUpdateDiagram   Permission = "update-diagram"
	PermissionDeleteDiagram   Permission = "delete-diagram"
	PermissionListOwnDiagrams Permission = "list-own-diagrams"
)

const (
	PermissionCreateUser Permission = "create-user"
	PermissionReadUser   Permission = "read-user"
)

// Object describes the diagram a permission is checked against.
type Object struct {
	Owner  string
	Public bool
}

type PermissionEvaluator interface {
	HasPermission(a auth.Authentication, perm Permission) bool
	HasObjectPermission(a auth.Authentication, perm Permission, obj Object) bool
}

func NewPermissionEvaluator() PermissionEvaluator {
	if ret, err := NewOpaPermissionEvaluator(); err != nil {
		log.Default().Error("failed to create permission evaluator", log.ErrorField(err))
		return nil
	} else {
		return ret
	}
}
