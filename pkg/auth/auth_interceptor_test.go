//nolint:funlen // ok for test code
package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/gofrs/uuid/v5"
	"gotest.tools/v3/assert"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

type mapCache map[string]*model.User

func (m mapCache) Get(_ context.Context, key string) (*model.User, error) {
	if key == utils.HashAPIKey("broken") {
		return nil, errors.New("db down")
	}
	if u, ok := m[key]; ok {
		return u, nil
	}
	return nil, api.ErrNoRows
}

func (m mapCache) Invalidate(_ context.Context, key string) {
	delete(m, key)
}

func TestAuthenticate(t *testing.T) {
	coachID := uuid.Must(uuid.NewV4())
	users := mapCache{
		utils.HashAPIKey("coach-key"): {ID: coachID, Name: "coach", Active: true},
		utils.HashAPIKey("boss-key"):  {Name: "boss", Active: true, Admin: true},
		utils.HashAPIKey("gone-key"):  {Name: "gone", Active: false},
	}
	i := NewAuthInterceptor(WithAdminToken("admin-secret"), WithUserCache(users)).(*authInterceptor)

	tests := []struct {
		name      string
		token     string
		wantName  string
		wantRoles []Role
		wantCode  connect.Code
	}{
		{name: "no header", wantName: "anon", wantRoles: []Role{}},
		{name: "admin token", token: "admin-secret", wantName: "admin", wantRoles: []Role{RoleAdmin}},
		{name: "coach", token: "coach-key", wantName: "coach", wantRoles: []Role{RoleCoach}},
		{name: "admin user", token: "boss-key", wantName: "boss", wantRoles: []Role{RoleCoach, RoleAdmin}},
		{name: "inactive", token: "gone-key", wantCode: connect.CodeUnauthenticated},
		{name: "unknown", token: "nope", wantCode: connect.CodeUnauthenticated},
		{name: "admin prefix", token: "admin-secre", wantCode: connect.CodeUnauthenticated},
		{name: "admin extended", token: "admin-secret2", wantCode: connect.CodeUnauthenticated},
		{name: "lookup error", token: "broken", wantCode: connect.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.token != "" {
				h.Set(TokenHeader, tt.token)
			}
			a, err := i.authenticate(context.Background(), h)
			if tt.wantCode != 0 {
				assert.Equal(t, connect.CodeOf(err), tt.wantCode)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, a.Principal().Name(), tt.wantName)
			assert.DeepEqual(t, a.Roles(), tt.wantRoles)
		})
	}

	h := http.Header{}
	h.Set(TokenHeader, "coach-key")
	a, err := i.authenticate(context.Background(), h)
	assert.NilError(t, err)
	assert.Equal(t, a.Principal().ID(), coachID.String())
	assert.Assert(t, !a.Anonymous())
}

func TestAdminTokenUnset(t *testing.T) {
	i := NewAuthInterceptor().(*authInterceptor)
	assert.Assert(t, !i.isAdminToken(""))
	assert.Assert(t, !i.isAdminToken("admin-secret"))

	i = NewAuthInterceptor(WithAdminToken("admin-secret")).(*authInterceptor)
	assert.Assert(t, i.isAdminToken("admin-secret"))
}

func TestFromContext(t *testing.T) {
	assert.Assert(t, FromContext(context.Background()).Anonymous())
	ctx := NewContext(context.Background(), NewAuth("x", "1", RoleCoach))
	assert.Equal(t, FromContext(ctx).Principal().ID(), "1")
}
