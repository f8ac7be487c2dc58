package bob

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/repository/bob/diagram"
	"github.com/coachboard/coachboard-service/pkg/repository/bob/user"
)

type bobRepositories struct {
	diagramRepository api.DiagramRepository
	userRepository    api.UserRepository
}

var _ api.Repositories = (*bobRepositories)(nil)

func NewRepositoriesFromPool(pool *pgxpool.Pool) api.Repositories {
	return NewRepositories(bob.NewDB(stdlib.OpenDBFromPool(pool)))
}

func NewRepositories(db bob.DB) api.Repositories {
	return &bobRepositories{
		diagramRepository: diagram.NewDiagramRepository(db),
		userRepository:    user.NewUserRepository(db),
	}
}

func (r *bobRepositories) Diagram() api.DiagramRepository {
	return r.diagramRepository
}

func (r *bobRepositories) User() api.UserRepository {
	return r.userRepository
}
