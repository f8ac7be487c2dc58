//nolint:whitespace // can't make both editor and linter happy
package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	bobCtx "github.com/coachboard/coachboard-service/pkg/repository/bob/context"
)

const tableName = "app_user"

var columns = []any{"id", "name", "api_key", "is_admin", "is_active", "created_at"}

type (
	repo struct {
		conn bob.Executor
	}
	userRow struct {
		ID        uuid.UUID `db:"id"`
		Name      string    `db:"name"`
		APIKey    string    `db:"api_key"`
		IsAdmin   bool      `db:"is_admin"`
		IsActive  bool      `db:"is_active"`
		CreatedAt time.Time `db:"created_at"`
	}
)

var _ api.UserRepository = (*repo)(nil)

func NewUserRepository(conn bob.Executor) api.UserRepository {
	return &repo{
		conn: conn,
	}
}

// Create stores u. The api key is expected to be hashed already.
func (r *repo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	id := u.ID
	if id.IsNil() {
		var err error
		if id, err = uuid.NewV4(); err != nil {
			return nil, err
		}
	}
	q := psql.Insert(
		im.Into(tableName, "id", "name", "api_key", "is_admin", "is_active"),
		im.Values(
			psql.Arg(id),
			psql.Arg(u.Name),
			psql.Arg(u.APIKey),
			psql.Arg(u.Admin),
			psql.Arg(u.Active),
		),
		im.Returning(columns...),
	)
	row, err := bob.One(ctx, r.getExecutor(ctx), q, scan.StructMapper[userRow]())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errors.Join(api.ErrDuplicate, err)
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *repo) LoadByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.loadOne(ctx, psql.Quote("id").EQ(psql.Arg(id)))
}

func (r *repo) LoadByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.loadOne(ctx, psql.Quote("api_key").EQ(psql.Arg(apiKey)))
}

func (r *repo) LoadAll(ctx context.Context) ([]*model.User, error) {
	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.OrderBy(psql.Quote("name")).Asc(),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), q, scan.StructMapper[userRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]*model.User, 0, len(rows))
	for i := range rows {
		ret = append(ret, rows[i].toModel())
	}
	return ret, nil
}

func (r *repo) loadOne(ctx context.Context, where bob.Expression) (*model.User, error) {
	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.Where(where),
	)
	row, err := bob.One(ctx, r.getExecutor(ctx), q, scan.StructMapper[userRow]())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, api.ErrNoRows
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (u *userRow) toModel() *model.User {
	return &model.User{
		ID:        u.ID,
		Name:      u.Name,
		APIKey:    u.APIKey,
		Admin:     u.IsAdmin,
		Active:    u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}
