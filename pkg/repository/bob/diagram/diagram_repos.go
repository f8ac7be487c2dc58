//nolint:whitespace // can't make both editor and linter happy
package diagram

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	bobCtx "github.com/coachboard/coachboard-service/pkg/repository/bob/context"
)

const tableName = "diagram"

var columns = []any{
	"id", "owner_id", "name", "sport", "version", "payload",
	"is_public", "client_mutation_id", "created_at", "updated_at",
}

type (
	repo struct {
		conn bob.Executor
	}
	diagramRow struct {
		ID               uuid.UUID        `db:"id"`
		OwnerID          uuid.UUID        `db:"owner_id"`
		Name             string           `db:"name"`
		Sport            string           `db:"sport"`
		Version          int              `db:"version"`
		Payload          []byte           `db:"payload"`
		IsPublic         bool             `db:"is_public"`
		ClientMutationID null.Val[string] `db:"client_mutation_id"`
		CreatedAt        time.Time        `db:"created_at"`
		UpdatedAt        time.Time        `db:"updated_at"`
	}
)

var _ api.DiagramRepository = (*repo)(nil)

func NewDiagramRepository(conn bob.Executor) api.DiagramRepository {
	return &repo{
		conn: conn,
	}
}

// Create stores d. ID is generated when d.ID is nil.
func (r *repo) Create(ctx context.Context, d *model.Diagram) (*model.Diagram, error) {
	id := d.ID
	if id.IsNil() {
		var err error
		if id, err = uuid.NewV4(); err != nil {
			return nil, err
		}
	}
	var mutationID null.Val[string]
	if d.ClientMutationID != "" {
		mutationID = null.From(d.ClientMutationID)
	}
	q := psql.Insert(
		im.Into(tableName, "id", "owner_id", "name", "sport", "version",
			"payload", "is_public", "client_mutation_id"),
		im.Values(
			psql.Arg(id),
			psql.Arg(d.OwnerID),
			psql.Arg(d.Name),
			psql.Arg(d.Sport),
			psql.Arg(d.Version),
			psql.Arg(d.Payload),
			psql.Arg(d.Public),
			psql.Arg(mutationID),
		),
		im.Returning(columns...),
	)
	row, err := bob.One(ctx, r.getExecutor(ctx), q, scan.StructMapper[diagramRow]())
	if err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (r *repo) LoadByID(ctx context.Context, id uuid.UUID) (*model.Diagram, error) {
	return r.loadOne(ctx, sm.Where(psql.Quote("id").EQ(psql.Arg(id))))
}

func (r *repo) LoadByMutationID(
	ctx context.Context,
	ownerID uuid.UUID,
	mutationID string,
) (*model.Diagram, error) {
	return r.loadOne(ctx,
		sm.Where(psql.Quote("owner_id").EQ(psql.Arg(ownerID))),
		sm.Where(psql.Quote("client_mutation_id").EQ(psql.Arg(mutationID))),
	)
}

func (r *repo) LoadPublic(ctx context.Context, page api.Page) ([]*model.Diagram, error) {
	return r.loadPage(ctx, page,
		sm.Where(psql.Quote("is_public").EQ(psql.Arg(true))))
}

func (r *repo) LoadByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	page api.Page,
) ([]*model.Diagram, error) {
	return r.loadPage(ctx, page,
		sm.Where(psql.Quote("owner_id").EQ(psql.Arg(ownerID))))
}

// Update changes the columns set in upd and returns the number of rows affected.
func (r *repo) Update(ctx context.Context, id uuid.UUID, upd *api.DiagramUpdate) (
	int, error,
) {
	mods := []bob.Mod[*dialect.UpdateQuery]{
		um.Table(tableName),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	}
	if v, ok := upd.Name.Get(); ok {
		mods = append(mods, um.SetCol("name").To(psql.Arg(v)))
	}
	if v, ok := upd.Sport.Get(); ok {
		mods = append(mods, um.SetCol("sport").To(psql.Arg(v)))
	}
	if v, ok := upd.Version.Get(); ok {
		mods = append(mods, um.SetCol("version").To(psql.Arg(v)))
	}
	if v, ok := upd.Payload.Get(); ok {
		mods = append(mods, um.SetCol("payload").To(psql.Arg(v)))
	}
	if v, ok := upd.Public.Get(); ok {
		mods = append(mods, um.SetCol("is_public").To(psql.Arg(v)))
	}
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Update(mods...))
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// deletes an entry from the database, returns number of rows deleted.
func (r *repo) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Delete(
		dm.From(tableName),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *repo) loadOne(
	ctx context.Context,
	where ...bob.Mod[*dialect.SelectQuery],
) (*model.Diagram, error) {
	mods := append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}, where...)
	row, err := bob.One(ctx, r.getExecutor(ctx), psql.Select(mods...),
		scan.StructMapper[diagramRow]())
	if err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (r *repo) loadPage(
	ctx context.Context,
	page api.Page,
	where ...bob.Mod[*dialect.SelectQuery],
) ([]*model.Diagram, error) {
	page = page.Normalize()
	mods := append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}, where...)
	mods = append(mods,
		sm.OrderBy(psql.Quote("updated_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
		sm.Limit(page.Limit),
		sm.Offset(page.Offset),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), psql.Select(mods...),
		scan.StructMapper[diagramRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Diagram, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

func (d *diagramRow) toModel() *model.Diagram {
	return &model.Diagram{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		Name:             d.Name,
		Sport:            d.Sport,
		Version:          d.Version,
		Payload:          d.Payload,
		Public:           d.IsPublic,
		ClientMutationID: d.ClientMutationID.GetOr(""),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return api.ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Join(api.ErrDuplicate, err)
	}
	return err
}
