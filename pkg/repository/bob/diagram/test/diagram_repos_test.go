//nolint:whitespace,lll // can't make both editor and linter happy
package diagram_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/payload"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	bobRepos "github.com/coachboard/coachboard-service/pkg/repository/bob"
	base "github.com/coachboard/coachboard-service/testsupport/basedata"
	"github.com/coachboard/coachboard-service/testsupport/testdb"
)

func setup(t *testing.T) (api.Repositories, api.TransactionManager, *model.User) {
	t.Helper()
	pool := testdb.InitTestDb()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	repos := bobRepos.NewRepositories(db)
	owner := base.CreateSampleUser(context.Background(), repos, "alice")
	return repos, bobRepos.NewTransactionManager(db), owner
}

func TestCreate(t *testing.T) {
	repos, _, owner := setup(t)
	ctx := context.Background()
	d, err := repos.Diagram().Create(ctx, &model.Diagram{
		OwnerID:          owner.ID,
		Name:             "scrum",
		Sport:            "rugby",
		Version:          payload.Version2,
		Payload:          base.SamplePayload(),
		ClientMutationID: "m-1",
	})
	require.NoError(t, err)
	assert.False(t, d.ID.IsNil())
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, "m-1", d.ClientMutationID)

	// the payload comes back byte for byte
	got, err := repos.Diagram().LoadByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, string(base.SamplePayload()), string(got.Payload))

	_, err = repos.Diagram().Create(ctx, &model.Diagram{
		OwnerID:          owner.ID,
		Name:             "again",
		Version:          payload.Version2,
		Payload:          base.SamplePayload(),
		ClientMutationID: "m-1",
	})
	assert.ErrorIs(t, err, api.ErrDuplicate)
}

func TestCreateRejectsUnknownVersion(t *testing.T) {
	repos, _, owner := setup(t)
	_, err := repos.Diagram().Create(context.Background(), &model.Diagram{
		OwnerID: owner.ID,
		Name:    "future",
		Version: 3,
		Payload: []byte(`{"version":3}`),
	})
	assert.Error(t, err)
}

func TestLoadByMutationID(t *testing.T) {
	repos, _, owner := setup(t)
	ctx := context.Background()
	d, err := repos.Diagram().Create(ctx, &model.Diagram{
		OwnerID: owner.ID, Name: "n", Sport: "rugby", Version: 2,
		Payload: base.SamplePayload(), ClientMutationID: "m-7",
	})
	require.NoError(t, err)

	got, err := repos.Diagram().LoadByMutationID(ctx, owner.ID, "m-7")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = repos.Diagram().LoadByMutationID(ctx, uuid.Must(uuid.NewV4()), "m-7")
	assert.ErrorIs(t, err, api.ErrNoRows)
}

func TestLoadPages(t *testing.T) {
	repos, _, alice := setup(t)
	ctx := context.Background()
	other := base.CreateSampleUser(ctx, repos, "bob")
	base.CreateSampleDiagram(ctx, repos, alice.ID, true)
	base.CreateSampleDiagram(ctx, repos, alice.ID, false)
	last := base.CreateSampleDiagram(ctx, repos, other.ID, true)

	public, err := repos.Diagram().LoadPublic(ctx, api.Page{})
	require.NoError(t, err)
	assert.Len(t, public, 2)
	// most recently updated first
	assert.Equal(t, last.ID, public[0].ID)

	mine, err := repos.Diagram().LoadByOwner(ctx, alice.ID, api.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	page, err := repos.Diagram().LoadPublic(ctx, api.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.NotEqual(t, last.ID, page[0].ID)
}

func TestUpdate(t *testing.T) {
	repos, _, owner := setup(t)
	ctx := context.Background()
	d := base.CreateSampleDiagram(ctx, repos, owner.ID, false)

	n, err := repos.Diagram().Update(ctx, d.ID, &api.DiagramUpdate{
		Name:   omit.From("renamed"),
		Public: omit.From(true),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repos.Diagram().LoadByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.True(t, got.Public)
	// untouched columns keep their value
	assert.Equal(t, d.Sport, got.Sport)
	assert.Equal(t, d.Version, got.Version)
	assert.False(t, got.UpdatedAt.Before(d.UpdatedAt))

	n, err = repos.Diagram().Update(ctx, uuid.Must(uuid.NewV4()), &api.DiagramUpdate{
		Name: omit.From("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	repos, _, owner := setup(t)
	ctx := context.Background()
	d := base.CreateSampleDiagram(ctx, repos, owner.ID, true)

	n, err := repos.Diagram().DeleteByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repos.Diagram().LoadByID(ctx, d.ID)
	assert.ErrorIs(t, err, api.ErrNoRows)
}

func TestRunInTxRollback(t *testing.T) {
	repos, txMgr, owner := setup(t)
	ctx := context.Background()
	errAbort := errors.New("abort")

	var created *model.Diagram
	err := txMgr.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = repos.Diagram().Create(ctx, &model.Diagram{
			OwnerID: owner.ID, Name: "tx", Sport: "rugby", Version: 2,
			Payload: base.SamplePayload(),
		})
		if err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	require.NotNil(t, created)

	_, err = repos.Diagram().LoadByID(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrNoRows)
}
