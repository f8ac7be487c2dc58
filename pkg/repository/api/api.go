package api

import (
	"context"
	"errors"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"

	"github.com/coachboard/coachboard-service/pkg/model"
)

var (
	ErrNoRows    = errors.New("no rows in result set")
	ErrDuplicate = errors.New("duplicate key")
)

type Repositories interface {
	Diagram() DiagramRepository
	User() UserRepository
}

// Page limits list queries. A Limit <= 0 means DefaultPageSize.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// DiagramUpdate carries the columns to change. Unset values are left alone.
// Payload and Version are expected to be set together.
type DiagramUpdate struct {
	Name    omit.Val[string]
	Sport   omit.Val[string]
	Version omit.Val[int]
	Payload omit.Val[[]byte]
	Public  omit.Val[bool]
}

type DiagramRepository interface {
	Create(ctx context.Context, d *model.Diagram) (*model.Diagram, error)
	LoadByID(ctx context.Context, id uuid.UUID) (*model.Diagram, error)
	LoadByMutationID(ctx context.Context, ownerID uuid.UUID, mutationID string) (
		*model.Diagram, error,
	)
	LoadPublic(ctx context.Context, page Page) ([]*model.Diagram, error)
	LoadByOwner(ctx context.Context, ownerID uuid.UUID, page Page) (
		[]*model.Diagram, error,
	)
	Update(ctx context.Context, id uuid.UUID, upd *DiagramUpdate) (int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	LoadByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// LoadByAPIKey expects the hashed key
	LoadByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	LoadAll(ctx context.Context) ([]*model.User, error)
}

type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Normalize clamps p to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	p.Limit = min(p.Limit, MaxPageSize)
	p.Offset = max(p.Offset, 0)
	return p
}
