package diagram

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/notify"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

// memDiagrams keeps diagrams in memory and mimics the constraints of the
// diagram table.
type memDiagrams struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Diagram
	now  time.Time
	// staleLookups makes that many LoadByMutationID calls miss, as if a
	// concurrent save had not committed yet.
	staleLookups int
}

type memRepos struct {
	diagrams *memDiagrams
}

func (m *memRepos) Diagram() api.DiagramRepository { return m.diagrams }
func (m *memRepos) User() api.UserRepository       { return nil }

func newMemRepos() *memRepos {
	return &memRepos{diagrams: &memDiagrams{
		rows: map[uuid.UUID]model.Diagram{},
		now:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
}

func (m *memDiagrams) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memDiagrams) Create(_ context.Context, d *model.Diagram) (*model.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if d.ClientMutationID != "" && r.OwnerID == d.OwnerID &&
			r.ClientMutationID == d.ClientMutationID {
			return nil, api.ErrDuplicate
		}
	}
	row := *d
	if row.ID.IsNil() {
		row.ID = uuid.Must(uuid.NewV4())
	}
	row.CreatedAt = m.tick()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	return &row, nil
}

func (m *memDiagrams) missLookups(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleLookups = n
}

func (m *memDiagrams) LoadByID(_ context.Context, id uuid.UUID) (*model.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		return &r, nil
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // can't make both editor and linter happy
func (m *memDiagrams) LoadByMutationID(
	_ context.Context, ownerID uuid.UUID, mutationID string,
) (*model.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleLookups > 0 {
		m.staleLookups--
		return nil, api.ErrNoRows
	}
	for _, r := range m.rows {
		if r.OwnerID == ownerID && r.ClientMutationID == mutationID {
			return &r, nil
		}
	}
	return nil, api.ErrNoRows
}

func (m *memDiagrams) LoadPublic(_ context.Context, page api.Page) ([]*model.Diagram, error) {
	return m.filter(page, func(d *model.Diagram) bool { return d.Public }), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (m *memDiagrams) LoadByOwner(
	_ context.Context, ownerID uuid.UUID, page api.Page,
) ([]*model.Diagram, error) {
	return m.filter(page, func(d *model.Diagram) bool { return d.OwnerID == ownerID }), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (m *memDiagrams) Update(
	_ context.Context, id uuid.UUID, upd *api.DiagramUpdate,
) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return 0, nil
	}
	if v, ok := upd.Name.Get(); ok {
		r.Name = v
	}
	if v, ok := upd.Sport.Get(); ok {
		r.Sport = v
	}
	if v, ok := upd.Version.Get(); ok {
		r.Version = v
	}
	if v, ok := upd.Payload.Get(); ok {
		r.Payload = v
	}
	if v, ok := upd.Public.Get(); ok {
		r.Public = v
	}
	r.UpdatedAt = m.tick()
	m.rows[id] = r
	return 1, nil
}

func (m *memDiagrams) DeleteByID(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memDiagrams) filter(page api.Page, keep func(*model.Diagram) bool) []*model.Diagram {
	m.mu.Lock()
	defer m.mu.Unlock()
	page = page.Normalize()
	ret := []*model.Diagram{}
	for _, r := range m.rows {
		if keep(&r) {
			ret = append(ret, &r)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].UpdatedAt.After(ret[j].UpdatedAt)
	})
	if page.Offset >= len(ret) {
		return []*model.Diagram{}
	}
	return ret[page.Offset:min(len(ret), page.Offset+page.Limit)]
}

// corrupt replaces the stored payload bypassing all checks
func (m *memDiagrams) corrupt(id uuid.UUID, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	r.Payload = []byte(data)
	m.rows[id] = r
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(_ context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]notify.Kind, len(r.events))
	for i, e := range r.events {
		ret[i] = e.Kind
	}
	return ret
}

type userCache map[string]*model.User

func (c userCache) Get(_ context.Context, key string) (*model.User, error) {
	if u, ok := c[key]; ok {
		return u, nil
	}
	return nil, api.ErrNoRows
}

func (c userCache) Invalidate(_ context.Context, key string) {
	delete(c, key)
}

func (c userCache) add(token string, u *model.User) {
	c[utils.HashAPIKey(token)] = u
}
