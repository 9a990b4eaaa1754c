package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/persistence"
)

// MemoryRepository keeps the directory in insertion order. It evaluates queries with
// filter.Query.Apply, so results match the Postgres store for the same criteria.
// Suitable for tests, local development and seeded demo deployments.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  []catalog.Influencer
	byHandle map[string]int
	now      func() time.Time
}

// NewMemoryRepository constructs a MemoryRepository holding seed in order.
func NewMemoryRepository(seed ...catalog.Influencer) *MemoryRepository {
	r := &MemoryRepository{byHandle: make(map[string]int), now: time.Now}
	for _, inf := range seed {
		if _, err := r.Upsert(context.Background(), inf); err != nil {
			panic("invalid seed influencer: " + err.Error())
		}
	}
	return r
}

func (r *MemoryRepository) Search(ctx context.Context, q filter.Query) ([]catalog.Influencer, error) {
	if q.TenantID == uuid.Nil {
		return nil, errors.New("tenant id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return q.Apply(r.records), nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	q, err := filter.Build(tenantID, filter.Criteria{})
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, q)
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inf := range r.records {
		if inf.ID == id {
			return inf, nil
		}
	}
	return catalog.Influencer{}, persistence.ErrInfluencerNotFound
}

// Upsert mirrors the Postgres store: handles are global and may only be updated by
// the tenant that owns them.
func (r *MemoryRepository) Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error) {
	if inf.TenantID == uuid.Nil {
		return catalog.Influencer{}, errors.New("tenant id is required")
	}
	handle := catalog.NormalizeHandle(inf.Handle)
	if handle == "" {
		return catalog.Influencer{}, errors.New("handle is required")
	}
	inf.Handle = handle
	inf.Name = strings.TrimSpace(inf.Name)
	inf.Platform = strings.TrimSpace(inf.Platform)

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byHandle[handle]; ok {
		existing := r.records[idx]
		if existing.TenantID != inf.TenantID {
			return catalog.Influencer{}, persistence.ErrHandleConflict
		}
		inf.ID = existing.ID
		inf.CreatedAt = existing.CreatedAt
		r.records[idx] = inf
		return inf, nil
	}

	if inf.ID == uuid.Nil {
		inf.ID = uuid.New()
	}
	inf.CreatedAt = r.now().UTC()
	r.byHandle[handle] = len(r.records)
	r.records = append(r.records, inf)
	return inf, nil
}
