package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/persistence"
)

// Repository defines the reads the matching service performs. A missing brand is
// reported as persistence.ErrBrandNotFound.
type Repository interface {
	GetBrand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error)
}

// InfluencerLister is the slice of the directory the matching engine reads.
type InfluencerLister interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error)
}

type postgresRepository struct {
	brands      *persistence.BrandStore
	influencers *persistence.InfluencerStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(brands *persistence.BrandStore, influencers *persistence.InfluencerStore) Repository {
	if brands == nil {
		panic("brand store is required")
	}
	if influencers == nil {
		panic("influencer store is required")
	}
	return &postgresRepository{brands: brands, influencers: influencers}
}

func (r *postgresRepository) GetBrand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error) {
	return r.brands.Get(ctx, brandID)
}

func (r *postgresRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	return r.influencers.ListByTenant(ctx, tenantID)
}

// MemoryRepository keeps brands in a map and reads influencers from any lister,
// typically the in-memory influencer directory.
type MemoryRepository struct {
	mu          sync.RWMutex
	brands      map[uuid.UUID]catalog.Brand
	influencers InfluencerLister
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository(influencers InfluencerLister, brands ...catalog.Brand) *MemoryRepository {
	if influencers == nil {
		panic("influencer lister is required")
	}
	r := &MemoryRepository{brands: make(map[uuid.UUID]catalog.Brand), influencers: influencers}
	for _, b := range brands {
		r.PutBrand(b)
	}
	return r
}

// PutBrand stores b, replacing any brand with the same id.
func (r *MemoryRepository) PutBrand(b catalog.Brand) {
	r.mu.Lock()
	r.brands[b.ID] = b
	r.mu.Unlock()
}

func (r *MemoryRepository) GetBrand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.brands[brandID]
	if !ok {
		return catalog.Brand{}, persistence.ErrBrandNotFound
	}
	return b, nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	return r.influencers.ListByTenant(ctx, tenantID)
}
