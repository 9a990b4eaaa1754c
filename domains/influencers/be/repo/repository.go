package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/persistence"
)

// Repository defines the directory operations required by the influencers service
// and the importer. Not-found and conflict results use the persistence sentinels.
type Repository interface {
	Search(ctx context.Context, q filter.Query) ([]catalog.Influencer, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error)
	Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error)
	Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error)
}

type postgresRepository struct {
	store *persistence.InfluencerStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.InfluencerStore) Repository {
	if store == nil {
		panic("influencer store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Search(ctx context.Context, q filter.Query) ([]catalog.Influencer, error) {
	return r.store.Search(ctx, q)
}

func (r *postgresRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	return r.store.ListByTenant(ctx, tenantID)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error) {
	return r.store.Upsert(ctx, inf)
}
