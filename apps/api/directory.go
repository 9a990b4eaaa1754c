package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taippa-io/taippa/domains/influencers/be/importer"
	influencersrepo "github.com/taippa-io/taippa/domains/influencers/be/repo"
	matchingrepo "github.com/taippa-io/taippa/domains/matching/be/repo"
	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/metrics"
	"github.com/taippa-io/taippa/platform/go/persistence"
	"github.com/taippa-io/taippa/platform/go/storage"
	"github.com/taippa-io/taippa/platform/go/tenant"
	tenantmiddleware "github.com/taippa-io/taippa/platform/go/tenant/middleware"
)

// directory bundles the repositories one backend provides to the domains.
type directory struct {
	influencers influencersrepo.Repository
	matching    matchingrepo.Repository
	tenants     tenantmiddleware.Resolver
	ready       func(ctx context.Context) error
	close       func()
}

func openDirectory(ctx context.Context, cfg config, m *metrics.Metrics, logger *zap.Logger) (*directory, error) {
	switch cfg.DirectoryBackend {
	case "postgres":
		return openPostgresDirectory(ctx, cfg)
	case "memory":
		return openMemoryDirectory(ctx, cfg, m, logger)
	default:
		return nil, fmt.Errorf("invalid DIRECTORY_BACKEND %q (use postgres or memory)", cfg.DirectoryBackend)
	}
}

func openPostgresDirectory(ctx context.Context, cfg config) (*directory, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required when DIRECTORY_BACKEND=postgres")
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}

	tenantStore, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init tenant store: %w", err)
	}
	brandStore, err := persistence.NewBrandStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init brand store: %w", err)
	}
	influencerStore, err := persistence.NewInfluencerStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init influencer store: %w", err)
	}

	return &directory{
		influencers: influencersrepo.NewPostgresRepository(influencerStore),
		matching:    matchingrepo.NewPostgresRepository(brandStore, influencerStore),
		tenants:     registryResolver(tenantStore),
		ready:       func(ctx context.Context) error { return persistence.Ready(ctx, pool) },
		close:       func() { persistence.ClosePool(pool) },
	}, nil
}

// openMemoryDirectory serves a seeded in-process directory; every tenant claim is accepted.
func openMemoryDirectory(ctx context.Context, cfg config, m *metrics.Metrics, logger *zap.Logger) (*directory, error) {
	var client *gcs.Client
	if storage.NeedsClient(cfg.DirectorySeedFile) || storage.NeedsClient(cfg.DirectoryBrandsFile) {
		var err error
		if client, err = gcs.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
	}
	src := storage.NewSource(client)
	closeClient := func() {
		if client != nil {
			_ = client.Close()
		}
	}

	influencers := influencersrepo.NewMemoryRepository()
	if cfg.DirectorySeedFile != "" {
		if cfg.DirectorySeedTenant == uuid.Nil {
			closeClient()
			return nil, errors.New("DIRECTORY_SEED_TENANT is required with DIRECTORY_SEED_FILE")
		}
		im, err := importer.New(influencers, logger, importer.WithMetrics(m))
		if err != nil {
			closeClient()
			return nil, err
		}
		res, err := im.ImportFile(ctx, src, cfg.DirectorySeedFile, cfg.DirectorySeedTenant)
		if err != nil {
			closeClient()
			return nil, fmt.Errorf("seed directory: %w", err)
		}
		for _, rej := range res.Rejected {
			logger.Warn("seed record skipped", zap.Error(rej))
		}
	}

	brands, err := loadBrands(ctx, src, cfg.DirectoryBrandsFile)
	closeClient()
	if err != nil {
		return nil, err
	}

	return &directory{
		influencers: influencers,
		matching:    matchingrepo.NewMemoryRepository(influencers, brands...),
		tenants:     openResolver(),
		ready:       func(context.Context) error { return nil },
		close:       func() {},
	}, nil
}

func registryResolver(store *persistence.TenantStore) tenantmiddleware.Resolver {
	return tenantmiddleware.ResolverFunc(func(ctx context.Context, id uuid.UUID) (tenant.Space, error) {
		rec, err := store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrTenantNotFound) {
				return tenant.Space{}, tenantmiddleware.ErrTenantNotFound
			}
			return tenant.Space{}, err
		}
		return tenant.Space{TenantID: rec.TenantID, Slug: rec.Slug, Name: rec.DisplayName}, nil
	})
}

func openResolver() tenantmiddleware.Resolver {
	return tenantmiddleware.ResolverFunc(func(_ context.Context, id uuid.UUID) (tenant.Space, error) {
		return tenant.Space{TenantID: id}, nil
	})
}

type brandSeed struct {
	ID             uuid.UUID `yaml:"id"`
	TenantID       uuid.UUID `yaml:"tenant_id"`
	OwnerID        string    `yaml:"owner_id"`
	Name           string    `yaml:"name"`
	Description    *string   `yaml:"description"`
	Industry       *string   `yaml:"industry"`
	TargetAudience *string   `yaml:"target_audience"`
}

// loadBrands reads a YAML (or JSON) list of brands. An empty path yields no brands.
func loadBrands(ctx context.Context, src *storage.Source, path string) ([]catalog.Brand, error) {
	if path == "" {
		return nil, nil
	}

	rc, err := src.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return decodeBrands(rc)
}

func decodeBrands(r io.Reader) ([]catalog.Brand, error) {
	var seeds []brandSeed
	if err := yaml.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("decode brands: %w", err)
	}

	brands := make([]catalog.Brand, 0, len(seeds))
	for i, s := range seeds {
		if s.TenantID == uuid.Nil || strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("brand %d: tenant_id and name are required", i)
		}
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		brands = append(brands, catalog.Brand{
			ID:             s.ID,
			TenantID:       s.TenantID,
			OwnerID:        s.OwnerID,
			Name:           strings.TrimSpace(s.Name),
			Description:    s.Description,
			Industry:       s.Industry,
			TargetAudience: s.TargetAudience,
		})
	}
	return brands, nil
}
