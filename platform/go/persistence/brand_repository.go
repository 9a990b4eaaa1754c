package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taippa-io/taippa/platform/go/catalog"
)

// BrandsTable holds brand profiles used as match sources.
const BrandsTable = "brands"

const brandColumns = "brand_id, tenant_id, owner_id, name, description, industry, target_audience"

// BrandStore provides access to the brands table.
type BrandStore struct {
	pool *pgxpool.Pool
}

func NewBrandStore(ctx context.Context, pool *pgxpool.Pool) (*BrandStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &BrandStore{pool: pool}, nil
}

// Get returns the brand regardless of tenant; callers enforce tenant access.
func (s *BrandStore) Get(ctx context.Context, id uuid.UUID) (catalog.Brand, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE brand_id = $1`, brandColumns, BrandsTable)
	return scanBrand(s.pool.QueryRow(ctx, query, id))
}

// Create inserts a brand. A nil id is replaced with a fresh one.
func (s *BrandStore) Create(ctx context.Context, b catalog.Brand) (catalog.Brand, error) {
	if b.TenantID == uuid.Nil {
		return catalog.Brand{}, errors.New("tenant id is required")
	}
	if strings.TrimSpace(b.Name) == "" {
		return catalog.Brand{}, errors.New("brand name is required")
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (%s)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING %s
    `, BrandsTable, brandColumns, brandColumns)

	return scanBrand(s.pool.QueryRow(ctx, query,
		b.ID, b.TenantID, b.OwnerID, strings.TrimSpace(b.Name), b.Description, b.Industry, b.TargetAudience,
	))
}

func scanBrand(row pgx.Row) (catalog.Brand, error) {
	var b catalog.Brand
	if err := row.Scan(&b.ID, &b.TenantID, &b.OwnerID, &b.Name, &b.Description, &b.Industry, &b.TargetAudience); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Brand{}, ErrBrandNotFound
		}
		return catalog.Brand{}, err
	}
	return b, nil
}
