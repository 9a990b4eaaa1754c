package persistence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantsTable is the tenant registry table.
const TenantsTable = "tenants"

const tenantColumns = "tenant_id, slug, display_name, created_at"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// TenantRecord is a registered tenant.
type TenantRecord struct {
	TenantID    uuid.UUID `db:"tenant_id"`
	Slug        string    `db:"slug"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// TenantStore provides access to the tenants table.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes BootstrapSchema already created the table.
func NewTenantStore(ctx context.Context, pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

// NormalizeSlug lowercases and trims input and checks it is a URL-safe kebab-case slug.
func NormalizeSlug(input string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", errors.New("slug is required")
	}
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: use lowercase letters, digits and single hyphens", input)
	}
	return normalized, nil
}

// Create registers a tenant. The slug is normalized before insert.
func (s *TenantStore) Create(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.TenantID == uuid.Nil {
		return TenantRecord{}, errors.New("tenant id is required")
	}
	slug, err := NormalizeSlug(rec.Slug)
	if err != nil {
		return TenantRecord{}, err
	}
	if strings.TrimSpace(rec.DisplayName) == "" {
		return TenantRecord{}, errors.New("display name is required")
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (tenant_id, slug, display_name)
        VALUES ($1, $2, $3)
        RETURNING %s
    `, TenantsTable, tenantColumns)

	out, err := scanTenantRecord(s.pool.QueryRow(ctx, query, rec.TenantID, slug, strings.TrimSpace(rec.DisplayName)))
	if err != nil {
		if isUniqueViolation(err) {
			return TenantRecord{}, ErrTenantConflict
		}
		return TenantRecord{}, err
	}
	return out, nil
}

// Get fetches a tenant by id.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1`, tenantColumns, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, id))
}

// GetBySlug fetches a tenant by its slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (TenantRecord, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return TenantRecord{}, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1`, tenantColumns, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, normalized))
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	if err := row.Scan(&rec.TenantID, &rec.Slug, &rec.DisplayName, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrTenantNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}
