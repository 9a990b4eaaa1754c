package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/platform/go/catalog"
)

// InfluencersTable holds the tenant-scoped influencer directory.
const InfluencersTable = "influencers"

const influencerColumns = `influencer_id, tenant_id, handle, name, platform, followers, engagement_rate,
        bio, topics, country, language, audience_country, audience_gender, audience_age, created_at`

// InfluencerStore provides access to the influencers table.
type InfluencerStore struct {
	pool *pgxpool.Pool
}

func NewInfluencerStore(ctx context.Context, pool *pgxpool.Pool) (*InfluencerStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &InfluencerStore{pool: pool}, nil
}

// ListByTenant returns every influencer of the tenant in insertion order.
func (s *InfluencerStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	query, err := filter.Build(tenantID, filter.Criteria{})
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, query)
}

// Search renders q as SQL and returns the matching rows in the order q asks for.
func (s *InfluencerStore) Search(ctx context.Context, q filter.Query) ([]catalog.Influencer, error) {
	if q.TenantID == uuid.Nil {
		return nil, errors.New("tenant id is required")
	}

	where, args, orderBy := q.SQL()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s`, influencerColumns, InfluencersTable, where, orderBy)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query influencers: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.Influencer, 0)
	for rows.Next() {
		inf, err := scanInfluencer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the influencer regardless of tenant; callers enforce tenant access.
func (s *InfluencerStore) Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE influencer_id = $1`, influencerColumns, InfluencersTable)
	return scanInfluencer(s.pool.QueryRow(ctx, query, id))
}

// Upsert inserts the influencer or updates the row holding the same handle.
// Handles are global: when the existing row belongs to another tenant nothing is
// written and ErrHandleConflict is returned.
func (s *InfluencerStore) Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error) {
	if inf.TenantID == uuid.Nil {
		return catalog.Influencer{}, errors.New("tenant id is required")
	}
	handle := catalog.NormalizeHandle(inf.Handle)
	if handle == "" {
		return catalog.Influencer{}, errors.New("handle is required")
	}
	if inf.ID == uuid.Nil {
		inf.ID = uuid.New()
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (
            influencer_id, tenant_id, handle, name, platform, followers, engagement_rate,
            bio, topics, country, language, audience_country, audience_gender, audience_age
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (handle) DO UPDATE SET
            name = EXCLUDED.name,
            platform = EXCLUDED.platform,
            followers = EXCLUDED.followers,
            engagement_rate = EXCLUDED.engagement_rate,
            bio = EXCLUDED.bio,
            topics = EXCLUDED.topics,
            country = EXCLUDED.country,
            language = EXCLUDED.language,
            audience_country = EXCLUDED.audience_country,
            audience_gender = EXCLUDED.audience_gender,
            audience_age = EXCLUDED.audience_age,
            updated_at = clock_timestamp()
        WHERE %s.tenant_id = EXCLUDED.tenant_id
        RETURNING %s
    `, InfluencersTable, InfluencersTable, influencerColumns)

	out, err := scanInfluencer(s.pool.QueryRow(ctx, query,
		inf.ID, inf.TenantID, handle, strings.TrimSpace(inf.Name), strings.TrimSpace(inf.Platform),
		inf.Followers, inf.EngagementRate, inf.Bio, inf.Topics, inf.Country, inf.Language,
		inf.AudienceCountry, inf.AudienceGender, inf.AudienceAge,
	))
	if err != nil {
		if errors.Is(err, ErrInfluencerNotFound) {
			return catalog.Influencer{}, ErrHandleConflict
		}
		if isUniqueViolation(err) {
			return catalog.Influencer{}, ErrHandleConflict
		}
		return catalog.Influencer{}, err
	}
	return out, nil
}

func scanInfluencer(row pgx.Row) (catalog.Influencer, error) {
	var inf catalog.Influencer
	if err := row.Scan(
		&inf.ID, &inf.TenantID, &inf.Handle, &inf.Name, &inf.Platform, &inf.Followers, &inf.EngagementRate,
		&inf.Bio, &inf.Topics, &inf.Country, &inf.Language,
		&inf.AudienceCountry, &inf.AudienceGender, &inf.AudienceAge, &inf.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Influencer{}, ErrInfluencerNotFound
		}
		return catalog.Influencer{}, err
	}
	return inf, nil
}
