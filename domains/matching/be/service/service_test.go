package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	influencersrepo "github.com/taippa-io/taippa/domains/influencers/be/repo"
	"github.com/taippa-io/taippa/domains/matching/be/repo"
	"github.com/taippa-io/taippa/platform/go/authz"
	"github.com/taippa-io/taippa/platform/go/catalog"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/metrics"
)

type listerFunc func(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error)

func (f listerFunc) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
	return f(ctx, tenantID)
}

func strPtr(s string) *string   { return &s }
func i64Ptr(v int64) *int64     { return &v }
func f64Ptr(v float64) *float64 { return &v }

type fixture struct {
	tenantA, tenantB uuid.UUID
	brand            catalog.Brand
	foreignBrand     catalog.Brand
	repo             *repo.MemoryRepository
	svc              Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	f := fixture{tenantA: uuid.New(), tenantB: uuid.New()}
	f.brand = catalog.Brand{
		ID:          uuid.New(),
		TenantID:    f.tenantA,
		OwnerID:     "client-1",
		Name:        "Glow Labs",
		Description: strPtr("skincare beauty products"),
		Industry:    strPtr("beauty"),
	}
	f.foreignBrand = catalog.Brand{ID: uuid.New(), TenantID: f.tenantB, OwnerID: "client-9", Name: "Elsewhere"}

	directory := influencersrepo.NewMemoryRepository(
		catalog.Influencer{TenantID: f.tenantA, Handle: "beautyqueen", Name: "Beauty Queen", Platform: "instagram", Followers: i64Ptr(1000), EngagementRate: f64Ptr(10)},
		catalog.Influencer{TenantID: f.tenantA, Handle: "techguy", Name: "Tech Guy", Platform: "youtube", Followers: i64Ptr(500), EngagementRate: f64Ptr(2)},
		catalog.Influencer{TenantID: f.tenantB, Handle: "skincare_pro", Name: "Skincare Beauty Pro", Platform: "instagram", Followers: i64Ptr(1_000_000), EngagementRate: f64Ptr(50)},
	)
	f.repo = repo.NewMemoryRepository(directory, f.brand, f.foreignBrand)

	policy, err := authz.New(authz.Config{})
	require.NoError(t, err)
	f.svc = New(f.repo, policy, metrics.New(prometheus.NewRegistry()))
	return f
}

func (f fixture) as(id string, role authz.Role) context.Context {
	return authz.WithActor(context.Background(), authz.Actor{ID: id, Role: role, TenantID: f.tenantA})
}

func TestMatchRanksOnlyTheBrandTenant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	results, err := f.svc.Match(f.as("viewer-1", authz.RoleViewer), f.brand.ID, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "beautyqueen", results[0].Handle)
	require.Equal(t, "techguy", results[1].Handle)
	require.GreaterOrEqual(t, results[0].Score, results[1].Score)
	for _, r := range results {
		require.NotEqual(t, "skincare_pro", r.Handle)
	}
}

func TestMatchTruncatesToTopN(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	results, err := f.svc.Match(f.as("tm-1", authz.RoleTeamMember), f.brand.ID, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestMatchValidatesTopNBeforeLookingUpTheBrand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, topN := range []int{0, 51, -3} {
		_, err := f.svc.Match(f.as("admin-1", authz.RoleAdmin), uuid.New(), topN)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Contains(t, validationErr.Fields, "top_n")
	}
}

func TestMatchBrandNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Match(f.as("admin-1", authz.RoleAdmin), uuid.New(), 5)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrAccessDenied)
}

func TestMatchForeignBrandIsDenied(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Match(f.as("admin-1", authz.RoleAdmin), f.foreignBrand.ID, 5)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestMatchRequiresActor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Match(context.Background(), f.brand.ID, 5)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMatchEmptyDirectory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	policy, err := authz.New(authz.Config{})
	require.NoError(t, err)
	empty := repo.NewMemoryRepository(influencersrepo.NewMemoryRepository(), f.brand)
	svc := New(empty, policy, nil)

	results, err := svc.Match(f.as("admin-1", authz.RoleAdmin), f.brand.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestMatchDropsCrossTenantCandidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	leaky := listerFunc(func(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
		return []catalog.Influencer{
			{ID: uuid.New(), TenantID: tenantID, Handle: "own", Name: "Own"},
			{ID: uuid.New(), TenantID: f.tenantB, Handle: "leaked", Name: "Leaked"},
		}, nil
	})
	policy, err := authz.New(authz.Config{})
	require.NoError(t, err)
	svc := New(repo.NewMemoryRepository(leaky, f.brand), policy, nil)

	ctx := platformlogging.WithLogger(f.as("admin-1", authz.RoleAdmin), zaptest.NewLogger(t))
	results, err := svc.Match(ctx, f.brand.ID, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "own", results[0].Handle)
}

func TestMatchDirectoryFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	broken := listerFunc(func(ctx context.Context, tenantID uuid.UUID) ([]catalog.Influencer, error) {
		return nil, errors.New("connection reset")
	})
	policy, err := authz.New(authz.Config{})
	require.NoError(t, err)
	svc := New(repo.NewMemoryRepository(broken, f.brand), policy, nil)

	_, err = svc.Match(f.as("admin-1", authz.RoleAdmin), f.brand.ID, 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestBrandReadPolicy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		actor   string
		role    authz.Role
		allowed bool
	}{
		{"client-1", authz.RoleClient, true},
		{"client-2", authz.RoleClient, false},
		{"tm-1", authz.RoleTeamMember, true},
		{"admin-1", authz.RoleAdmin, true},
		{"viewer-1", authz.RoleViewer, false},
	}

	for _, tc := range tests {
		got, err := f.svc.Brand(f.as(tc.actor, tc.role), f.brand.ID)
		if tc.allowed {
			require.NoError(t, err, tc.actor)
			require.Equal(t, f.brand.ID, got.ID)
			continue
		}
		require.ErrorIs(t, err, ErrAccessDenied, tc.actor)
	}

	_, err := f.svc.Brand(f.as("admin-1", authz.RoleAdmin), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
