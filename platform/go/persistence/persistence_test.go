package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/platform/go/catalog"
)

func strPtr(s string) *string   { return &s }
func i64Ptr(v int64) *int64     { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	got := splitStatements(`-- header comment
CREATE TABLE a (id INT);

CREATE INDEX a_idx ON a (id);
   `)
	require.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX a_idx ON a (id)"}, got)
}

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "acme-agency", want: "acme-agency"},
		{input: "  Acme-Agency ", want: "acme-agency"},
		{input: "   ", wantErr: true},
		{input: "acme_agency", wantErr: true},
		{input: "-acme", wantErr: true},
		{input: "acme--agency", wantErr: true},
	}

	for _, tc := range tests {
		got, err := NormalizeSlug(tc.input)
		if tc.wantErr {
			require.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestStoresRequirePool(t *testing.T) {
	ctx := context.Background()

	_, err := NewTenantStore(ctx, nil)
	require.Error(t, err)
	_, err = NewBrandStore(ctx, nil)
	require.Error(t, err)
	_, err = NewInfluencerStore(ctx, nil)
	require.Error(t, err)
	require.Error(t, BootstrapSchema(ctx, nil))
}

func TestDirectoryStoresIntegration(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()

	// Idempotent on re-run.
	require.NoError(t, BootstrapSchema(ctx, pool))

	tenants, err := NewTenantStore(ctx, pool)
	require.NoError(t, err)
	brands, err := NewBrandStore(ctx, pool)
	require.NoError(t, err)
	influencers, err := NewInfluencerStore(ctx, pool)
	require.NoError(t, err)

	suffix := uuid.NewString()[:8]
	tenantA, err := tenants.Create(ctx, TenantRecord{TenantID: uuid.New(), Slug: "agency-a-" + suffix, DisplayName: "Agency A"})
	require.NoError(t, err)
	tenantB, err := tenants.Create(ctx, TenantRecord{TenantID: uuid.New(), Slug: "agency-b-" + suffix, DisplayName: "Agency B"})
	require.NoError(t, err)

	_, err = tenants.Create(ctx, TenantRecord{TenantID: uuid.New(), Slug: tenantA.Slug, DisplayName: "Dup"})
	require.ErrorIs(t, err, ErrTenantConflict)

	fetched, err := tenants.GetBySlug(ctx, tenantA.Slug)
	require.NoError(t, err)
	require.Equal(t, tenantA.TenantID, fetched.TenantID)

	_, err = tenants.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrTenantNotFound)

	brand, err := brands.Create(ctx, catalog.Brand{
		TenantID:    tenantA.TenantID,
		OwnerID:     "client-1",
		Name:        "Glow Labs",
		Description: strPtr("skincare for everyday routines"),
	})
	require.NoError(t, err)

	gotBrand, err := brands.Get(ctx, brand.ID)
	require.NoError(t, err)
	require.Equal(t, "client-1", gotBrand.OwnerID)
	require.Equal(t, "skincare for everyday routines", *gotBrand.Description)

	_, err = brands.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrBrandNotFound)

	seed := []catalog.Influencer{
		{TenantID: tenantA.TenantID, Handle: "@Skin_" + suffix, Name: "Skin Daily", Platform: "Instagram", Followers: i64Ptr(5000), EngagementRate: f64Ptr(4.5), Topics: strPtr("skincare, beauty"), Country: strPtr("US")},
		{TenantID: tenantA.TenantID, Handle: "nofollow_" + suffix, Name: "Mystery", Platform: "instagram", Topics: strPtr("beauty")},
		{TenantID: tenantA.TenantID, Handle: "tech_" + suffix, Name: "Gadget Guru", Platform: "YouTube", Followers: i64Ptr(90000), EngagementRate: f64Ptr(2.1)},
		{TenantID: tenantB.TenantID, Handle: "other_" + suffix, Name: "Other Tenant", Platform: "instagram", Followers: i64Ptr(1_000_000)},
	}
	for _, inf := range seed {
		_, err := influencers.Upsert(ctx, inf)
		require.NoError(t, err)
	}

	all, err := influencers.ListByTenant(ctx, tenantA.TenantID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "skin_"+suffix, all[0].Handle)
	for _, inf := range all {
		require.Equal(t, tenantA.TenantID, inf.TenantID)
	}

	platform := "INSTAGRAM"
	minFollowers := int64(1000)
	q, err := filter.Build(tenantA.TenantID, filter.Criteria{
		Platform:     &platform,
		MinFollowers: &minFollowers,
		SortBy:       "followers",
		Order:        "asc",
	})
	require.NoError(t, err)

	found, err := influencers.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "skin_"+suffix, found[0].Handle)
	require.Nil(t, found[1].Followers, "null followers pass the bound and sort last")

	// Search and the in-memory executor agree on the same query.
	require.Equal(t, handles(q.Apply(all)), handles(found))

	needle := "BEAUTY"
	q, err = filter.Build(tenantA.TenantID, filter.Criteria{Topic: &needle})
	require.NoError(t, err)
	found, err = influencers.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, found, 2)

	// Re-import updates in place.
	updated, err := influencers.Upsert(ctx, catalog.Influencer{TenantID: tenantA.TenantID, Handle: "SKIN_" + suffix, Name: "Skin Daily", Platform: "instagram", Followers: i64Ptr(6000)})
	require.NoError(t, err)
	require.Equal(t, all[0].ID, updated.ID)
	require.Equal(t, int64(6000), *updated.Followers)

	// Another tenant cannot take over the handle.
	_, err = influencers.Upsert(ctx, catalog.Influencer{TenantID: tenantB.TenantID, Handle: "skin_" + suffix, Name: "Hijack", Platform: "instagram"})
	require.ErrorIs(t, err, ErrHandleConflict)

	got, err := influencers.Get(ctx, updated.ID)
	require.NoError(t, err)
	require.Equal(t, tenantA.TenantID, got.TenantID)

	_, err = influencers.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrInfluencerNotFound)
}

func handles(records []catalog.Influencer) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Handle)
	}
	return out
}
