package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/taippa-io/taippa/domains/influencers/be/repo"
	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/storage"
)

type sinkFunc func(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error)

func (f sinkFunc) Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error) {
	return f(ctx, inf)
}

func newImporter(t *testing.T, sink Sink) *Importer {
	t.Helper()
	im, err := New(sink, zaptest.NewLogger(t), WithConcurrency(2))
	require.NoError(t, err)
	return im
}

func TestImportJSONList(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	directory := repo.NewMemoryRepository()

	payload := `[
	  {"handle": "@BeautyQueen", "name": "Beauty Queen", "platform": "Instagram", "followers": 1000, "engagement_rate": 5.5,
	   "topics": ["skincare", " makeup tutorials "], "country": "France", "bio": "  "},
	  {"handle": "techguy", "name": "Tech Guy", "platform": "youtube", "followers": 500, "topics": "AI, programming"}
	]`

	res, err := newImporter(t, directory).Import(ctx, strings.NewReader(payload), FormatJSON, tenantID)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Empty(t, res.Rejected)

	all, err := directory.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byHandle := map[string]catalog.Influencer{}
	for _, inf := range all {
		byHandle[inf.Handle] = inf
	}
	beauty := byHandle["beautyqueen"]
	require.Equal(t, "instagram", beauty.Platform)
	require.Equal(t, "skincare, makeup tutorials", *beauty.Topics)
	require.Equal(t, 5.5, *beauty.EngagementRate)
	require.Nil(t, beauty.Bio)
	require.Equal(t, "AI, programming", *byHandle["techguy"].Topics)
	require.Nil(t, byHandle["techguy"].EngagementRate)
}

func TestImportYAMLWrapped(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	directory := repo.NewMemoryRepository()

	payload := `
influencers:
  - handle: fitfam
    name: Fit Fam
    platform: tiktok
    followers: 25000
    engagement_rate: 3
  - handle: chefmia
    name: Chef Mia
    platform: instagram
    followers: null
`
	res, err := newImporter(t, directory).Import(ctx, strings.NewReader(payload), FormatYAML, tenantID)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)

	all, err := directory.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	directory := repo.NewMemoryRepository()

	payload := `[
	  {"handle": "ok", "name": "Fine", "platform": "instagram"},
	  {"name": "No Handle", "platform": "instagram"},
	  {"handle": "negative", "name": "Neg", "platform": "instagram", "followers": -5},
	  {"handle": "toohot", "name": "Hot", "platform": "instagram", "engagement_rate": 120},
	  {"handle": "@", "name": "Blank", "platform": "instagram"},
	  "not an object"
	]`

	res, err := newImporter(t, directory).Import(ctx, strings.NewReader(payload), FormatJSON, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Len(t, res.Rejected, 5)

	indexes := make([]int, 0, len(res.Rejected))
	for _, rej := range res.Rejected {
		indexes = append(indexes, rej.Index)
		require.Error(t, rej.Err)
	}
	require.Equal(t, []int{1, 2, 3, 4, 5}, indexes)
	require.Equal(t, "negative", res.Rejected[1].Handle)
}

func TestImportKeepsLastDuplicateHandle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	directory := repo.NewMemoryRepository()

	payload := `[
	  {"handle": "twin", "name": "First", "platform": "instagram"},
	  {"handle": "TWIN", "name": "Second", "platform": "instagram"}
	]`

	res, err := newImporter(t, directory).Import(ctx, strings.NewReader(payload), FormatJSON, tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 1, res.Duplicates)

	all, err := directory.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Second", all[0].Name)
}

func TestImportReportsForeignHandles(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	directory := repo.NewMemoryRepository(catalog.Influencer{TenantID: owner, Handle: "taken", Name: "Owner", Platform: "instagram"})

	payload := `[{"handle": "taken", "name": "Intruder", "platform": "instagram"}]`
	res, err := newImporter(t, directory).Import(ctx, strings.NewReader(payload), FormatJSON, uuid.New())
	require.NoError(t, err)
	require.Zero(t, res.Imported)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, "taken", res.Rejected[0].Handle)
}

func TestImportAbortsOnSinkFailure(t *testing.T) {
	var calls atomic.Int32
	sink := sinkFunc(func(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error) {
		calls.Add(1)
		return catalog.Influencer{}, errors.New("connection reset")
	})

	payload := `[{"handle": "a", "name": "A", "platform": "x"}]`
	_, err := newImporter(t, sink).Import(context.Background(), strings.NewReader(payload), FormatJSON, uuid.New())
	require.ErrorContains(t, err, "connection reset")
	require.Equal(t, int32(1), calls.Load())
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	im := newImporter(t, repo.NewMemoryRepository())

	for _, payload := range []string{`{"people": []}`, `42`, `{not json`, ``} {
		_, err := im.Import(context.Background(), strings.NewReader(payload), FormatJSON, uuid.New())
		require.Error(t, err, payload)
	}

	_, err := im.Import(context.Background(), strings.NewReader(`[]`), FormatJSON, uuid.Nil)
	require.Error(t, err)
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	directory := repo.NewMemoryRepository()
	im := newImporter(t, directory)

	path := filepath.Join(t.TempDir(), "seed.yml")
	require.NoError(t, os.WriteFile(path, []byte("- handle: local\n  name: Local\n  platform: instagram\n"), 0o600))

	res, err := im.ImportFile(ctx, storage.NewSource(nil), path, tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	_, err = im.ImportFile(ctx, storage.NewSource(nil), "gs://bucket/seed.json", tenantID)
	require.ErrorIs(t, err, storage.ErrNoClient)
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, FormatYAML, FormatFromPath("a/b.YAML"))
	require.Equal(t, FormatYAML, FormatFromPath("seed.yml"))
	require.Equal(t, FormatJSON, FormatFromPath("gs://bucket/seed.json"))
	require.Equal(t, FormatJSON, FormatFromPath("seed"))
}
