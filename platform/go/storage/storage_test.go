package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()

	loc, ok, err := ParseLocation("gs://imports/dev/influencers.yaml")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ObjectLocation{Bucket: "imports", FullPath: "dev/influencers.yaml"}, loc)

	_, ok, err = ParseLocation("./data/influencers.json")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = ParseLocation("gs://imports/")
	require.True(t, ok)
	require.Error(t, err)

	_, _, err = ParseLocation("gs:///file.json")
	require.Error(t, err)
}

func TestSourceOpenLocal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	rc, err := NewSource(nil).Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "[]", string(body))
}

func TestSourceOpenGCSWithoutClient(t *testing.T) {
	t.Parallel()

	_, err := NewSource(nil).Open(context.Background(), "gs://bucket/object.json")
	require.True(t, errors.Is(err, ErrNoClient))
	require.True(t, NeedsClient(" gs://bucket/object.json"))
	require.False(t, NeedsClient("/tmp/object.json"))
}
