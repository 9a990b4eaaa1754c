package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// ErrNoClient is returned when a gs:// location is opened without a GCS client.
var ErrNoClient = errors.New("gcs client not configured")

// ObjectLocation describes where a blob lives.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// ParseLocation splits a gs://bucket/path URI. The boolean is false for non-GCS paths.
func ParseLocation(raw string) (ObjectLocation, bool, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, gcsScheme) {
		return ObjectLocation{}, false, nil
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(raw, gcsScheme), "/")
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, true, fmt.Errorf("bucket is required in %q", raw)
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return ObjectLocation{}, true, fmt.Errorf("object path is required in %q", raw)
	}

	return ObjectLocation{Bucket: bucket, FullPath: key}, true, nil
}

// Source opens payloads from the local filesystem or from GCS.
type Source struct {
	client *storage.Client
}

// NewSource builds a Source. client may be nil when only local paths are read.
func NewSource(client *storage.Client) *Source {
	return &Source{client: client}
}

// Open returns a reader for path, which is either a local file or a gs:// URI.
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	loc, isGCS, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	if !isGCS {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return f, nil
	}

	if s.client == nil {
		return nil, ErrNoClient
	}
	rc, err := s.client.Bucket(loc.Bucket).Object(loc.FullPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", loc.Bucket, loc.FullPath, err)
	}
	return rc, nil
}

// NeedsClient reports whether opening path requires a GCS client.
func NeedsClient(path string) bool {
	return strings.HasPrefix(strings.TrimSpace(path), gcsScheme)
}
