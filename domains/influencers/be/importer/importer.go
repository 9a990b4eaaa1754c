// Package importer loads influencer directory files into a tenant's directory.
// Files are JSON or YAML, either a bare list of records or an object with an
// "influencers" list. Every record is checked against an embedded JSON Schema
// before it is upserted by handle.
package importer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/metrics"
	"github.com/taippa-io/taippa/platform/go/persistence"
)

//go:embed influencer.schema.json
var recordSchema []byte

const (
	schemaURL          = "memory://schemas/influencer-import.json"
	defaultConcurrency = 4

	outcomeImported = "imported"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeFailed   = "failed"
)

// Format selects the decoder for an import payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml paths and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Sink receives validated influencers. Implemented by the influencers repositories.
type Sink interface {
	Upsert(ctx context.Context, inf catalog.Influencer) (catalog.Influencer, error)
}

// Opener resolves an import location into a reader. Implemented by storage.Source.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// RecordError describes a record that was not imported.
type RecordError struct {
	Index  int
	Handle string
	Err    error
}

func (e RecordError) Error() string {
	if e.Handle == "" {
		return fmt.Sprintf("record %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Handle, e.Err)
}

// Result summarises one import run.
type Result struct {
	Imported   int
	Duplicates int
	Rejected   []RecordError
}

// Importer validates and upserts directory records.
type Importer struct {
	sink        Sink
	schema      *jsonschema.Schema
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
}

// Option customises an Importer.
type Option func(*Importer)

// WithConcurrency bounds the number of in-flight upserts. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.concurrency = n
		}
	}
}

// WithMetrics records per-record outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(im *Importer) { im.metrics = m }
}

// New compiles the record schema and returns an Importer writing to sink.
func New(sink Sink, logger *zap.Logger, opts ...Option) (*Importer, error) {
	if sink == nil {
		panic("import sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("register schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	im := &Importer{
		sink:        sink,
		schema:      schema,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im, nil
}

// ImportFile opens path through src and imports it into tenantID.
func (im *Importer) ImportFile(ctx context.Context, src Opener, path string, tenantID uuid.UUID) (Result, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	return im.Import(ctx, rc, FormatFromPath(path), tenantID)
}

// Import decodes r and upserts every valid record into tenantID. Invalid records and
// handle conflicts are reported in Result.Rejected; any other sink failure aborts the run.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format, tenantID uuid.UUID) (Result, error) {
	if tenantID == uuid.Nil {
		return Result{}, errors.New("tenant id is required")
	}

	items, err := decodeDocument(r, format)
	if err != nil {
		return Result{}, err
	}

	var res Result
	pending := make([]pendingRecord, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		inf, err := im.toInfluencer(item)
		if err != nil {
			res.Rejected = append(res.Rejected, RecordError{Index: i, Handle: handleOf(item), Err: err})
			im.metrics.ObserveImport(outcomeInvalid)
			continue
		}
		inf.TenantID = tenantID

		// last record wins for a repeated handle
		if prev, ok := seen[inf.Handle]; ok {
			pending[prev] = pendingRecord{index: i, influencer: inf}
			res.Duplicates++
			continue
		}
		seen[inf.Handle] = len(pending)
		pending = append(pending, pendingRecord{index: i, influencer: inf})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for _, p := range pending {
		g.Go(func() error {
			_, err := im.sink.Upsert(gctx, p.influencer)
			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				res.Imported++
				im.metrics.ObserveImport(outcomeImported)
				return nil
			case errors.Is(err, persistence.ErrHandleConflict):
				res.Rejected = append(res.Rejected, RecordError{Index: p.index, Handle: p.influencer.Handle, Err: err})
				im.metrics.ObserveImport(outcomeConflict)
				return nil
			default:
				im.metrics.ObserveImport(outcomeFailed)
				return fmt.Errorf("upsert %s: %w", p.influencer.Handle, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	im.logger.Info("influencer import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("imported", res.Imported),
		zap.Int("rejected", len(res.Rejected)),
		zap.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

type pendingRecord struct {
	index      int
	influencer catalog.Influencer
}

type record struct {
	Handle          string   `json:"handle"`
	Name            string   `json:"name"`
	Platform        string   `json:"platform"`
	Followers       *int64   `json:"followers"`
	EngagementRate  *float64 `json:"engagement_rate"`
	Bio             *string  `json:"bio"`
	Topics          topics   `json:"topics"`
	Country         *string  `json:"country"`
	Language        *string  `json:"language"`
	AudienceCountry *string  `json:"audience_country"`
	AudienceGender  *string  `json:"audience_gender"`
	AudienceAge     *string  `json:"audience_age"`
}

// topics accepts either a comma-joined string or a list of strings.
type topics []string

func (t *topics) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*t = nil
		return nil
	}
	*t = topics{*s}
	return nil
}

func (t topics) joined() *string {
	parts := make([]string, 0, len(t))
	for _, p := range t {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, ", ")
	return &s
}

func (im *Importer) toInfluencer(item any) (catalog.Influencer, error) {
	if err := im.schema.Validate(item); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return catalog.Influencer{}, fmt.Errorf("schema validation: %s", leafMessage(verr))
		}
		return catalog.Influencer{}, fmt.Errorf("schema validation: %w", err)
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return catalog.Influencer{}, fmt.Errorf("encode record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return catalog.Influencer{}, fmt.Errorf("decode record: %w", err)
	}

	handle := catalog.NormalizeHandle(rec.Handle)
	if handle == "" {
		return catalog.Influencer{}, errors.New("handle is required")
	}

	return catalog.Influencer{
		Handle:          handle,
		Name:            strings.TrimSpace(rec.Name),
		Platform:        strings.ToLower(strings.TrimSpace(rec.Platform)),
		Followers:       rec.Followers,
		EngagementRate:  rec.EngagementRate,
		Bio:             optional(rec.Bio),
		Topics:          rec.Topics.joined(),
		Country:         optional(rec.Country),
		Language:        optional(rec.Language),
		AudienceCountry: optional(rec.AudienceCountry),
		AudienceGender:  optional(rec.AudienceGender),
		AudienceAge:     optional(rec.AudienceAge),
	}, nil
}

// decodeDocument returns the record list as generic JSON values.
func decodeDocument(r io.Reader, format Format) ([]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import payload: %w", err)
	}

	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		// normalise YAML scalars into the JSON value model the schema validator expects
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v["influencers"].([]any); ok {
			return list, nil
		}
	}
	return nil, errors.New(`import payload must be a list of influencers or an object with an "influencers" list`)
}

func handleOf(item any) string {
	if m, ok := item.(map[string]any); ok {
		if h, ok := m["handle"].(string); ok {
			return catalog.NormalizeHandle(h)
		}
	}
	return ""
}

func leafMessage(err *jsonschema.ValidationError) string {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	if err.InstanceLocation == "" {
		return err.Message
	}
	return err.InstanceLocation + ": " + err.Message
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
