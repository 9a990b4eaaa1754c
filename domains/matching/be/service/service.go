package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taippa-io/taippa/domains/matching/be/repo"
	"github.com/taippa-io/taippa/domains/matching/be/scoring"
	"github.com/taippa-io/taippa/platform/go/authz"
	"github.com/taippa-io/taippa/platform/go/catalog"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/metrics"
	"github.com/taippa-io/taippa/platform/go/persistence"
	"github.com/taippa-io/taippa/platform/go/validation"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the match request is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors. ErrAccessDenied is distinct from ErrNotFound: a brand of
// another tenant exists but may not be used.
var (
	ErrNotFound        = errors.New("brand not found")
	ErrAccessDenied    = authz.ErrAccessDenied
	ErrUnauthenticated = authz.ErrNoActor
)

// Service ranks the caller's tenant directory against one of its brands.
type Service interface {
	Match(ctx context.Context, brandID uuid.UUID, topN int) ([]scoring.MatchResult, error)
	Brand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error)
}

type matchInput struct {
	TopN int `json:"top_n" validate:"gte=1,lte=50"`
}

type service struct {
	repo     repo.Repository
	policy   authz.Evaluator
	validate *validation.Validator
	metrics  *metrics.Metrics
}

// New constructs the matching Service. m may be nil.
func New(r repo.Repository, policy authz.Evaluator, m *metrics.Metrics) Service {
	if r == nil {
		panic("matching repository is required")
	}
	if policy == nil {
		panic("access policy is required")
	}
	return &service{repo: r, policy: policy, validate: validation.New(), metrics: m}
}

// Match validates topN, loads the brand, checks match:run for the caller, then ranks
// every influencer of the brand's tenant. An empty directory yields an empty slice.
func (s *service) Match(ctx context.Context, brandID uuid.UUID, topN int) ([]scoring.MatchResult, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := s.validate.Struct(matchInput{TopN: topN})
	if err != nil {
		return nil, fmt.Errorf("validate match input: %w", err)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: FieldErrors(fields)}
	}

	brand, err := s.loadBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Evaluate(actor.Request(authz.ActionMatchRun, brand.TenantID, brand.OwnerID)).Err(); err != nil {
		return nil, err
	}

	influencers, err := s.repo.ListByTenant(ctx, brand.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}

	candidates := influencers[:0:0]
	for _, inf := range influencers {
		if inf.TenantID != brand.TenantID {
			platformlogging.OrNop(ctx).Warn("dropping cross-tenant match candidate",
				zap.String("brand_id", brand.ID.String()),
				zap.String("influencer_id", inf.ID.String()),
			)
			continue
		}
		candidates = append(candidates, inf)
	}
	s.metrics.ObserveMatchPool(len(candidates))

	results, err := scoring.Rank(brand, candidates, topN)
	if err != nil {
		return nil, &ValidationError{Fields: FieldErrors{"top_n": {err.Error()}}}
	}
	return results, nil
}

// Brand returns a brand the caller may read: admins and team members any brand of
// their tenant, clients only the brands they own.
func (s *service) Brand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return catalog.Brand{}, err
	}

	brand, err := s.loadBrand(ctx, brandID)
	if err != nil {
		return catalog.Brand{}, err
	}

	if err := s.policy.Evaluate(actor.Request(authz.ActionBrandRead, brand.TenantID, brand.OwnerID)).Err(); err != nil {
		return catalog.Brand{}, err
	}
	return brand, nil
}

func (s *service) loadBrand(ctx context.Context, brandID uuid.UUID) (catalog.Brand, error) {
	if brandID == uuid.Nil {
		return catalog.Brand{}, ErrNotFound
	}

	brand, err := s.repo.GetBrand(ctx, brandID)
	if err != nil {
		if errors.Is(err, persistence.ErrBrandNotFound) {
			return catalog.Brand{}, ErrNotFound
		}
		return catalog.Brand{}, fmt.Errorf("get brand: %w", err)
	}
	return brand, nil
}
