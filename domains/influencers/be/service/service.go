package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/domains/influencers/be/repo"
	"github.com/taippa-io/taippa/platform/go/authz"
	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/metrics"
	"github.com/taippa-io/taippa/platform/go/persistence"
	"github.com/taippa-io/taippa/platform/go/validation"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

// ValidationError is returned when the search criteria are invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound        = errors.New("influencer not found")
	ErrAccessDenied    = authz.ErrAccessDenied
	ErrUnauthenticated = authz.ErrNoActor
)

// Service defines the read operations of the influencer directory. Every call is
// scoped to the tenant of the actor on the context.
type Service interface {
	Search(ctx context.Context, criteria filter.Criteria) ([]catalog.Influencer, error)
	List(ctx context.Context) ([]catalog.Influencer, error)
	Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error)
}

type service struct {
	repo     repo.Repository
	policy   authz.Evaluator
	validate *validation.Validator
	metrics  *metrics.Metrics
}

// New constructs the influencers Service. m may be nil.
func New(r repo.Repository, policy authz.Evaluator, m *metrics.Metrics) Service {
	if r == nil {
		panic("influencers repository is required")
	}
	if policy == nil {
		panic("access policy is required")
	}
	return &service{repo: r, policy: policy, validate: validation.New(), metrics: m}
}

func (s *service) Search(ctx context.Context, criteria filter.Criteria) ([]catalog.Influencer, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validateCriteria(criteria); err != nil {
		return nil, err
	}

	if err := s.policy.Evaluate(actor.Request(authz.ActionInfluencerSearch, actor.TenantID, "")).Err(); err != nil {
		return nil, err
	}

	q, err := filter.Build(actor.TenantID, criteria)
	if err != nil {
		return nil, &ValidationError{Fields: FieldErrors{"order": {err.Error()}}}
	}

	records, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search influencers: %w", err)
	}

	s.metrics.ObserveSearchResults(len(records))
	return records, nil
}

func (s *service) List(ctx context.Context) ([]catalog.Influencer, error) {
	return s.Search(ctx, filter.Criteria{})
}

// Get returns ErrNotFound both for unknown ids and for influencers of other tenants.
func (s *service) Get(ctx context.Context, id uuid.UUID) (catalog.Influencer, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return catalog.Influencer{}, err
	}
	if id == uuid.Nil {
		return catalog.Influencer{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return catalog.Influencer{}, mapPersistenceError(err)
	}
	if record.TenantID != actor.TenantID {
		return catalog.Influencer{}, ErrNotFound
	}

	if err := s.policy.Evaluate(actor.Request(authz.ActionInfluencerRead, record.TenantID, "")).Err(); err != nil {
		return catalog.Influencer{}, err
	}
	return record, nil
}

func (s *service) validateCriteria(c filter.Criteria) error {
	structFields, err := s.validate.Struct(c)
	if err != nil {
		return fmt.Errorf("validate criteria: %w", err)
	}

	fieldErrors := FieldErrors{}
	for field, messages := range structFields {
		for _, m := range messages {
			fieldErrors.add(field, m)
		}
	}

	if c.MinFollowers != nil && c.MaxFollowers != nil && *c.MinFollowers > *c.MaxFollowers {
		fieldErrors.add("min_followers", "min_followers must not exceed max_followers")
	}
	if c.MinEngagementRate != nil && c.MaxEngagementRate != nil && *c.MinEngagementRate > *c.MaxEngagementRate {
		fieldErrors.add("min_engagement_rate", "min_engagement_rate must not exceed max_engagement_rate")
	}
	if _, ok := filter.ParseSortField(c.SortBy); ok {
		if _, err := filter.ParseOrder(c.Order); err != nil {
			fieldErrors.add("order", "order must be asc or desc")
		}
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrInfluencerNotFound) {
		return ErrNotFound
	}
	return err
}
