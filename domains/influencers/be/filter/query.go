package filter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/platform/go/catalog"
)

// Clause is one conjunct of a Query.
type Clause interface {
	// Match evaluates the clause against a single record.
	Match(inf catalog.Influencer) bool
	// render appends the clause's SQL condition, registering bind values on b.
	render(b *sqlBuilder) string
}

// Sort describes the requested ordering.
type Sort struct {
	Field      SortField
	Descending bool
}

// Query is a conjunctive predicate over one tenant's directory with an optional sort.
// Clauses[0] is always the tenant equality clause.
type Query struct {
	TenantID uuid.UUID
	Clauses  []Clause
	Sort     *Sort
}

// Build assembles the query for tenantID. The tenant clause is added unconditionally
// and first; every other clause only when its criterion is present.
func Build(tenantID uuid.UUID, c Criteria) (Query, error) {
	q := Query{
		TenantID: tenantID,
		Clauses:  []Clause{tenantClause{tenantID: tenantID}},
	}

	if v, ok := text(c.Q); ok {
		q.Clauses = append(q.Clauses, containsClause{
			needle: strings.ToLower(v),
			fields: []textField{fieldName, fieldHandle, fieldTopics, fieldBio},
		})
	}
	if v, ok := text(c.Platform); ok {
		q.Clauses = append(q.Clauses, equalsClause{field: fieldPlatform, value: v})
	}
	if v, ok := text(c.Country); ok {
		q.Clauses = append(q.Clauses, equalsClause{field: fieldCountry, value: v})
	}
	if v, ok := text(c.Topic); ok {
		q.Clauses = append(q.Clauses, containsClause{needle: strings.ToLower(v), fields: []textField{fieldTopics}})
	}

	if c.MinFollowers != nil {
		q.Clauses = append(q.Clauses, followersBound{bound: *c.MinFollowers, lower: true})
	}
	if c.MaxFollowers != nil {
		q.Clauses = append(q.Clauses, followersBound{bound: *c.MaxFollowers})
	}
	if c.MinEngagementRate != nil {
		q.Clauses = append(q.Clauses, engagementBound{bound: *c.MinEngagementRate, lower: true})
	}
	if c.MaxEngagementRate != nil {
		q.Clauses = append(q.Clauses, engagementBound{bound: *c.MaxEngagementRate})
	}

	if field, ok := ParseSortField(c.SortBy); ok {
		desc, err := ParseOrder(c.Order)
		if err != nil {
			return Query{}, err
		}
		q.Sort = &Sort{Field: field, Descending: desc}
	}

	return q, nil
}

// Match reports whether inf satisfies every clause.
func (q Query) Match(inf catalog.Influencer) bool {
	for _, clause := range q.Clauses {
		if !clause.Match(inf) {
			return false
		}
	}
	return true
}

// Apply filters records with Match and orders them by the query's sort. Records with a
// null sort value go last in either direction; ties and unsorted output keep input order.
func (q Query) Apply(records []catalog.Influencer) []catalog.Influencer {
	out := make([]catalog.Influencer, 0, len(records))
	for _, inf := range records {
		if q.Match(inf) {
			out = append(out, inf)
		}
	}

	if q.Sort == nil {
		return out
	}

	key := sortKey(q.Sort.Field)
	slices.SortStableFunc(out, func(a, b catalog.Influencer) int {
		av, aok := key(a)
		bv, bok := key(b)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		case q.Sort.Descending:
			return cmp.Compare(bv, av)
		default:
			return cmp.Compare(av, bv)
		}
	})

	return out
}

func sortKey(field SortField) func(catalog.Influencer) (float64, bool) {
	if field == SortEngagementRate {
		return func(inf catalog.Influencer) (float64, bool) {
			if inf.EngagementRate == nil {
				return 0, false
			}
			return *inf.EngagementRate, true
		}
	}
	return func(inf catalog.Influencer) (float64, bool) {
		if inf.Followers == nil {
			return 0, false
		}
		return float64(*inf.Followers), true
	}
}

type textField struct {
	column string
	get    func(catalog.Influencer) *string
}

var (
	fieldName     = textField{column: "name", get: func(i catalog.Influencer) *string { return &i.Name }}
	fieldHandle   = textField{column: "handle", get: func(i catalog.Influencer) *string { return &i.Handle }}
	fieldPlatform = textField{column: "platform", get: func(i catalog.Influencer) *string { return &i.Platform }}
	fieldTopics   = textField{column: "topics", get: func(i catalog.Influencer) *string { return i.Topics }}
	fieldBio      = textField{column: "bio", get: func(i catalog.Influencer) *string { return i.Bio }}
	fieldCountry  = textField{column: "country", get: func(i catalog.Influencer) *string { return i.Country }}
)

type tenantClause struct {
	tenantID uuid.UUID
}

func (c tenantClause) Match(inf catalog.Influencer) bool {
	return inf.TenantID == c.tenantID
}

// containsClause matches when any field contains needle, case-insensitively. Null fields never match.
type containsClause struct {
	needle string
	fields []textField
}

func (c containsClause) Match(inf catalog.Influencer) bool {
	for _, f := range c.fields {
		if v := f.get(inf); v != nil && strings.Contains(strings.ToLower(*v), c.needle) {
			return true
		}
	}
	return false
}

type equalsClause struct {
	field textField
	value string
}

func (c equalsClause) Match(inf catalog.Influencer) bool {
	v := c.field.get(inf)
	return v != nil && strings.EqualFold(strings.TrimSpace(*v), c.value)
}

// followersBound passes records with unknown followers.
type followersBound struct {
	bound int64
	lower bool
}

func (c followersBound) Match(inf catalog.Influencer) bool {
	if inf.Followers == nil {
		return true
	}
	if c.lower {
		return *inf.Followers >= c.bound
	}
	return *inf.Followers <= c.bound
}

// engagementBound passes records with unknown engagement rate.
type engagementBound struct {
	bound float64
	lower bool
}

func (c engagementBound) Match(inf catalog.Influencer) bool {
	if inf.EngagementRate == nil {
		return true
	}
	if c.lower {
		return *inf.EngagementRate >= c.bound
	}
	return *inf.EngagementRate <= c.bound
}
