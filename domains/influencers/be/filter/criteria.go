// Package filter turns directory search criteria into a conjunctive, tenant-scoped query.
// A Query evaluates in memory (Match/Apply) and renders to SQL for the Postgres store;
// both renderings share one clause list so they cannot drift apart.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// SortField names a sortable influencer column.
type SortField string

const (
	SortFollowers      SortField = "followers"
	SortEngagementRate SortField = "engagement_rate"
)

// ErrInvalidOrder is returned for an order value other than asc/desc.
var ErrInvalidOrder = errors.New("order must be asc or desc")

// Criteria is the caller-supplied set of optional constraints for one search.
// Nil or blank fields are omitted from the query.
type Criteria struct {
	Q                 *string  `json:"q"`
	Platform          *string  `json:"platform"`
	Country           *string  `json:"country"`
	Topic             *string  `json:"topic"`
	MinFollowers      *int64   `json:"min_followers" validate:"omitempty,gte=0"`
	MaxFollowers      *int64   `json:"max_followers" validate:"omitempty,gte=0"`
	MinEngagementRate *float64 `json:"min_engagement_rate" validate:"omitempty,gte=0,lte=100"`
	MaxEngagementRate *float64 `json:"max_engagement_rate" validate:"omitempty,gte=0,lte=100"`
	SortBy            string   `json:"sort_by"`
	Order             string   `json:"order"`
}

// ParseSortField returns the sort column, or false when the value is not sortable.
// Unknown fields are ignored by Build rather than rejected.
func ParseSortField(raw string) (SortField, bool) {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortFollowers:
		return SortFollowers, true
	case SortEngagementRate:
		return SortEngagementRate, true
	default:
		return "", false
	}
}

// ParseOrder reports whether the order is descending. Matching is case-insensitive and
// an empty value means descending.
func ParseOrder(raw string) (bool, error) {
	order := strings.TrimSpace(raw)
	switch {
	case order == "", strings.EqualFold(order, "desc"):
		return true, nil
	case strings.EqualFold(order, "asc"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidOrder, raw)
	}
}

func text(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*v)
	return trimmed, trimmed != ""
}
