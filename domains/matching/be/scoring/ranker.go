package scoring

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/platform/go/catalog"
)

const (
	DefaultTopN = 5
	MinTopN     = 1
	MaxTopN     = 50

	semanticWeight   = 0.6
	engagementWeight = 0.4
)

// ErrTopNOutOfRange is returned when the requested result count is outside [MinTopN, MaxTopN].
var ErrTopNOutOfRange = errors.New("top_n out of range")

// MatchResult is one ranked candidate. It is computed per request and never stored.
type MatchResult struct {
	InfluencerID   uuid.UUID `json:"influencer_id"`
	Name           string    `json:"name"`
	Handle         string    `json:"handle"`
	Platform       string    `json:"platform"`
	Followers      *int64    `json:"followers"`
	EngagementRate *float64  `json:"engagement_rate"`
	Score          float64   `json:"score"`
	Explanation    string    `json:"explanation"`
}

// ValidateTopN checks the requested result count.
func ValidateTopN(topN int) error {
	if topN < MinTopN || topN > MaxTopN {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrTopNOutOfRange, topN, MinTopN, MaxTopN)
	}
	return nil
}

// Rank scores every candidate against the brand and returns the best topN, highest score first.
// Equal scores keep their candidate order. An empty pool yields an empty, non-nil slice.
func Rank(brand catalog.Brand, candidates []catalog.Influencer, topN int) ([]MatchResult, error) {
	if err := ValidateTopN(topN); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []MatchResult{}, nil
	}

	brandTokens := Tokenize(brand.Corpus())

	semantic := make([]float64, len(candidates))
	var maxFollowers int64 = 1
	for i, inf := range candidates {
		semantic[i] = Jaccard(brandTokens, Tokenize(inf.Corpus()))
		if inf.Followers != nil && *inf.Followers > maxFollowers {
			maxFollowers = *inf.Followers
		}
	}

	results := make([]MatchResult, len(candidates))
	for i, inf := range candidates {
		engagement := NormalizeEngagement(inf.Followers, inf.EngagementRate, maxFollowers)
		overall := semanticWeight*semantic[i] + engagementWeight*engagement.Score

		results[i] = MatchResult{
			InfluencerID:   inf.ID,
			Name:           inf.Name,
			Handle:         inf.Handle,
			Platform:       inf.Platform,
			Followers:      inf.Followers,
			EngagementRate: inf.EngagementRate,
			Score:          round4(overall),
			Explanation:    explain(semantic[i], engagement),
		}
	}

	slices.SortStableFunc(results, func(a, b MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

func explain(semantic float64, e Engagement) string {
	return fmt.Sprintf(
		"Semantic similarity: %.2f, Engagement: %.2f (followers %.2f, engagement rate %.2f)",
		semantic, e.Score, e.FollowersNorm, e.EngagementNorm,
	)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
