package scoring

// Engagement is the normalized engagement breakdown for one candidate.
type Engagement struct {
	FollowersNorm  float64
	EngagementNorm float64
	Score          float64
}

// NormalizeEngagement blends the follower share of the pool maximum with the engagement rate.
// Absent values contribute zero; maxFollowers below 1 is treated as 1.
func NormalizeEngagement(followers *int64, engagementRate *float64, maxFollowers int64) Engagement {
	if maxFollowers < 1 {
		maxFollowers = 1
	}

	var e Engagement
	if followers != nil {
		e.FollowersNorm = float64(*followers) / float64(maxFollowers)
	}
	if engagementRate != nil {
		e.EngagementNorm = *engagementRate / 100
	}
	e.Score = 0.5*e.FollowersNorm + 0.5*e.EngagementNorm
	return e
}
