package domain

import "time"

// MatchType records which matching pass produced a candidate
type MatchType string

const (
	MatchTypeName    MatchType = "name"
	MatchTypeKeyword MatchType = "keyword"
)

// Confidence is the qualitative confidence of a match
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// MatchCandidate links a review excerpt to a dish.
// ReviewSnippet is an excerpt of FullReview containing MatchTerm case-insensitively.
type MatchCandidate struct {
	DishID          string     `json:"dish_id"`
	DishName        string     `json:"dish_name"`
	RestaurantID    string     `json:"restaurant_id"`
	RestaurantName  string     `json:"restaurant_name"`
	ReviewSnippet   string     `json:"review_snippet"`
	FullReview      string     `json:"full_review"`
	Author          string     `json:"author"`
	Rating          int        `json:"rating"`
	DateDescription string     `json:"date_description"`
	PublishTime     *time.Time `json:"publish_time"`
	HarvestedAt     time.Time  `json:"harvested_at"`
	Source          Source     `json:"source"`
	MatchType       MatchType  `json:"match_type"`
	MatchTerm       string     `json:"match_term"`
	Confidence      Confidence `json:"confidence"`
}

// FinalMatch is a candidate that survived per-dish deduplication and ranking
type FinalMatch = MatchCandidate

// Rejection reasons recorded by the matcher
const (
	RejectShortText   = "short_text"
	RejectNoDishes    = "no_dishes"
	RejectLowRating   = "low_rating"
	RejectNoSentiment = "no_sentiment"
	RejectNoMatch     = "no_match"
)

// MatchStats are observability counters for a matching run
type MatchStats struct {
	Reviews  int            `json:"reviews"`
	Name     int            `json:"name"`
	Keyword  int            `json:"keyword"`
	Rejected int            `json:"rejected"`
	Reasons  map[string]int `json:"reasons"`
	Final    int            `json:"final"`
}

// Reject increments the rejection counter for a reason
func (s *MatchStats) Reject(reason string) {
	s.Rejected++
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	s.Reasons[reason]++
}
