package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching provider responses
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogRepository reads restaurants and dishes from the hosted data platform
type CatalogRepository interface {
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	ListDishes(ctx context.Context) ([]DishRecord, error)
}

// PlacesClient defines the interface for the primary review provider
type PlacesClient interface {
	GetPlaceReviews(ctx context.Context, placeID string) (*PlaceDetailsResponse, error)
}

// YelpClient defines the interface for the secondary review provider
type YelpClient interface {
	SearchBusiness(ctx context.Context, name, location string) (*YelpBusiness, error)
	GetReviews(ctx context.Context, businessID string) (*YelpReviewsResponse, error)
}

// StageStore persists the intermediate and final pipeline artifacts
type StageStore interface {
	ReadRawReviews() ([]RawReview, error)
	WriteRawReviews(reviews []RawReview) error
	ReadMatches() ([]FinalMatch, error)
	WriteMatches(matches []FinalMatch) error
	WriteStatements(sql string) error
	RawReviewsExist() bool
	MatchesExist() bool
}

// MetricsRecorder receives pipeline observability events
type MetricsRecorder interface {
	ReviewsHarvested(source Source, n int)
	ProviderFailure(source Source)
	MatchOutcomes(stats MatchStats)
	StatementsGenerated(n int)
}

// NoopMetrics discards all metrics
type NoopMetrics struct{}

func (NoopMetrics) ReviewsHarvested(Source, int) {}
func (NoopMetrics) ProviderFailure(Source)       {}
func (NoopMetrics) MatchOutcomes(MatchStats)     {}
func (NoopMetrics) StatementsGenerated(int)      {}
