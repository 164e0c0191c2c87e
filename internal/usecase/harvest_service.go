package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/infrastructure/places"
	"github.com/platewise/reviewpipe/internal/infrastructure/yelp"
	"github.com/platewise/reviewpipe/internal/lexicon"
)

// Harvest defaults
const (
	DefaultRestaurantDelay = time.Second
	DefaultLocality        = "Maine"
	defaultCacheTTL        = 720 * time.Hour
)

// Progress reports per-restaurant harvest progress to the operator
type Progress interface {
	Start(total int)
	Advance(restaurant string)
	Finish()
}

// HarvestConfig holds configuration for the harvest service
type HarvestConfig struct {
	Lexicon         *lexicon.Lexicon
	RestaurantDelay time.Duration
	CacheTTL        time.Duration
	DefaultLocality string
	Clock           func() time.Time
	// Sleep waits between restaurants; tests replace it to avoid real delays
	Sleep func(ctx context.Context, d time.Duration) error
}

// HarvestStats summarizes a harvest run
type HarvestStats struct {
	Restaurants int
	Eligible    int
	Skipped     int
	Reviews     map[domain.Source]int
	Failures    map[domain.Source]int
}

// HarvestService pulls third-party reviews for catalog restaurants
type HarvestService struct {
	catalog  domain.CatalogRepository
	places   domain.PlacesClient
	yelp     domain.YelpClient
	cache    domain.CacheRepository
	metrics  domain.MetricsRecorder
	progress Progress

	lex      *lexicon.Lexicon
	delay    time.Duration
	cacheTTL time.Duration
	locality string
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

// NewHarvestService creates a harvest service. yelpClient may be nil, which
// disables the secondary provider. cache, metrics and progress may be nil.
func NewHarvestService(
	catalog domain.CatalogRepository,
	placesClient domain.PlacesClient,
	yelpClient domain.YelpClient,
	cache domain.CacheRepository,
	metrics domain.MetricsRecorder,
	progress Progress,
	config HarvestConfig,
) *HarvestService {
	s := &HarvestService{
		catalog:  catalog,
		places:   placesClient,
		yelp:     yelpClient,
		cache:    cache,
		metrics:  metrics,
		progress: progress,
		lex:      config.Lexicon,
		delay:    config.RestaurantDelay,
		cacheTTL: config.CacheTTL,
		locality: config.DefaultLocality,
		clock:    config.Clock,
		sleep:    config.Sleep,
		logger:   slog.Default().With("component", "harvest"),
	}
	if s.lex == nil {
		s.lex = lexicon.Default()
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.cacheTTL == 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.locality == "" {
		s.locality = DefaultLocality
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.metrics == nil {
		s.metrics = domain.NoopMetrics{}
	}
	return s
}

// Harvest reads the catalog, filters restaurants to the target towns and collects
// their reviews. Provider failures only reduce the result; catalog failures and
// cancellation are returned.
func (s *HarvestService) Harvest(ctx context.Context) ([]domain.RawReview, HarvestStats, error) {
	stats := HarvestStats{
		Reviews:  make(map[domain.Source]int),
		Failures: make(map[domain.Source]int),
	}

	restaurants, err := s.catalog.ListRestaurants(ctx)
	if err != nil {
		return nil, stats, err
	}

	eligible := FilterRestaurants(restaurants, s.lex)
	stats.Restaurants = len(restaurants)
	stats.Eligible = len(eligible)
	stats.Skipped = len(restaurants) - len(eligible)

	s.logger.Info("harvest starting",
		"restaurants", stats.Restaurants,
		"eligible", stats.Eligible,
		"secondary_enabled", s.yelp != nil)

	if s.progress != nil {
		s.progress.Start(len(eligible))
		defer s.progress.Finish()
	}

	var reviews []domain.RawReview
	for i, restaurant := range eligible {
		if i > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return nil, stats, err
			}
		}

		primary, secondary, err := s.harvestRestaurant(ctx, restaurant, &stats)
		if err != nil {
			return nil, stats, err
		}
		reviews = append(reviews, primary...)
		reviews = append(reviews, secondary...)

		if s.progress != nil {
			s.progress.Advance(restaurant.Name)
		}
	}

	s.logger.Info("harvest complete",
		"reviews", len(reviews),
		"google", stats.Reviews[domain.SourceGoogle],
		"yelp", stats.Reviews[domain.SourceYelp])

	return reviews, stats, nil
}

// harvestRestaurant queries both providers concurrently. Each call is isolated:
// a failure, or a panic inside a provider call, is logged and contributes zero reviews.
func (s *HarvestService) harvestRestaurant(
	ctx context.Context,
	restaurant domain.Restaurant,
	stats *HarvestStats,
) ([]domain.RawReview, []domain.RawReview, error) {
	var (
		primary, secondary             []domain.RawReview
		primaryFailed, secondaryFailed bool
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		defer recoverProvider(domain.SourceGoogle, &primaryFailed, &err)
		primary, primaryFailed = s.primaryReviews(ctx, restaurant)
		return nil
	})
	if s.yelp != nil {
		g.Go(func() (err error) {
			defer recoverProvider(domain.SourceYelp, &secondaryFailed, &err)
			secondary, secondaryFailed = s.secondaryReviews(ctx, restaurant)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("provider call aborted",
			"restaurant", restaurant.Name, "restaurant_id", restaurant.ID, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.account(stats, domain.SourceGoogle, len(primary), primaryFailed)
	if s.yelp != nil {
		s.account(stats, domain.SourceYelp, len(secondary), secondaryFailed)
	}

	return normalizeReviews(primary), normalizeReviews(secondary), nil
}

// recoverProvider turns a panic in a provider goroutine into a failed call and an error
// carrying the stack; the process-level recover never sees goroutine panics.
func recoverProvider(source domain.Source, failed *bool, err *error) {
	if r := recover(); r != nil {
		*failed = true
		*err = fmt.Errorf("%s provider panic: %v\n%s", source, r, debug.Stack())
	}
}

func (s *HarvestService) account(stats *HarvestStats, source domain.Source, n int, failed bool) {
	stats.Reviews[source] += n
	s.metrics.ReviewsHarvested(source, n)
	if failed {
		stats.Failures[source]++
		s.metrics.ProviderFailure(source)
	}
}

func (s *HarvestService) primaryReviews(ctx context.Context, restaurant domain.Restaurant) ([]domain.RawReview, bool) {
	if restaurant.GooglePlaceID == "" {
		s.logger.Debug("restaurant has no place id", "restaurant", restaurant.Name)
		return nil, false
	}

	var resp domain.PlaceDetailsResponse
	key := "places:" + restaurant.GooglePlaceID
	if !s.fromCache(ctx, key, &resp) {
		fetched, err := s.places.GetPlaceReviews(ctx, restaurant.GooglePlaceID)
		if err != nil {
			s.logger.Warn("primary provider call failed",
				"restaurant", restaurant.Name, "restaurant_id", restaurant.ID, "error", err)
			return nil, true
		}
		resp = *fetched
		s.toCache(ctx, key, fetched)
	}

	return places.MapToRawReviews(&resp, restaurant, s.clock()), false
}

func (s *HarvestService) secondaryReviews(ctx context.Context, restaurant domain.Restaurant) ([]domain.RawReview, bool) {
	locality := strings.TrimSpace(restaurant.Location)
	if locality == "" {
		locality = s.locality
	}

	var business domain.YelpBusiness
	searchKey := "yelp:search:" + strings.ToLower(restaurant.Name+"|"+locality)
	if !s.fromCache(ctx, searchKey, &business) {
		found, err := s.yelp.SearchBusiness(ctx, restaurant.Name, locality)
		if errors.Is(err, domain.ErrBusinessNotFound) {
			s.logger.Info("no secondary business found", "restaurant", restaurant.Name, "locality", locality)
			return nil, false
		}
		if err != nil {
			s.logger.Warn("secondary provider search failed",
				"restaurant", restaurant.Name, "restaurant_id", restaurant.ID, "error", err)
			return nil, true
		}
		business = *found
		s.toCache(ctx, searchKey, found)
	}

	var resp domain.YelpReviewsResponse
	reviewsKey := "yelp:reviews:" + business.ID
	if !s.fromCache(ctx, reviewsKey, &resp) {
		fetched, err := s.yelp.GetReviews(ctx, business.ID)
		if err != nil {
			s.logger.Warn("secondary provider reviews failed",
				"restaurant", restaurant.Name, "business_id", business.ID, "error", err)
			return nil, true
		}
		resp = *fetched
		s.toCache(ctx, reviewsKey, fetched)
	}

	return yelp.MapToRawReviews(&resp, restaurant, s.clock()), false
}

// fromCache decodes a cached provider response into dst; any cache problem is a miss
func (s *HarvestService) fromCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (s *HarvestService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		// Log but don't fail if caching fails
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// FilterRestaurants keeps restaurants in an allow-listed town or with no known location
func FilterRestaurants(restaurants []domain.Restaurant, lex *lexicon.Lexicon) []domain.Restaurant {
	var out []domain.Restaurant
	for _, r := range restaurants {
		if lex.MatchesTown(r.Location) {
			out = append(out, r)
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
