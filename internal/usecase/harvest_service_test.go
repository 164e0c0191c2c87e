package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/infrastructure/cache"
	"github.com/platewise/reviewpipe/internal/infrastructure/places"
	"github.com/platewise/reviewpipe/internal/infrastructure/yelp"
	"github.com/platewise/reviewpipe/internal/lexicon"
	"github.com/platewise/reviewpipe/internal/providerstub"
)

var harvestClock = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }

func harvestFixtures() providerstub.Fixtures {
	return providerstub.Fixtures{
		Places: map[string][]domain.PlaceReview{
			"place-1": {
				{
					Rating:                         5,
					Text:                           &domain.PlaceLocalized{Text: "Lobster roll &amp; fries were great"},
					AuthorAttribution:              domain.PlaceAuthor{DisplayName: "Jo"},
					RelativePublishTimeDescription: "2 weeks ago",
					PublishTime:                    "2026-06-17T12:00:00Z",
				},
				{
					Rating:                         4,
					Text:                           &domain.PlaceLocalized{Text: "Solid chowder."},
					AuthorAttribution:              domain.PlaceAuthor{DisplayName: "Sam"},
					RelativePublishTimeDescription: "a month ago",
				},
			},
			"place-2": {
				{Rating: 5, Text: &domain.PlaceLocalized{Text: "Best steak in Portland."}},
			},
		},
		Businesses: map[string]domain.YelpBusiness{
			"harbor shack":          {ID: "biz-1", Name: "Harbor Shack"},
			"trenton lobster pound": {ID: "biz-4", Name: "Trenton Lobster Pound"},
		},
		YelpReviews: map[string][]domain.YelpReview{
			"biz-1": {
				{ID: "y1", Text: "The crab cakes were perfect.", Rating: 5, TimeCreated: "2026-05-01 10:00:00", User: domain.YelpUser{Name: "Lee"}},
			},
		},
		FailPlaces:     map[string]bool{"place-4": true},
		FailBusinesses: map[string]bool{"biz-4": true},
	}
}

func harvestCatalog() *fakeCatalog {
	return &fakeCatalog{restaurants: []domain.Restaurant{
		{ID: "r1", Name: "Harbor Shack", GooglePlaceID: "place-1", Location: "Bar Harbor"},
		{ID: "r2", Name: "Portland Grill", GooglePlaceID: "place-2", Location: "Portland"},
		{ID: "r3", Name: "Island Diner"},
		{ID: "r4", Name: "Trenton Lobster Pound", GooglePlaceID: "place-4", Location: "Trenton, ME"},
	}}
}

type harvestFixture struct {
	stub     *providerstub.Server
	places   *places.Client
	yelp     *yelp.Client
	metrics  *fakeMetrics
	progress *recordingProgress
	sleeper  *countingSleep
}

func newHarvestFixture(t *testing.T) *harvestFixture {
	t.Helper()
	stub := providerstub.New(harvestFixtures())
	t.Cleanup(stub.Close)

	return &harvestFixture{
		stub:     stub,
		places:   places.NewClient(providerstub.PlacesAPIKey, stub.URL, 1000, 5*time.Second),
		yelp:     yelp.NewClient(providerstub.YelpAPIKey, stub.URL, yelp.Options{RequestsPerSecond: 1000, Timeout: 5 * time.Second}),
		metrics:  newFakeMetrics(),
		progress: &recordingProgress{},
		sleeper:  &countingSleep{},
	}
}

func (f *harvestFixture) service(catalog domain.CatalogRepository, responses domain.CacheRepository, withYelp bool) *HarvestService {
	var secondary domain.YelpClient
	if withYelp {
		secondary = f.yelp
	}
	return NewHarvestService(catalog, f.places, secondary, responses, f.metrics, f.progress, HarvestConfig{
		RestaurantDelay: time.Second,
		Clock:           harvestClock,
		Sleep:           f.sleeper.sleep,
	})
}

func TestHarvest(t *testing.T) {
	f := newHarvestFixture(t)
	svc := f.service(harvestCatalog(), nil, true)

	reviews, stats, err := svc.Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Restaurants)
	assert.Equal(t, 3, stats.Eligible)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Reviews[domain.SourceGoogle])
	assert.Equal(t, 1, stats.Reviews[domain.SourceYelp])
	assert.Equal(t, 1, stats.Failures[domain.SourceGoogle])
	assert.Equal(t, 1, stats.Failures[domain.SourceYelp])

	require.Len(t, reviews, 3)
	assert.Equal(t, "Lobster roll & fries were great", reviews[0].Text)
	assert.Equal(t, "r1", reviews[0].RestaurantID)
	assert.Equal(t, domain.SourceGoogle, reviews[0].Source)
	assert.True(t, harvestClock().Equal(reviews[0].HarvestedAt))
	require.NotNil(t, reviews[0].PublishTime)
	assert.Nil(t, reviews[1].PublishTime)
	assert.Equal(t, domain.SourceYelp, reviews[2].Source)
	assert.Equal(t, "Lee", reviews[2].Author)

	assert.Zero(t, f.stub.Calls("/v1/places/place-2"), "out-of-area restaurant must not be queried")

	assert.Equal(t, 3, f.progress.total)
	assert.Equal(t, []string{"Harbor Shack", "Island Diner", "Trenton Lobster Pound"}, f.progress.advanced)
	assert.True(t, f.progress.finished)

	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.sleeper.calls)

	assert.Equal(t, 2, f.metrics.harvested[domain.SourceGoogle])
	assert.Equal(t, 1, f.metrics.failures[domain.SourceYelp])
}

func TestHarvest_WithoutSecondaryProvider(t *testing.T) {
	f := newHarvestFixture(t)
	svc := f.service(harvestCatalog(), nil, false)

	reviews, stats, err := svc.Harvest(context.Background())
	require.NoError(t, err)

	assert.Len(t, reviews, 2)
	assert.Zero(t, stats.Reviews[domain.SourceYelp])
	assert.Zero(t, stats.Failures[domain.SourceYelp])
	assert.Zero(t, f.stub.Calls("/v3"))
}

func TestHarvest_BusinessNotFoundIsNotAFailure(t *testing.T) {
	f := newHarvestFixture(t)
	catalog := &fakeCatalog{restaurants: []domain.Restaurant{{ID: "r3", Name: "Island Diner"}}}

	reviews, stats, err := f.service(catalog, nil, true).Harvest(context.Background())
	require.NoError(t, err)

	assert.Empty(t, reviews)
	assert.Zero(t, stats.Failures[domain.SourceGoogle])
	assert.Zero(t, stats.Failures[domain.SourceYelp])
	assert.Equal(t, 1, f.stub.Calls("/v3/businesses/search"))
	assert.Zero(t, f.stub.Calls("/v1"), "restaurant without place id skips the primary provider")
}

func TestHarvest_CacheAvoidsRepeatCalls(t *testing.T) {
	f := newHarvestFixture(t)
	responses := cache.NewMemoryCache()
	t.Cleanup(func() { _ = responses.Close() })

	catalog := &fakeCatalog{restaurants: harvestCatalog().restaurants[:1]}
	svc := f.service(catalog, responses, true)

	first, _, err := svc.Harvest(context.Background())
	require.NoError(t, err)
	second, _, err := svc.Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.stub.Calls("/v1/places/place-1"))
	assert.Equal(t, 1, f.stub.Calls("/v3/businesses/search"))
	assert.Equal(t, 1, f.stub.Calls("/v3/businesses/biz-1/reviews"))
}

func TestHarvest_CatalogError(t *testing.T) {
	f := newHarvestFixture(t)
	boom := errors.New("connection refused")

	_, _, err := f.service(&fakeCatalog{err: boom}, nil, true).Harvest(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestHarvest_Cancelled(t *testing.T) {
	f := newHarvestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reviews, _, err := f.service(harvestCatalog(), nil, true).Harvest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reviews)
}

func TestFilterRestaurants(t *testing.T) {
	got := FilterRestaurants(harvestCatalog().restaurants, lexicon.Default())
	require.Len(t, got, 3)
	assert.Equal(t, "r4", got[2].ID)
}

type panickingPlaces struct{}

func (panickingPlaces) GetPlaceReviews(context.Context, string) (*domain.PlaceDetailsResponse, error) {
	panic("malformed response")
}

func TestHarvest_ProviderPanicIsContained(t *testing.T) {
	f := newHarvestFixture(t)
	catalog := &fakeCatalog{restaurants: harvestCatalog().restaurants[:1]}
	svc := NewHarvestService(catalog, panickingPlaces{}, f.yelp, nil, f.metrics, nil, HarvestConfig{
		Clock: harvestClock,
		Sleep: f.sleeper.sleep,
	})

	reviews, stats, err := svc.Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failures[domain.SourceGoogle])
	assert.Zero(t, stats.Reviews[domain.SourceGoogle])
	assert.Equal(t, 1, stats.Reviews[domain.SourceYelp], "secondary call is unaffected")
	require.Len(t, reviews, 1)
	assert.Equal(t, domain.SourceYelp, reviews[0].Source)
}
