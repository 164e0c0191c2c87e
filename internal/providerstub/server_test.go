package providerstub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/infrastructure/places"
	"github.com/platewise/reviewpipe/internal/infrastructure/yelp"
)

func testFixtures() Fixtures {
	return Fixtures{
		Places: map[string][]domain.PlaceReview{
			"place-1": {{Rating: 5, Text: &domain.PlaceLocalized{Text: "Lovely."}}},
		},
		Businesses: map[string]domain.YelpBusiness{
			"harbor shack": {ID: "biz-1", Name: "Harbor Shack"},
		},
		YelpReviews: map[string][]domain.YelpReview{
			"biz-1": {{ID: "a", Rating: 5}, {ID: "b", Rating: 4}, {ID: "c", Rating: 3}, {ID: "d", Rating: 2}},
		},
		FailPlaces: map[string]bool{"place-broken": true},
	}
}

func TestServer_Places(t *testing.T) {
	stub := New(testFixtures())
	defer stub.Close()

	client := places.NewClient(PlacesAPIKey, stub.URL, 100, time.Second)

	resp, err := client.GetPlaceReviews(context.Background(), "place-1")
	require.NoError(t, err)
	assert.Len(t, resp.Reviews, 1)

	_, err = client.GetPlaceReviews(context.Background(), "place-broken")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)

	assert.Equal(t, 2, stub.Calls("/v1/places/"))
}

func TestServer_PlacesRejectsBadKey(t *testing.T) {
	stub := New(testFixtures())
	defer stub.Close()

	client := places.NewClient("wrong", stub.URL, 100, time.Second)

	_, err := client.GetPlaceReviews(context.Background(), "place-1")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestServer_Yelp(t *testing.T) {
	stub := New(testFixtures())
	defer stub.Close()

	client := yelp.NewClient(YelpAPIKey, stub.URL, yelp.Options{RequestsPerSecond: 100, ReviewLimit: 3})
	ctx := context.Background()

	business, err := client.SearchBusiness(ctx, "Harbor Shack", "Bar Harbor")
	require.NoError(t, err)
	assert.Equal(t, "biz-1", business.ID)

	_, err = client.SearchBusiness(ctx, "Unknown Place", "Bar Harbor")
	assert.ErrorIs(t, err, domain.ErrBusinessNotFound)

	reviews, err := client.GetReviews(ctx, "biz-1")
	require.NoError(t, err)
	assert.Len(t, reviews.Reviews, 3)
	assert.Equal(t, 4, reviews.Total)
}
