package yelp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/reviewpipe/internal/domain"
)

func TestMapToRawReviews(t *testing.T) {
	restaurant := domain.Restaurant{ID: "r2", Name: "Jordan Pond"}
	harvestedAt := time.Date(2026, 10, 10, 8, 0, 0, 0, time.UTC)

	resp := &domain.YelpReviewsResponse{
		Reviews: []domain.YelpReview{
			{Text: "Popovers were delicious.", Rating: 4, TimeCreated: "2026-07-04 12:30:00", User: domain.YelpUser{Name: "Alex"}},
			{Text: "Meh.", Rating: 2, TimeCreated: "July 4th", User: domain.YelpUser{Name: " Kim "}},
		},
	}

	got := MapToRawReviews(resp, restaurant, harvestedAt)

	require.Len(t, got, 2)

	created := time.Date(2026, 7, 4, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, domain.RawReview{
		RestaurantID:    "r2",
		RestaurantName:  "Jordan Pond",
		Source:          domain.SourceYelp,
		Author:          "Alex",
		Text:            "Popovers were delicious.",
		Rating:          4,
		DateDescription: "2026-07-04 12:30:00",
		PublishTime:     &created,
		HarvestedAt:     harvestedAt,
	}, got[0])

	assert.Equal(t, "Kim", got[1].Author)
	assert.Nil(t, got[1].PublishTime)
	assert.Equal(t, "July 4th", got[1].DateDescription)
}

func TestMapToRawReviews_Nil(t *testing.T) {
	assert.Nil(t, MapToRawReviews(nil, domain.Restaurant{}, time.Now()))
}
