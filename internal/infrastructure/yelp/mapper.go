package yelp

import (
	"strings"
	"time"

	"github.com/platewise/reviewpipe/internal/domain"
)

// timeCreatedLayout is the format of time_created; the API omits the zone
const timeCreatedLayout = "2006-01-02 15:04:05"

// MapToRawReviews converts Yelp review excerpts into RawReviews for the restaurant.
// The creation timestamp doubles as the date description.
func MapToRawReviews(resp *domain.YelpReviewsResponse, restaurant domain.Restaurant, harvestedAt time.Time) []domain.RawReview {
	if resp == nil {
		return nil
	}

	reviews := make([]domain.RawReview, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		reviews = append(reviews, domain.RawReview{
			RestaurantID:    restaurant.ID,
			RestaurantName:  restaurant.Name,
			Source:          domain.SourceYelp,
			Author:          strings.TrimSpace(r.User.Name),
			Text:            r.Text,
			Rating:          r.Rating,
			DateDescription: r.TimeCreated,
			PublishTime:     parseTimeCreated(r.TimeCreated),
			HarvestedAt:     harvestedAt.UTC(),
		})
	}
	return reviews
}

func parseTimeCreated(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(timeCreatedLayout, value, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
