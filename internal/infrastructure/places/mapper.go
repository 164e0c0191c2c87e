package places

import (
	"strings"
	"time"

	"github.com/platewise/reviewpipe/internal/domain"
)

// MapToRawReviews converts a place's reviews into RawReviews for the restaurant
func MapToRawReviews(details *domain.PlaceDetailsResponse, restaurant domain.Restaurant, harvestedAt time.Time) []domain.RawReview {
	if details == nil {
		return nil
	}

	reviews := make([]domain.RawReview, 0, len(details.Reviews))
	for _, r := range details.Reviews {
		reviews = append(reviews, domain.RawReview{
			RestaurantID:    restaurant.ID,
			RestaurantName:  restaurant.Name,
			Source:          domain.SourceGoogle,
			Author:          strings.TrimSpace(r.AuthorAttribution.DisplayName),
			Text:            reviewText(r),
			Rating:          r.Rating,
			DateDescription: r.RelativePublishTimeDescription,
			PublishTime:     parsePublishTime(r.PublishTime),
			HarvestedAt:     harvestedAt.UTC(),
		})
	}
	return reviews
}

// reviewText prefers the localized text and falls back to the original language
func reviewText(r domain.PlaceReview) string {
	if r.Text != nil && r.Text.Text != "" {
		return r.Text.Text
	}
	if r.OriginalText != nil {
		return r.OriginalText.Text
	}
	return ""
}

// parsePublishTime parses the RFC 3339 publish time; unparseable values become nil
func parsePublishTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
