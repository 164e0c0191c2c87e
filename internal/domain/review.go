package domain

import "time"

// Source identifies the third-party platform a review was harvested from
type Source string

const (
	SourceGoogle Source = "google"
	SourceYelp   Source = "yelp"
)

// RawReview is a third-party review normalized into a uniform shape.
// It is written once by the harvest stage and read-only afterwards.
type RawReview struct {
	RestaurantID    string     `json:"restaurant_id"`
	RestaurantName  string     `json:"restaurant_name"`
	Source          Source     `json:"source"`
	Author          string     `json:"author"`
	Text            string     `json:"text"`
	Rating          int        `json:"rating"`
	DateDescription string     `json:"date_description"`
	PublishTime     *time.Time `json:"publish_time"`
	HarvestedAt     time.Time  `json:"harvested_at"`
}

// Restaurant is a catalog restaurant considered for harvesting
type Restaurant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	GooglePlaceID string `json:"google_place_id,omitempty"`
	Location      string `json:"location,omitempty"` // rough town/locality descriptor, may be empty
}

// DishRecord is a catalog dish
type DishRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RestaurantID string `json:"restaurant_id"`
	Category     string `json:"category,omitempty"`
}

// DishIndex groups dishes by restaurant id
type DishIndex map[string][]DishRecord

// NewDishIndex groups dishes by restaurant, preserving catalog order within a restaurant
func NewDishIndex(dishes []DishRecord) DishIndex {
	index := make(DishIndex)
	for _, dish := range dishes {
		index[dish.RestaurantID] = append(index[dish.RestaurantID], dish)
	}
	return index
}
