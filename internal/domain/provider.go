package domain

// PlaceDetailsResponse is the Places API v1 place resource restricted to the reviews field
type PlaceDetailsResponse struct {
	Reviews []PlaceReview `json:"reviews"`
}

// PlaceReview is a single review from the Places API
type PlaceReview struct {
	Name                           string          `json:"name,omitempty"`
	RelativePublishTimeDescription string          `json:"relativePublishTimeDescription"`
	Rating                         int             `json:"rating"`
	Text                           *PlaceLocalized `json:"text,omitempty"`
	OriginalText                   *PlaceLocalized `json:"originalText,omitempty"`
	AuthorAttribution              PlaceAuthor     `json:"authorAttribution"`
	PublishTime                    string          `json:"publishTime,omitempty"`
}

// PlaceLocalized is localized text from the Places API
type PlaceLocalized struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// PlaceAuthor identifies a review author on the Places API
type PlaceAuthor struct {
	DisplayName string `json:"displayName"`
	URI         string `json:"uri,omitempty"`
}

// YelpSearchResponse is the business search response
type YelpSearchResponse struct {
	Businesses []YelpBusiness `json:"businesses"`
	Total      int            `json:"total"`
}

// YelpBusiness is a business returned by the search endpoint
type YelpBusiness struct {
	ID    string `json:"id"`
	Alias string `json:"alias,omitempty"`
	Name  string `json:"name"`
}

// YelpReviewsResponse is the business reviews response
type YelpReviewsResponse struct {
	Reviews []YelpReview `json:"reviews"`
	Total   int          `json:"total"`
}

// YelpReview is a single review excerpt from Yelp
type YelpReview struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Rating      int      `json:"rating"`
	TimeCreated string   `json:"time_created"`
	User        YelpUser `json:"user"`
}

// YelpUser identifies a Yelp reviewer
type YelpUser struct {
	Name string `json:"name"`
}
