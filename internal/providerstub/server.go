// Package providerstub serves fake Places and Yelp APIs backed by in-memory
// fixtures, for exercising the harvest stage end to end without network access.
package providerstub

import (
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Credentials the stub accepts
const (
	PlacesAPIKey = "stub-places-key"
	YelpAPIKey   = "stub-yelp-key"
)

// Fixtures are the canned provider responses
type Fixtures struct {
	// Places maps place id to its reviews
	Places map[string][]domain.PlaceReview
	// Businesses maps a lowercased restaurant name to its business
	Businesses map[string]domain.YelpBusiness
	// YelpReviews maps business id to its reviews
	YelpReviews map[string][]domain.YelpReview
	// FailPlaces lists place ids that answer 500
	FailPlaces map[string]bool
	// FailBusinesses lists business ids whose reviews answer 500
	FailBusinesses map[string]bool
}

// Server is a running fake provider
type Server struct {
	*httptest.Server

	fixtures Fixtures
	mu       sync.Mutex
	calls    map[string]int
}

// New starts a stub serving fixtures. Close it when done.
func New(fixtures Fixtures) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		fixtures: fixtures,
		calls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.countCalls())

	places := router.Group("/v1", requireHeader("X-Goog-Api-Key", PlacesAPIKey))
	places.GET("/places/:id", s.placeDetails)

	yelp := router.Group("/v3", requireHeader("Authorization", "Bearer "+YelpAPIKey))
	{
		yelp.GET("/businesses/search", s.businessSearch)
		yelp.GET("/businesses/:id/reviews", s.businessReviews)
	}

	return router
}

// Calls returns how many requests hit paths starting with prefix
func (s *Server) Calls(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for path, n := range s.calls {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

func (s *Server) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.calls[c.Request.URL.Path]++
		s.mu.Unlock()
		c.Next()
	}
}
