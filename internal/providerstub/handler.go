package providerstub

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platewise/reviewpipe/internal/domain"
)

// requireHeader rejects requests whose header does not carry the expected credential
func requireHeader(name, want string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(name) != want {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid credentials"})
			return
		}
		c.Next()
	}
}

func (s *Server) placeDetails(c *gin.Context) {
	id := c.Param("id")
	if c.GetHeader("X-Goog-FieldMask") != "reviews" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field mask must be reviews"})
		return
	}
	if s.fixtures.FailPlaces[id] {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	reviews, ok := s.fixtures.Places[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}
	c.JSON(http.StatusOK, domain.PlaceDetailsResponse{Reviews: reviews})
}

func (s *Server) businessSearch(c *gin.Context) {
	term := strings.ToLower(strings.TrimSpace(c.Query("term")))
	if term == "" || c.Query("location") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term and location are required"})
		return
	}

	resp := domain.YelpSearchResponse{Businesses: []domain.YelpBusiness{}}
	if business, ok := s.fixtures.Businesses[term]; ok {
		resp.Businesses = append(resp.Businesses, business)
		resp.Total = 1
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) businessReviews(c *gin.Context) {
	id := c.Param("id")
	if s.fixtures.FailBusinesses[id] {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	reviews := s.fixtures.YelpReviews[id]
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= 0 && limit < len(reviews) {
		reviews = reviews[:limit]
	}
	if reviews == nil {
		reviews = []domain.YelpReview{}
	}
	c.JSON(http.StatusOK, domain.YelpReviewsResponse{Reviews: reviews, Total: len(s.fixtures.YelpReviews[id])})
}
