package usecase

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/reviewpipe/internal/domain"
)

var harvestTime = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func finalMatch(dishID string, rating int, snippet string) domain.FinalMatch {
	return domain.FinalMatch{
		DishID:          dishID,
		DishName:        "Lobster Roll",
		RestaurantID:    "r1",
		RestaurantName:  "Harbor Shack",
		ReviewSnippet:   snippet,
		FullReview:      snippet,
		Author:          "Jo",
		Rating:          rating,
		DateDescription: "2 weeks ago",
		HarvestedAt:     harvestTime,
		Source:          domain.SourceGoogle,
		MatchType:       domain.MatchTypeName,
		MatchTerm:       "lobster roll",
		Confidence:      domain.ConfidenceHigh,
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
}

func TestGenerate(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{Clock: fixedClock})
	matches := []domain.FinalMatch{
		finalMatch("d1", 5, "The lobster roll was overflowing with meat."),
		finalMatch("d1", 4, "Joe's lobster roll   was\nsolid."),
	}

	sql, stats, err := g.Generate(matches)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Statements)
	assert.Equal(t, 2, strings.Count(sql, "INSERT INTO reviews"))
	assert.Equal(t, 2, strings.Count(sql, "ON CONFLICT (id) DO NOTHING;"))
	assert.Contains(t, sql, "-- Batch: "+stats.BatchID)
	assert.Contains(t, sql, "9.0, true,")
	assert.Contains(t, sql, "7.5, true,")
	assert.Contains(t, sql, "'Joe''s lobster roll was solid.'")
	assert.Contains(t, sql, "'"+DefaultSystemUserID+"'")
	assert.Contains(t, sql, "'2026-06-17T12:00:00Z'")
	assert.True(t, strings.HasSuffix(sql, "AND metadata->>'batch_id' = '"+stats.BatchID+"';\n"))

	_, err = ulid.ParseStrict(stats.BatchID)
	assert.NoError(t, err)
}

func TestGenerate_Provenance(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{Clock: fixedClock})
	sql, stats, err := g.Generate([]domain.FinalMatch{finalMatch("d1", 5, "The lobster roll was overflowing with meat.")})
	require.NoError(t, err)

	raw := regexp.MustCompile(`'(\{.*\})'::jsonb`).FindStringSubmatch(sql)
	require.Len(t, raw, 2)

	var p Provenance
	require.NoError(t, json.Unmarshal([]byte(strings.ReplaceAll(raw[1], "''", "'")), &p))
	assert.Equal(t, Provenance{
		Origin:         DefaultOrigin,
		BatchID:        stats.BatchID,
		Method:         "review_text_match",
		SourcePlatform: "google",
		OriginalAuthor: "Jo",
		OriginalRating: 5,
		OriginalDate:   "2 weeks ago",
		MatchType:      "name",
		MatchTerm:      "lobster roll",
		Confidence:     "high",
	}, p)
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{Clock: fixedClock})
	matches := []domain.FinalMatch{finalMatch("d1", 5, "The lobster roll was overflowing with meat.")}

	first, firstStats, err := g.Generate(matches)
	require.NoError(t, err)
	second, secondStats, err := g.Generate(matches)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstStats.BatchID, secondStats.BatchID)

	other, otherStats, err := g.Generate([]domain.FinalMatch{finalMatch("d2", 5, "The chowder was rich and creamy.")})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, firstStats.BatchID, otherStats.BatchID)
}

func TestGenerate_Empty(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{})

	sql, stats, err := g.Generate(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Statements)
	assert.NotContains(t, sql, "INSERT")
	assert.Contains(t, sql, "SELECT COUNT(*)")
}

func TestGenerate_CustomSettings(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{
		Table:        "dish_reviews",
		SystemUserID: "11111111-1111-4111-8111-111111111111",
		Origin:       "import_test",
	})

	sql, _, err := g.Generate([]domain.FinalMatch{finalMatch("d1", 2, "The lobster roll was small and soggy.")})
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO dish_reviews")
	assert.Contains(t, sql, "FROM dish_reviews")
	assert.Contains(t, sql, "'11111111-1111-4111-8111-111111111111'")
	assert.Contains(t, sql, "metadata->>'origin' = 'import_test'")
	assert.Contains(t, sql, "3.5, false,")
}

func TestEventTimestamp(t *testing.T) {
	g := NewGeneratorService(GeneratorConfig{Clock: fixedClock})
	published := time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		match domain.FinalMatch
		want  time.Time
	}{
		{
			name:  "publish time wins",
			match: domain.FinalMatch{PublishTime: &published, DateDescription: "a year ago", HarvestedAt: harvestTime},
			want:  published,
		},
		{
			name:  "relative to harvest time",
			match: domain.FinalMatch{DateDescription: "3 days ago", HarvestedAt: harvestTime},
			want:  harvestTime.Add(-3 * 24 * time.Hour),
		},
		{
			name:  "clock when harvest time missing",
			match: domain.FinalMatch{DateDescription: "a week ago"},
			want:  fixedClock().Add(-7 * 24 * time.Hour),
		},
		{
			name:  "unparseable description",
			match: domain.FinalMatch{DateDescription: "recently", HarvestedAt: harvestTime},
			want:  harvestTime.Add(-30 * 24 * time.Hour),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(g.EventTimestamp(&tc.match)), "got %s", g.EventTimestamp(&tc.match))
		})
	}
}

func TestWouldOrderAgain(t *testing.T) {
	for rating, want := range map[int]bool{1: false, 2: false, 3: false, 4: true, 5: true} {
		assert.Equal(t, want, WouldOrderAgain(rating), "rating %d", rating)
	}
}

func TestReviewID(t *testing.T) {
	a := finalMatch("d1", 5, "The lobster roll was overflowing with meat.")
	b := a
	b.Rating = 3

	assert.Equal(t, ReviewID(&a), ReviewID(&b), "rating is not part of the identity")
	assert.Equal(t, uuid.Version(5), ReviewID(&a).Version())

	c := a
	c.Source = domain.SourceYelp
	assert.NotEqual(t, ReviewID(&a), ReviewID(&c))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \n\tb   c "))
	assert.Equal(t, "", CollapseWhitespace(" \n "))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
	assert.Equal(t, "''", quoteLiteral(""))
}
