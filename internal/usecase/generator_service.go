package usecase

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/lexicon"
)

// Generator defaults
const (
	DefaultReviewTable  = "reviews"
	DefaultSystemUserID = "00000000-0000-4000-8000-00000000beef"
	DefaultOrigin       = "third_party_harvest"

	originMethod       = "review_text_match"
	previewLength      = 80
	minRecommendRating = 4
)

// reviewNamespace seeds the deterministic ids of generated review rows
var reviewNamespace = uuid.MustParse("5b0c2d8e-5f3a-4a57-9f43-6f1de0b1c9a2")

// GeneratorConfig holds configuration for the statement generator
type GeneratorConfig struct {
	Lexicon      *lexicon.Lexicon
	Table        string
	SystemUserID string
	Origin       string
	// Clock supplies "now" for matches that carry neither a publish time nor a harvest time
	Clock func() time.Time
}

// GeneratorService turns final matches into idempotent insert statements
type GeneratorService struct {
	lex          *lexicon.Lexicon
	table        string
	systemUserID string
	origin       string
	clock        func() time.Time
	logger       *slog.Logger
}

// GenerateStats summarizes a generation run
type GenerateStats struct {
	Statements int
	BatchID    string
}

// Provenance records how a generated review was produced
type Provenance struct {
	Origin         string `json:"origin"`
	BatchID        string `json:"batch_id"`
	Method         string `json:"method"`
	SourcePlatform string `json:"source_platform"`
	OriginalAuthor string `json:"original_author"`
	OriginalRating int    `json:"original_rating"`
	OriginalDate   string `json:"original_date"`
	MatchType      string `json:"match_type"`
	MatchTerm      string `json:"match_term"`
	Confidence     string `json:"confidence"`
}

// NewGeneratorService creates a generator, filling defaults for empty settings
func NewGeneratorService(config GeneratorConfig) *GeneratorService {
	g := &GeneratorService{
		lex:          config.Lexicon,
		table:        config.Table,
		systemUserID: config.SystemUserID,
		origin:       config.Origin,
		clock:        config.Clock,
		logger:       slog.Default().With("component", "generate"),
	}
	if g.lex == nil {
		g.lex = lexicon.Default()
	}
	if g.table == "" {
		g.table = DefaultReviewTable
	}
	if g.systemUserID == "" {
		g.systemUserID = DefaultSystemUserID
	}
	if g.origin == "" {
		g.origin = DefaultOrigin
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	return g
}

// Generate renders one insert block per match and a trailing verification query.
// Output depends only on matches, except for the clock fallback in EventTimestamp.
func (g *GeneratorService) Generate(matches []domain.FinalMatch) (string, GenerateStats, error) {
	batchID, err := BatchID(matches)
	if err != nil {
		return "", GenerateStats{}, fmt.Errorf("derive batch id: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Dish reviews generated from harvested third-party reviews\n")
	fmt.Fprintf(&b, "-- Batch: %s\n", batchID)
	fmt.Fprintf(&b, "-- Matches: %d\n", len(matches))
	fmt.Fprintf(&b, "-- Statements are idempotent: re-applying this file inserts nothing new.\n\n")

	for i := range matches {
		block, err := g.statement(&matches[i], batchID, i+1, len(matches))
		if err != nil {
			return "", GenerateStats{}, err
		}
		b.WriteString(block)
	}

	fmt.Fprintf(&b, "-- Verify how many rows this batch produced\n")
	fmt.Fprintf(&b, "SELECT COUNT(*) AS harvested_reviews\nFROM %s\nWHERE metadata->>'origin' = %s\n  AND metadata->>'batch_id' = %s;\n",
		g.table, quoteLiteral(g.origin), quoteLiteral(batchID))

	g.logger.Info("statements generated", "count", len(matches), "batch_id", batchID)
	return b.String(), GenerateStats{Statements: len(matches), BatchID: batchID}, nil
}

func (g *GeneratorService) statement(m *domain.FinalMatch, batchID string, n, total int) (string, error) {
	text := CollapseWhitespace(m.ReviewSnippet)

	provenance, err := json.Marshal(Provenance{
		Origin:         g.origin,
		BatchID:        batchID,
		Method:         originMethod,
		SourcePlatform: string(m.Source),
		OriginalAuthor: m.Author,
		OriginalRating: m.Rating,
		OriginalDate:   m.DateDescription,
		MatchType:      string(m.MatchType),
		MatchTerm:      m.MatchTerm,
		Confidence:     string(m.Confidence),
	})
	if err != nil {
		return "", fmt.Errorf("encode provenance: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- [%d/%d] %s @ %s\n", n, total, CollapseWhitespace(m.DishName), CollapseWhitespace(m.RestaurantName))
	fmt.Fprintf(&b, "-- %s review by %s (%d stars), %s match on %q\n",
		m.Source, CollapseWhitespace(m.Author), m.Rating, m.MatchType, m.MatchTerm)
	fmt.Fprintf(&b, "-- \"%s\"\n", preview(text))
	fmt.Fprintf(&b, "INSERT INTO %s (id, dish_id, restaurant_id, user_id, rating, would_order_again, review_text, created_at, metadata)\n", g.table)
	fmt.Fprintf(&b, "VALUES (%s, %s, %s, %s, %.1f, %t, %s, %s, %s::jsonb)\n",
		quoteLiteral(ReviewID(m).String()),
		quoteLiteral(m.DishID),
		quoteLiteral(m.RestaurantID),
		quoteLiteral(g.systemUserID),
		g.lex.RatingToTen(m.Rating),
		WouldOrderAgain(m.Rating),
		quoteLiteral(text),
		quoteLiteral(g.EventTimestamp(m).UTC().Format(time.RFC3339)),
		quoteLiteral(string(provenance)),
	)
	b.WriteString("ON CONFLICT (id) DO NOTHING;\n\n")
	return b.String(), nil
}

// EventTimestamp is the publish time when the provider gave one, otherwise the
// relative description resolved against the harvest time (or the clock when absent).
func (g *GeneratorService) EventTimestamp(m *domain.FinalMatch) time.Time {
	if m.PublishTime != nil && !m.PublishTime.IsZero() {
		return *m.PublishTime
	}
	ref := m.HarvestedAt
	if ref.IsZero() {
		ref = g.clock()
	}
	return ref.Add(-ParseRelativeAge(m.DateDescription))
}

// WouldOrderAgain derives the recommendation flag from the star rating
func WouldOrderAgain(rating int) bool {
	return rating >= minRecommendRating
}

// ReviewID is the deterministic id of the generated row for a match
func ReviewID(m *domain.FinalMatch) uuid.UUID {
	key := strings.Join([]string{m.DishID, string(m.Source), m.Author, m.ReviewSnippet}, "|")
	return uuid.NewSHA1(reviewNamespace, []byte(key))
}

// BatchID derives a ULID from the match set: its time part is the newest harvest
// time and its entropy is a digest of the matches, so equal inputs give equal ids.
func BatchID(matches []domain.FinalMatch) (string, error) {
	payload, err := json.Marshal(matches)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(payload)

	var newest time.Time
	for _, m := range matches {
		if m.HarvestedAt.After(newest) {
			newest = m.HarvestedAt
		}
	}
	var ms uint64
	if !newest.IsZero() {
		ms = ulid.Timestamp(newest)
	}

	id, err := ulid.New(ms, bytes.NewReader(digest[:]))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CollapseWhitespace joins all whitespace runs into single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// quoteLiteral renders s as a single-quoted SQL string literal
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	return string([]rune(s)[:previewLength-len(ellipsis)]) + ellipsis
}
