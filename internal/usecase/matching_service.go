package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/lexicon"
)

// Quality gates
const (
	minReviewLength      = 20 // Reviews shorter than this are never matched
	minKeywordPassRating = 4  // Keyword matches require at least this star rating
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Lexicon            *lexicon.Lexicon
	MaxSnippetLength   int
	EnableDebugLogging bool
}

// MatchingService finds which catalog dishes a review credibly discusses.
// A name pass looks for the dish's own name; only when it finds nothing does a
// keyword pass look for generic food terms backed by positive sentiment.
type MatchingService struct {
	lex                *lexicon.Lexicon
	maxSnippetLength   int
	enableDebugLogging bool
	logger             *slog.Logger

	patterns  termPatterns
	termCache map[string][]string
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	lex := config.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}

	maxLen := config.MaxSnippetLength
	if maxLen <= 0 {
		maxLen = MaxSnippetLength
	}

	return &MatchingService{
		lex:                lex,
		maxSnippetLength:   maxLen,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             slog.Default().With("component", "match"),
		patterns:           make(termPatterns),
		termCache:          make(map[string][]string),
	}
}

// MatchReviews runs both passes over every review and returns the ranked,
// deduplicated matches together with the run counters.
func (s *MatchingService) MatchReviews(
	ctx context.Context,
	reviews []domain.RawReview,
	dishes domain.DishIndex,
) ([]domain.FinalMatch, domain.MatchStats, error) {
	stats := domain.MatchStats{Reasons: make(map[string]int)}
	var candidates []domain.MatchCandidate

	for i := range reviews {
		select {
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		default:
		}

		stats.Reviews++
		candidates = append(candidates, s.MatchReview(&reviews[i], dishes[reviews[i].RestaurantID], &stats)...)
	}

	final := RankMatches(candidates)
	stats.Final = len(final)

	s.logger.Info("matching complete",
		"reviews", stats.Reviews,
		"name", stats.Name,
		"keyword", stats.Keyword,
		"rejected", stats.Rejected,
		"final", stats.Final)

	return final, stats, nil
}

// MatchReview returns the candidates for a single review against its restaurant's dishes
func (s *MatchingService) MatchReview(
	review *domain.RawReview,
	dishes []domain.DishRecord,
	stats *domain.MatchStats,
) []domain.MatchCandidate {
	text := strings.TrimSpace(review.Text)
	if utf8.RuneCountInString(text) < minReviewLength {
		s.reject(stats, review, domain.RejectShortText)
		return nil
	}
	if len(dishes) == 0 {
		s.reject(stats, review, domain.RejectNoDishes)
		return nil
	}

	if matches := s.nameMatches(review, dishes); len(matches) > 0 {
		stats.Name += len(matches)
		return matches
	}

	if review.Rating < minKeywordPassRating {
		s.reject(stats, review, domain.RejectLowRating)
		return nil
	}

	match, sentimentRejections := s.keywordMatch(review, dishes)
	for i := 0; i < sentimentRejections; i++ {
		s.reject(stats, review, domain.RejectNoSentiment)
	}
	if match == nil {
		if sentimentRejections == 0 {
			s.reject(stats, review, domain.RejectNoMatch)
		}
		return nil
	}

	stats.Keyword++
	return []domain.MatchCandidate{*match}
}

// nameMatches looks for each dish's search terms as whole words; one match per dish at most
func (s *MatchingService) nameMatches(review *domain.RawReview, dishes []domain.DishRecord) []domain.MatchCandidate {
	var matches []domain.MatchCandidate

	for _, dish := range dishes {
		for _, term := range s.searchTerms(dish.Name) {
			pattern := s.patterns.get(term)
			if !pattern.MatchString(review.Text) {
				continue
			}

			snippet, ok := extractSnippet(review.Text, pattern, s.maxSnippetLength)
			if !ok || utf8.RuneCountInString(snippet) < MinSnippetLength {
				continue
			}

			if s.enableDebugLogging {
				s.logger.Debug("name match", "dish", dish.Name, "term", term, "restaurant", review.RestaurantName)
			}
			matches = append(matches, newCandidate(review, dish, snippet, term, domain.MatchTypeName, domain.ConfidenceHigh))
			break
		}
	}

	return matches
}

// keywordMatch returns the first keyword-family match for the review and how many
// dish/family combinations failed the sentiment gate before it.
func (s *MatchingService) keywordMatch(review *domain.RawReview, dishes []domain.DishRecord) (*domain.MatchCandidate, int) {
	rejections := 0
	families := s.lex.KeywordFamilies()

	for _, dish := range dishes {
		dishName := normalizeName(dish.Name)

		for _, family := range families {
			if !s.eligible(dishName, family) {
				continue
			}

			variant, found := s.firstPresentVariant(review.Text, family)
			if !found {
				continue
			}

			if !s.hasSentiment(review.Text) {
				rejections++
				continue
			}

			snippet, ok := extractSnippet(review.Text, s.patterns.get(variant), s.maxSnippetLength)
			if !ok || utf8.RuneCountInString(snippet) < MinSnippetLength {
				continue
			}

			if s.enableDebugLogging {
				s.logger.Debug("keyword match", "dish", dish.Name, "family", family.Canonical, "term", variant)
			}
			match := newCandidate(review, dish, snippet, variant, domain.MatchTypeKeyword, domain.ConfidenceMedium)
			return &match, rejections
		}
	}

	return nil, rejections
}

// eligible reports whether the normalized dish name contains the family's canonical
// term or a variant. Substrings count, so "cheesecake" is in the cake family.
func (s *MatchingService) eligible(dishName string, family lexicon.KeywordFamily) bool {
	if strings.Contains(dishName, family.Canonical) {
		return true
	}
	for _, variant := range family.Variants {
		if strings.Contains(dishName, variant) {
			return true
		}
	}
	return false
}

func (s *MatchingService) firstPresentVariant(text string, family lexicon.KeywordFamily) (string, bool) {
	for _, variant := range family.Variants {
		if s.patterns.get(variant).MatchString(text) {
			return variant, true
		}
	}
	return "", false
}

func (s *MatchingService) hasSentiment(text string) bool {
	for _, word := range s.lex.SentimentWords() {
		if s.patterns.get(word).MatchString(text) {
			return true
		}
	}
	return false
}

func (s *MatchingService) searchTerms(dishName string) []string {
	terms, ok := s.termCache[dishName]
	if !ok {
		terms = BuildSearchTerms(dishName, s.lex)
		s.termCache[dishName] = terms
	}
	return terms
}

func (s *MatchingService) reject(stats *domain.MatchStats, review *domain.RawReview, reason string) {
	stats.Reject(reason)
	if s.enableDebugLogging {
		s.logger.Debug("review rejected", "reason", reason, "restaurant", review.RestaurantName, "source", review.Source)
	}
}

func newCandidate(
	review *domain.RawReview,
	dish domain.DishRecord,
	snippet, term string,
	matchType domain.MatchType,
	confidence domain.Confidence,
) domain.MatchCandidate {
	return domain.MatchCandidate{
		DishID:          dish.ID,
		DishName:        dish.Name,
		RestaurantID:    review.RestaurantID,
		RestaurantName:  review.RestaurantName,
		ReviewSnippet:   snippet,
		FullReview:      review.Text,
		Author:          review.Author,
		Rating:          review.Rating,
		DateDescription: review.DateDescription,
		PublishTime:     review.PublishTime,
		HarvestedAt:     review.HarvestedAt,
		Source:          review.Source,
		MatchType:       matchType,
		MatchTerm:       term,
		Confidence:      confidence,
	}
}
