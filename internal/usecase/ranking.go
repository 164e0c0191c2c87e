package usecase

import (
	"sort"

	"github.com/platewise/reviewpipe/internal/domain"
)

const (
	// MaxMatchesPerDish caps how many reviews are kept for one dish
	MaxMatchesPerDish = 3
	// snippetPrefixLength is how many leading characters identify a duplicate snippet
	snippetPrefixLength = 40
)

// RankMatches groups candidates by dish, orders each group with name matches before
// keyword matches and higher ratings first, drops snippets whose 40-character prefix
// was already kept, and keeps at most three per dish. Groups appear in order of their
// first candidate; ties keep input order.
func RankMatches(candidates []domain.MatchCandidate) []domain.FinalMatch {
	var order []string
	groups := make(map[string][]domain.MatchCandidate)
	for _, c := range candidates {
		if _, ok := groups[c.DishID]; !ok {
			order = append(order, c.DishID)
		}
		groups[c.DishID] = append(groups[c.DishID], c)
	}

	var final []domain.FinalMatch
	for _, dishID := range order {
		group := groups[dishID]
		sort.SliceStable(group, func(i, j int) bool {
			if typeRank(group[i].MatchType) != typeRank(group[j].MatchType) {
				return typeRank(group[i].MatchType) < typeRank(group[j].MatchType)
			}
			return group[i].Rating > group[j].Rating
		})

		seen := make(map[string]bool)
		kept := 0
		for _, c := range group {
			if kept == MaxMatchesPerDish {
				break
			}
			prefix := snippetPrefix(c.ReviewSnippet)
			if seen[prefix] {
				continue
			}
			seen[prefix] = true
			final = append(final, c)
			kept++
		}
	}

	return final
}

func typeRank(t domain.MatchType) int {
	if t == domain.MatchTypeName {
		return 0
	}
	return 1
}

func snippetPrefix(snippet string) string {
	runes := []rune(snippet)
	if len(runes) > snippetPrefixLength {
		runes = runes[:snippetPrefixLength]
	}
	return string(runes)
}
