package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/platewise/reviewpipe/internal/lexicon"
)

// minTermLength is the shortest search term used for name matching
const minTermLength = 4

// Compiled regex patterns for dish name preprocessing
var (
	// Matches parenthetical segments like "(GF)" or "(seasonal, market price)"
	parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

var lowerCaser = cases.Lower(language.English)

// BuildSearchTerms derives the set of lowercased terms a dish may be referred to by.
// Order: full name, name without parentheticals, name without leading descriptors,
// last two significant words. Duplicates and terms shorter than 4 characters are dropped.
func BuildSearchTerms(dishName string, lex *lexicon.Lexicon) []string {
	full := normalizeName(dishName)
	if full == "" {
		return nil
	}

	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		if len([]rune(term)) < minTermLength || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	add(full)

	base := full
	if stripped := normalizeName(parentheticalPattern.ReplaceAllString(full, " ")); stripped != full && len([]rune(stripped)) > 3 {
		add(stripped)
		base = stripped
	}

	if stripped := stripLeadingDescriptors(base, lex); stripped != base && len([]rune(stripped)) > 3 {
		add(stripped)
	}

	if significant := significantWords(base, lex); len(significant) >= 2 {
		add(strings.Join(significant[len(significant)-2:], " "))
	}

	return terms
}

// normalizeName lowercases and collapses whitespace
func normalizeName(name string) string {
	name = lowerCaser.String(name)
	name = multiSpacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// stripLeadingDescriptors removes preparation/regional adjectives from the front of a name
func stripLeadingDescriptors(name string, lex *lexicon.Lexicon) string {
	words := strings.Fields(name)
	i := 0
	for i < len(words) && lex.IsDescriptor(words[i]) {
		i++
	}
	return strings.Join(words[i:], " ")
}

// significantWords splits a name into words, dropping punctuation and stop words
func significantWords(name string, lex *lexicon.Lexicon) []string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
	})

	var out []string
	for _, word := range words {
		word = strings.Trim(word, "'-")
		if word == "" || lex.IsStopWord(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}
