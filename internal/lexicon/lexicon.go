// Package lexicon holds the tunable word lists and lookup tables used by the
// matcher and the generator. A Lexicon is immutable once built; the embedded
// default can be replaced wholesale by a YAML file of the same shape.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// fallbackRating is the 10 point score for stars outside the rating scale
// when the YAML does not set default_rating
const fallbackRating = 7.0

// KeywordFamily maps a canonical food term to its surface forms
type KeywordFamily struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// file is the on-disk YAML shape
type file struct {
	DescriptorWords []string        `yaml:"descriptor_words"`
	StopWords       []string        `yaml:"stop_words"`
	SentimentWords  []string        `yaml:"sentiment_words"`
	KeywordFamilies []KeywordFamily `yaml:"keyword_families"`
	TargetTowns     []string        `yaml:"target_towns"`
	RatingScale     map[int]float64 `yaml:"rating_scale"`
	DefaultRating   *float64        `yaml:"default_rating"`
}

// Lexicon is a read-only set of matching tables
type Lexicon struct {
	descriptors   map[string]bool
	stopWords     map[string]bool
	sentiment     []string
	families      []KeywordFamily
	towns         []string
	ratingScale   map[int]float64
	defaultRating float64
}

// Default returns the embedded lexicon
func Default() *Lexicon {
	lex, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// Load reads a lexicon from a YAML file
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse builds a lexicon from YAML bytes
func Parse(data []byte) (*Lexicon, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.SentimentWords) == 0 {
		return nil, fmt.Errorf("sentiment_words must not be empty")
	}
	if len(f.RatingScale) == 0 {
		return nil, fmt.Errorf("rating_scale must not be empty")
	}

	lex := &Lexicon{
		descriptors:   toSet(f.DescriptorWords),
		stopWords:     toSet(f.StopWords),
		sentiment:     normalizeAll(f.SentimentWords),
		towns:         normalizeAll(f.TargetTowns),
		ratingScale:   make(map[int]float64, len(f.RatingScale)),
		defaultRating: fallbackRating,
	}
	if f.DefaultRating != nil {
		lex.defaultRating = *f.DefaultRating
	}
	for stars, score := range f.RatingScale {
		lex.ratingScale[stars] = score
	}
	for _, fam := range f.KeywordFamilies {
		canonical := normalize(fam.Canonical)
		if canonical == "" {
			return nil, fmt.Errorf("keyword family with empty canonical term")
		}
		variants := normalizeAll(fam.Variants)
		if len(variants) == 0 {
			variants = []string{canonical}
		}
		lex.families = append(lex.families, KeywordFamily{Canonical: canonical, Variants: variants})
	}
	return lex, nil
}

// IsDescriptor reports whether word is a leading descriptor (e.g. "grilled")
func (l *Lexicon) IsDescriptor(word string) bool {
	return l.descriptors[normalize(word)]
}

// IsStopWord reports whether word carries no dish meaning
func (l *Lexicon) IsStopWord(word string) bool {
	return l.stopWords[normalize(word)]
}

// SentimentWords returns a copy of the positive-sentiment vocabulary
func (l *Lexicon) SentimentWords() []string {
	return append([]string(nil), l.sentiment...)
}

// KeywordFamilies returns a copy of the ordered keyword families
func (l *Lexicon) KeywordFamilies() []KeywordFamily {
	out := make([]KeywordFamily, len(l.families))
	for i, fam := range l.families {
		out[i] = KeywordFamily{
			Canonical: fam.Canonical,
			Variants:  append([]string(nil), fam.Variants...),
		}
	}
	return out
}

// TargetTowns returns a copy of the town allow-list
func (l *Lexicon) TargetTowns() []string {
	return append([]string(nil), l.towns...)
}

// MatchesTown reports whether a location descriptor names an allow-listed town.
// An empty location always matches.
func (l *Lexicon) MatchesTown(location string) bool {
	loc := normalize(location)
	if loc == "" {
		return true
	}
	for _, town := range l.towns {
		if strings.Contains(loc, town) {
			return true
		}
	}
	return false
}

// RatingToTen converts a 1-5 star rating to the 10 point scale
func (l *Lexicon) RatingToTen(stars int) float64 {
	if score, ok := l.ratingScale[stars]; ok {
		return score
	}
	return l.defaultRating
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if n := normalize(w); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range normalizeAll(words) {
		set[w] = true
	}
	return set
}
