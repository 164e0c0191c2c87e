package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSnippetLength is the longest snippet the matcher extracts
	MaxSnippetLength = 195
	// MinSnippetLength is the shortest snippet considered usable evidence
	MinSnippetLength = 20

	ellipsis = "..."
)

// sentenceSpan is a trimmed sentence as byte offsets into the review text
type sentenceSpan struct {
	start, end int
}

// wordPattern compiles a case-insensitive whole-word matcher for term.
// Boundaries are any non letter/digit rune so terms like "mac & cheese" work.
func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(` + regexp.QuoteMeta(term) + `)(?:$|[^\p{L}\p{N}])`)
}

// termPatterns caches compiled word patterns; not safe for concurrent use
type termPatterns map[string]*regexp.Regexp

func (p termPatterns) get(term string) *regexp.Regexp {
	re, ok := p[term]
	if !ok {
		re = wordPattern(term)
		p[term] = re
	}
	return re
}

// ExtractSnippet returns the first sentence of text containing term, extended by the
// following sentence when both fit in maxLen. Sentences longer than maxLen are
// truncated around the term and end with an ellipsis.
func ExtractSnippet(text, term string, maxLen int) (string, bool) {
	return extractSnippet(text, wordPattern(term), maxLen)
}

func extractSnippet(text string, pattern *regexp.Regexp, maxLen int) (string, bool) {
	spans := splitSentences(text)
	for i, sp := range spans {
		sentence := text[sp.start:sp.end]
		loc := pattern.FindStringSubmatchIndex(sentence)
		if loc == nil {
			continue
		}

		if utf8.RuneCountInString(sentence) > maxLen {
			return truncateAround(sentence, loc[2], loc[3], maxLen), true
		}

		if i+1 < len(spans) {
			combined := text[sp.start:spans[i+1].end]
			if utf8.RuneCountInString(combined) <= maxLen {
				return combined, true
			}
		}
		return sentence, true
	}
	return "", false
}

// splitSentences breaks text on terminal punctuation followed by whitespace, and on newlines
func splitSentences(text string) []sentenceSpan {
	var spans []sentenceSpan
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		sentence := strings.TrimRightFunc(text[start:end], unicode.IsSpace)
		if sentence != "" {
			spans = append(spans, sentenceSpan{start: start, end: start + len(sentence)})
		}
		start = -1
	}

	for i, r := range text {
		if start < 0 {
			if !unicode.IsSpace(r) {
				start = i
			}
			continue
		}

		switch {
		case r == '\n' || r == '\r':
			flush(i)
		case isTerminal(r):
			next := i + utf8.RuneLen(r)
			if next >= len(text) {
				continue
			}
			nr, _ := utf8.DecodeRuneInString(text[next:])
			if unicode.IsSpace(nr) {
				flush(next)
			}
		}
	}
	flush(len(text))

	return spans
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// truncateAround cuts sentence to maxLen runes including the ellipsis, keeping the term
// located at byte offsets [termStart, termEnd) inside the window.
func truncateAround(sentence string, termStart, termEnd, maxLen int) string {
	runes := []rune(sentence)
	budget := maxLen - len(ellipsis)
	if budget <= 0 {
		return ellipsis[:maxLen]
	}

	startR := utf8.RuneCountInString(sentence[:termStart])
	endR := utf8.RuneCountInString(sentence[:termEnd])

	windowStart := 0
	if endR > budget {
		windowStart = endR - budget
		if windowStart > startR {
			windowStart = startR
		}
		// begin on a word boundary when one exists before the term
		for i := windowStart; i < startR; i++ {
			if unicode.IsSpace(runes[i]) {
				windowStart = i + 1
				break
			}
		}
	}

	windowEnd := windowStart + budget
	if windowEnd > len(runes) {
		windowEnd = len(runes)
	}
	return strings.TrimSpace(string(runes[windowStart:windowEnd])) + ellipsis
}
