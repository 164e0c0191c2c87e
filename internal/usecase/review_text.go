package usecase

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/platewise/reviewpipe/internal/domain"
)

// normalizeReviews cleans provider markup out of review text in place
func normalizeReviews(reviews []domain.RawReview) []domain.RawReview {
	for i := range reviews {
		reviews[i].Text = NormalizeReviewText(reviews[i].Text)
	}
	return reviews
}

// NormalizeReviewText strips HTML tags, decodes entities and trims the text.
// Line breaks (<br>, </p>) become newlines so sentence splitting still sees them.
func NormalizeReviewText(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return strings.TrimSpace(text)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "br", "p", "div", "li":
				b.WriteByte('\n')
			}
		}
	}
}
