package feed

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Article is a news item as returned by a provider. It is not modified after
// Fetch returns.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Region      string    `json:"region,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Topic returns the first topic the article was fetched under.
func (a Article) Topic() string {
	if len(a.Topics) == 0 {
		return ""
	}
	return a.Topics[0]
}

// ArticleID derives a stable id from the article URL.
func ArticleID(link string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(link)))
	return fmt.Sprintf("%x", h[:16])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// htmlToText reduces an HTML fragment to whitespace-collapsed text.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	// Block elements would otherwise glue adjacent words together.
	doc.Find("p, br, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
