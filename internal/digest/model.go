// Package digest holds saved items and digests and renders them as Markdown,
// JSON or HTML.
package digest

import (
	"time"

	"github.com/khushisara1/news-digest/internal/feed"
)

const (
	MinRating = 0
	MaxRating = 5
)

// ValidRating reports whether r is an allowed star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Item is an article with its summary and the user's rating. Items become
// saved items once persisted by the store.
type Item struct {
	ID          int64     `json:"id,omitempty"`
	ArticleID   string    `json:"article_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Region      string    `json:"region,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Category    string    `json:"category"`
	Summary     string    `json:"summary"`
	Rating      int       `json:"rating"`
	SavedAt     time.Time `json:"saved_at"`
}

// Entry is an unsaved feed result: an article plus its summary.
type Entry struct {
	Article  feed.Article `json:"article"`
	Summary  string       `json:"summary"`
	Category string       `json:"category"`
	Rating   int          `json:"rating"`
}

// Item converts the entry to an unsaved Item.
func (e Entry) Item() Item {
	return ItemFromArticle(e.Article, e.Summary, e.Category, e.Rating)
}

// ItemFromArticle builds an unsaved Item from a fetched article. An empty
// category falls back to the article's topic.
func ItemFromArticle(a feed.Article, summary, category string, rating int) Item {
	if category == "" {
		category = a.Topic()
	}
	id := a.ID
	if id == "" {
		id = feed.ArticleID(a.URL)
	}
	return Item{
		ArticleID:   id,
		Slug:        Slugify(a.Title),
		Title:       a.Title,
		URL:         a.URL,
		Source:      a.Source,
		Author:      a.Author,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Region:      a.Region,
		PublishedAt: a.PublishedAt,
		Category:    category,
		Summary:     summary,
		Rating:      rating,
	}
}

// Digest is a named collection of items.
type Digest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// Query is the JSON-encoded feed query the digest was built from, if any.
	Query string `json:"query,omitempty"`
	Items []Item `json:"items"`

	// Meta is filled by Generate and is not exported.
	Meta *Meta `json:"-"`
}

// FromEntries builds an unsaved digest from feed results.
func FromEntries(name string, entries []Entry) *Digest {
	d := &Digest{Name: name, CreatedAt: time.Now().UTC(), Items: make([]Item, 0, len(entries))}
	for _, e := range entries {
		d.Items = append(d.Items, e.Item())
	}
	return d
}
