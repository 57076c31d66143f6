package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxFullTextRunes = 4000
	fullTextWorkers  = 4
)

// truncatedMarker matches the "[+1234 chars]" suffix the news API appends to
// clipped content.
var truncatedMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// Extractor downloads article pages and replaces clipped content with the
// readable body text.
type Extractor struct {
	client *resty.Client
	log    *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(20*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; newsdigest/1.0)")
	return &Extractor{client: client, log: log}
}

// NeedsFullText reports whether an article's content is missing or clipped.
func NeedsFullText(a Article) bool {
	return a.Content == "" || truncatedMarker.MatchString(a.Content)
}

// Enrich returns a copy of articles with full text filled in where possible.
// Failures keep the original article.
func (e *Extractor) Enrich(ctx context.Context, articles []Article) []Article {
	out := make([]Article, len(articles))
	copy(out, articles)
	if len(articles) == 0 {
		return out
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(len(articles), fullTextWorkers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				a := articles[idx]
				enriched, err := e.extract(ctx, a)
				if err != nil {
					e.log.Warn("full text extraction failed", zap.String("url", a.URL), zap.Error(err))
					continue
				}
				out[idx] = enriched
			}
		}()
	}

	for idx, a := range articles {
		if ctx.Err() != nil {
			break
		}
		if !NeedsFullText(a) {
			continue
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return out
}

func (e *Extractor) extract(ctx context.Context, a Article) (Article, error) {
	pageURL, err := url.Parse(a.URL)
	if err != nil {
		return a, fmt.Errorf("parsing url: %w", err)
	}
	resp, err := e.client.R().SetContext(ctx).Get(a.URL)
	if err != nil {
		return a, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return a, fmt.Errorf("status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	updated := a
	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		if text := strings.Join(strings.Fields(parsed.TextContent), " "); text != "" {
			updated.Content = truncate(text, maxFullTextRunes)
		}
	}
	if updated.ImageURL == "" || updated.Description == "" {
		fillMeta(&updated, body)
	}
	if updated.Content == a.Content && err != nil {
		return a, fmt.Errorf("readability: %w", err)
	}
	return updated, nil
}

// fillMeta copies og:description and og:image into empty article fields.
func fillMeta(a *Article, body []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return
	}
	meta := func(prop string) string {
		v, _ := doc.Find(`meta[property="` + prop + `"]`).First().Attr("content")
		return strings.TrimSpace(v)
	}
	if a.Description == "" {
		a.Description = meta("og:description")
	}
	if a.ImageURL == "" {
		a.ImageURL = meta("og:image")
	}
}
