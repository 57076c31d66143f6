package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const DefaultGoogleNewsURL = "https://news.google.com/rss"

// googleSections maps topics onto Google News section feeds. Topics without a
// section are fetched as a search on the topic name.
var googleSections = map[string]string{
	"Technology":    "TECHNOLOGY",
	"Business":      "BUSINESS",
	"Science":       "SCIENCE",
	"Health":        "HEALTH",
	"Entertainment": "ENTERTAINMENT",
	"Sports":        "SPORTS",
	"World":         "WORLD",
	"Politics":      "NATION",
}

type locale struct {
	hl, gl, ceid string
}

var regionLocales = map[string]locale{
	"de": {"de", "DE", "DE:de"},
	"fr": {"fr", "FR", "FR:fr"},
}

func localeFor(region string) locale {
	if l, ok := regionLocales[region]; ok {
		return l
	}
	if region == "" {
		region = "us"
	}
	gl := strings.ToUpper(region)
	return locale{hl: "en-" + gl, gl: gl, ceid: gl + ":en"}
}

// RSSProvider reads Google News RSS. It needs no API key.
type RSSProvider struct {
	parser  *gofeed.Parser
	baseURL string
}

func NewRSSProvider(baseURL string) *RSSProvider {
	if baseURL == "" {
		baseURL = DefaultGoogleNewsURL
	}
	return &RSSProvider{parser: gofeed.NewParser(), baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *RSSProvider) Name() string { return "rss" }

func (r *RSSProvider) feedURL(req Request) string {
	loc := localeFor(req.Region)
	q := url.Values{}
	q.Set("hl", loc.hl)
	q.Set("gl", loc.gl)
	q.Set("ceid", loc.ceid)

	if req.IsSearch() {
		q.Set("q", req.Keywords)
		return r.baseURL + "/search?" + q.Encode()
	}
	if section, ok := googleSections[req.Topic]; ok {
		return r.baseURL + "/headlines/section/topic/" + section + "?" + q.Encode()
	}
	if req.Topic != "" {
		q.Set("q", req.Topic)
		return r.baseURL + "/search?" + q.Encode()
	}
	return r.baseURL + "?" + q.Encode()
}

func (r *RSSProvider) Search(ctx context.Context, req Request) ([]Article, error) {
	u := r.feedURL(req)
	feed, err := r.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}

	now := time.Now()
	limit := clampPageSize(req.PageSize)
	articles := make([]Article, 0, min(len(feed.Items), limit))
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		if !req.From.IsZero() && pub.Before(req.From) {
			continue
		}

		title, source := splitTitleSource(item.Title)
		if source == "" {
			source = feed.Title
		}
		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		desc = truncate(htmlToText(desc), 500)
		// Google News descriptions often just repeat the headline.
		if strings.HasPrefix(desc, title) && len([]rune(desc)) <= len([]rune(title))+len([]rune(source))+3 {
			desc = ""
		}

		articles = append(articles, Article{
			ID:          ArticleID(item.Link),
			Title:       title,
			URL:         item.Link,
			Source:      source,
			Author:      author,
			Description: desc,
			Region:      req.Region,
			PublishedAt: pub,
			FetchedAt:   now,
		})
	}
	return articles, nil
}

// splitTitleSource splits "Headline - Publisher" as used by Google News.
func splitTitleSource(title string) (string, string) {
	title = strings.TrimSpace(title)
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}
