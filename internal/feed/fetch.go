package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/khushisara1/news-digest/internal/classify"
	"github.com/khushisara1/news-digest/internal/signal"
)

// Query holds the user's feed preferences for one fetch.
type Query struct {
	Topics    []string `json:"topics"`
	Region    string   `json:"region"`
	Keywords  string   `json:"keywords"`
	Limit     int      `json:"limit"`
	Frequency string   `json:"frequency"`
	// TopicPageSize caps each per-topic request. Zero means 20.
	TopicPageSize int `json:"-"`
}

// Window returns the lookback for keyword searches.
func (q Query) Window() time.Duration {
	if strings.EqualFold(q.Frequency, "weekly") {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Key is a normalized form of the query, stable across topic order and case.
func (q Query) Key() string {
	topics := make([]string, len(q.Topics))
	for i, t := range q.Topics {
		topics[i] = strings.ToLower(strings.TrimSpace(t))
	}
	sort.Strings(topics)
	return fmt.Sprintf("topics=%s|region=%s|kw=%s|limit=%d|freq=%s",
		strings.Join(topics, ","),
		strings.ToLower(q.Region),
		strings.ToLower(strings.TrimSpace(q.Keywords)),
		q.Limit,
		strings.ToLower(q.Frequency))
}

// Requests expands the query into upstream requests: an optional keyword
// search first, then one headline request per topic.
func (q Query) Requests(now time.Time) []Request {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	perTopic := q.TopicPageSize
	if perTopic <= 0 {
		perTopic = 20
	}
	perTopic = min(limit, perTopic)

	var reqs []Request
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		reqs = append(reqs, Request{
			Keywords: kw,
			Region:   q.Region,
			PageSize: limit,
			From:     now.Add(-q.Window()),
		})
	}
	for _, t := range q.Topics {
		topic, err := classify.ResolveAlias(t)
		name := string(topic)
		if err != nil {
			name = t
		}
		reqs = append(reqs, Request{
			Category: classify.NewsAPICategory(topic),
			Topic:    name,
			Region:   q.Region,
			PageSize: perTopic,
		})
	}
	if len(reqs) == 0 {
		reqs = append(reqs, Request{Category: "general", Region: q.Region, PageSize: perTopic})
	}
	return reqs
}

// Result holds the merged articles and every per-request failure.
type Result struct {
	Articles []Article
	Errors   []error
}

// Fetch runs every request of q concurrently and merges the results in
// request order, dropping duplicate URLs and capping at q.Limit. It only fails
// when every request failed.
func Fetch(ctx context.Context, p Provider, q Query) (Result, error) {
	reqs := q.Requests(time.Now())
	batches := make([][]Article, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			articles, err := p.Search(ctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", describe(req), err)
				return
			}
			batches[i] = articles
		}(i, req)
	}
	wg.Wait()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var result Result
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			result.Errors = append(result.Errors, err)
		}
	}
	if failed == len(reqs) {
		return result, fmt.Errorf("fetching articles: %w", errors.Join(result.Errors...))
	}

	seen := make(map[string]bool)
	for i, batch := range batches {
		for _, a := range batch {
			if a.URL == "" || seen[a.URL] {
				continue
			}
			if len(result.Articles) >= limit {
				break
			}
			seen[a.URL] = true
			a.Topics = []string{topicFor(reqs[i], a)}
			result.Articles = append(result.Articles, a)
		}
	}
	return result, nil
}

func topicFor(req Request, a Article) string {
	if req.Topic != "" {
		return req.Topic
	}
	return string(classify.Classify(a.Title, a.Description))
}

func describe(req Request) string {
	if req.IsSearch() {
		return fmt.Sprintf("search %q", req.Keywords)
	}
	if req.Topic != "" {
		return fmt.Sprintf("headlines %s/%s", req.Topic, req.Region)
	}
	return fmt.Sprintf("headlines %s/%s", req.Category, req.Region)
}

const (
	SortLatest    = "latest"
	SortRelevance = "relevance"
)

// RankOptions configures relevance sorting.
type RankOptions struct {
	Sort          string
	Keywords      string
	SourceWeights map[string]float64
}

// Rank orders articles in place: newest first, or by signal score when
// opts.Sort is "relevance". Ties keep their fetch order.
func Rank(articles []Article, opts RankOptions) {
	if opts.Sort != SortRelevance {
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		})
		return
	}

	scores := make(map[string]float64, len(articles))
	keywords := signal.SplitKeywords(opts.Keywords)
	for _, a := range articles {
		terms := append([]string{}, keywords...)
		for _, t := range a.Topics {
			terms = append(terms, classify.Terms(classify.Topic(t))...)
		}
		scores[a.ID] = signal.Score(signal.Input{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source,
			Published:   a.PublishedAt,
			Terms:       terms,
		}, opts.SourceWeights)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return scores[articles[i].ID] > scores[articles[j].ID]
	})
}
