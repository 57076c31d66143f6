package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultNewsAPIBaseURL = "https://newsapi.org/v2"

// ErrMissingAPIKey is returned before any request when no news API key is set.
var ErrMissingAPIKey = errors.New("news api key is not set (export NEWSAPI_KEY or add news.api_key to the config)")

// APIError is an error response from the news API.
type APIError struct {
	HTTPStatus int
	Status     string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("news api: http %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("news api: %s: %s", e.Code, e.Message)
}

// RateLimited reports whether the upstream rejected the call for quota reasons.
func (e *APIError) RateLimited() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.Code == "rateLimited"
}

type NewsAPIOptions struct {
	APIKey   string
	BaseURL  string
	Language string
	QPS      float64
	Timeout  time.Duration
}

// NewsAPI queries the /everything and /top-headlines endpoints.
type NewsAPI struct {
	client   *resty.Client
	apiKey   string
	language string
	limiter  *rate.Limiter
}

func NewNewsAPI(opts NewsAPIOptions) *NewsAPI {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNewsAPIBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.QPS > 0 {
		limit = rate.Limit(opts.QPS)
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("X-Api-Key", opts.APIKey).
		SetHeader("User-Agent", "newsdigest/1.0")
	return &NewsAPI{
		client:   client,
		apiKey:   opts.APIKey,
		language: opts.Language,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type newsAPIArticle struct {
	Source      newsAPISource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     string        `json:"content"`
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

func (n *NewsAPI) Search(ctx context.Context, req Request) ([]Article, error) {
	if n.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path, params := n.params(req)
	var result, apiErr newsAPIResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("calling news api %s: %w", path, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return nil, &APIError{HTTPStatus: resp.StatusCode(), Status: apiErr.Status, Code: apiErr.Code, Message: msg}
	}
	if result.Status == "error" {
		return nil, &APIError{HTTPStatus: resp.StatusCode(), Status: result.Status, Code: result.Code, Message: result.Message}
	}

	now := time.Now()
	articles := make([]Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		// The API keeps tombstones for articles removed by the publisher.
		if a.URL == "" || a.Title == "[Removed]" {
			continue
		}
		pub, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, Article{
			ID:          ArticleID(a.URL),
			Title:       strings.TrimSpace(a.Title),
			URL:         a.URL,
			Source:      a.Source.Name,
			Author:      a.Author,
			Description: htmlToText(a.Description),
			Content:     htmlToText(a.Content),
			ImageURL:    a.URLToImage,
			Region:      req.Region,
			PublishedAt: pub,
			FetchedAt:   now,
		})
	}
	return articles, nil
}

func (n *NewsAPI) params(req Request) (string, map[string]string) {
	if req.IsSearch() {
		p := map[string]string{
			"q":        req.Keywords,
			"language": n.language,
			"pageSize": strconv.Itoa(clampPageSize(req.PageSize)),
			"sortBy":   "publishedAt",
		}
		if !req.From.IsZero() {
			p["from"] = req.From.UTC().Format("2006-01-02T15:04:05")
		}
		return "/everything", p
	}
	category := req.Category
	if category == "" {
		category = "general"
	}
	p := map[string]string{
		"category": category,
		"pageSize": strconv.Itoa(clampPageSize(req.PageSize)),
	}
	if req.Region != "" {
		p["country"] = req.Region
	}
	return "/top-headlines", p
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return 20
	case n > 100:
		return 100
	}
	return n
}
