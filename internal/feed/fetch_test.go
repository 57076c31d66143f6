package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeProvider serves canned articles per request and records what it saw.
type fakeProvider struct {
	mu       sync.Mutex
	requests []Request
	results  map[string][]Article
	errs     map[string]error
}

func (f *fakeProvider) Name() string { return "fake" }

func key(req Request) string {
	if req.IsSearch() {
		return "q:" + req.Keywords
	}
	return "topic:" + req.Topic
}

func (f *fakeProvider) Search(_ context.Context, req Request) ([]Article, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := f.errs[key(req)]; err != nil {
		return nil, err
	}
	return f.results[key(req)], nil
}

func art(url, title string) Article {
	return Article{ID: ArticleID(url), URL: url, Title: title, PublishedAt: time.Now()}
}

func TestFetchMergesInRequestOrder(t *testing.T) {
	p := &fakeProvider{results: map[string][]Article{
		"q:mars":        {art("https://a/1", "Rocket lands on Mars"), art("https://a/2", "Mars rover")},
		"topic:Science": {art("https://a/2", "Mars rover"), art("https://a/3", "New species found")},
		"topic:Sports":  {art("https://a/4", "Final score"), art("", "no url")},
	}}

	res, err := Fetch(context.Background(), p, Query{
		Topics:   []string{"Science", "Sports"},
		Keywords: "mars",
		Region:   "us",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	var urls []string
	for _, a := range res.Articles {
		urls = append(urls, a.URL)
	}
	want := []string{"https://a/1", "https://a/2", "https://a/3", "https://a/4"}
	if fmt.Sprint(urls) != fmt.Sprint(want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}
	if got := res.Articles[2].Topic(); got != "Science" {
		t.Errorf("expected topic Science for headline result, got %q", got)
	}
	if got := res.Articles[3].Topic(); got != "Sports" {
		t.Errorf("expected topic Sports, got %q", got)
	}
	if len(p.requests) != 3 {
		t.Errorf("expected 3 upstream requests, got %d", len(p.requests))
	}
}

func TestFetchCapsAtLimit(t *testing.T) {
	var many []Article
	for i := 0; i < 30; i++ {
		many = append(many, art(fmt.Sprintf("https://b/%d", i), "story"))
	}
	p := &fakeProvider{results: map[string][]Article{"topic:Technology": many}}

	res, err := Fetch(context.Background(), p, Query{Topics: []string{"tech"}, Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Articles) != 5 {
		t.Errorf("expected 5 articles, got %d", len(res.Articles))
	}
	if p.requests[0].PageSize != 5 {
		t.Errorf("topic page size should be min(limit, 20), got %d", p.requests[0].PageSize)
	}
	if p.requests[0].Category != "technology" {
		t.Errorf("expected technology category, got %q", p.requests[0].Category)
	}
}

func TestFetchPartialFailure(t *testing.T) {
	p := &fakeProvider{
		results: map[string][]Article{"topic:Health": {art("https://c/1", "Clinic opens")}},
		errs:    map[string]error{"topic:Business": errors.New("boom")},
	}
	res, err := Fetch(context.Background(), p, Query{Topics: []string{"Business", "Health"}, Limit: 10})
	if err != nil {
		t.Fatalf("partial failure should not fail the fetch: %v", err)
	}
	if len(res.Articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(res.Articles))
	}
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 collected error, got %d", len(res.Errors))
	}
}

func TestFetchAllFailed(t *testing.T) {
	p := &fakeProvider{errs: map[string]error{"topic:World": ErrMissingAPIKey}}
	_, err := Fetch(context.Background(), p, Query{Topics: []string{"World"}, Limit: 10})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected wrapped ErrMissingAPIKey, got %v", err)
	}
}

func TestFetchOnlyReturnsUpstreamArticles(t *testing.T) {
	upstream := map[string]bool{"https://d/1": true, "https://d/2": true}
	p := &fakeProvider{results: map[string][]Article{
		"topic:Finance": {art("https://d/1", "Stocks rally"), art("https://d/2", "Bond market")},
	}}
	res, err := Fetch(context.Background(), p, Query{Topics: []string{"Finance"}, Region: "ca", Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range res.Articles {
		if !upstream[a.URL] {
			t.Errorf("article %s was not returned by the upstream", a.URL)
		}
	}
	if p.requests[0].Region != "ca" || p.requests[0].Category != "general" {
		t.Errorf("unexpected request: %+v", p.requests[0])
	}
}

func TestQueryRequests(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	reqs := Query{Keywords: "ai", Frequency: "weekly", Limit: 40}.Requests(now)
	if len(reqs) != 1 || !reqs[0].IsSearch() {
		t.Fatalf("expected one search request, got %+v", reqs)
	}
	if !reqs[0].From.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("weekly search should reach back 7 days, got %v", reqs[0].From)
	}
	if reqs[0].PageSize != 40 {
		t.Errorf("search page size should equal limit, got %d", reqs[0].PageSize)
	}

	reqs = Query{Limit: 10}.Requests(now)
	if len(reqs) != 1 || reqs[0].Category != "general" {
		t.Errorf("empty query should ask for general headlines, got %+v", reqs)
	}
}

func TestQueryKeyNormalized(t *testing.T) {
	a := Query{Topics: []string{"Science", "Business"}, Region: "US", Keywords: " Mars ", Limit: 20}
	b := Query{Topics: []string{"business", "science"}, Region: "us", Keywords: "mars", Limit: 20}
	if a.Key() != b.Key() {
		t.Errorf("keys differ:\n%s\n%s", a.Key(), b.Key())
	}
	c := b
	c.Limit = 25
	if c.Key() == b.Key() {
		t.Error("different limits should give different keys")
	}
}

func TestRankLatest(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{ID: "1", PublishedAt: now.Add(-3 * time.Hour)},
		{ID: "2", PublishedAt: now},
		{ID: "3", PublishedAt: now.Add(-1 * time.Hour)},
	}
	Rank(articles, RankOptions{Sort: SortLatest})
	if articles[0].ID != "2" || articles[1].ID != "3" || articles[2].ID != "1" {
		t.Errorf("unexpected order: %s %s %s", articles[0].ID, articles[1].ID, articles[2].ID)
	}
}

func TestRankRelevance(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{ID: "plain", Title: "Town fair this weekend", PublishedAt: now},
		{ID: "match", Title: "Solar power hits record as emissions fall", Topics: []string{"Climate"}, PublishedAt: now},
	}
	Rank(articles, RankOptions{Sort: SortRelevance, Keywords: "solar"})
	if articles[0].ID != "match" {
		t.Errorf("expected keyword match first, got %s", articles[0].ID)
	}
}
