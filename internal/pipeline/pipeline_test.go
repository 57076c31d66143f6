package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/cache"
	"github.com/khushisara1/news-digest/internal/feed"
)

type stubProvider struct {
	mu       sync.Mutex
	calls    int
	articles []feed.Article
	err      error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(_ context.Context, req feed.Request) ([]feed.Article, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.articles, nil
}

// stubSummarizer echoes "summary of <title>" and records batch sizes.
type stubSummarizer struct {
	batches [][]ai.Input
	err     error
	brief   string
}

func (s *stubSummarizer) Summarize(_ context.Context, inputs []ai.Input) ([]string, error) {
	s.batches = append(s.batches, inputs)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = "summary of " + in.Title
	}
	return out, nil
}

func (s *stubSummarizer) Brief(_ context.Context, titles []string) (string, error) {
	return s.brief, s.err
}

func articles() []feed.Article {
	now := time.Now()
	mk := func(url, title, desc string, age time.Duration) feed.Article {
		return feed.Article{ID: feed.ArticleID(url), URL: url, Title: title, Description: desc, PublishedAt: now.Add(-age)}
	}
	return []feed.Article{
		mk("https://a/1", "Older story", "An older story that has a description sentence. More text.", 3*time.Hour),
		mk("https://a/2", "Newest story", "", time.Hour),
	}
}

func query() feed.Query {
	return feed.Query{Topics: []string{"Technology"}, Region: "us", Limit: 10}
}

func TestFetchUsesCache(t *testing.T) {
	p := &stubProvider{articles: articles()}
	s := &Service{Provider: p, Cache: cache.NewMemory()}
	ctx := context.Background()

	first, err := s.Fetch(ctx, query())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Fetch(ctx, query())
	if err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", p.calls)
	}
	if len(second.Articles) != len(first.Articles) {
		t.Errorf("cached result differs: %d vs %d", len(second.Articles), len(first.Articles))
	}
	// Ranked latest first.
	if first.Articles[0].Title != "Newest story" {
		t.Errorf("expected newest first, got %q", first.Articles[0].Title)
	}

	if err := s.ClearCache(ctx); err != nil {
		t.Fatal(err)
	}
	s.Fetch(ctx, query())
	if p.calls != 2 {
		t.Errorf("expected refetch after clear, got %d calls", p.calls)
	}
}

func TestFetchError(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	s := &Service{Provider: p, Cache: cache.NewMemory()}
	if _, err := s.Fetch(context.Background(), query()); err == nil {
		t.Fatal("expected error when every request fails")
	}

	s = &Service{}
	if _, err := s.Fetch(context.Background(), query()); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestSummarizeCachesPerArticle(t *testing.T) {
	sum := &stubSummarizer{}
	s := &Service{Summarizer: sum, Cache: cache.NewMemory()}
	ctx := context.Background()
	arts := articles()

	got, err := s.Summarize(ctx, arts[:1])
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "summary of Older story" {
		t.Errorf("got %q", got[0])
	}

	got, err = s.Summarize(ctx, arts)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.batches) != 2 || len(sum.batches[1]) != 1 {
		t.Fatalf("expected only the miss to be sent, batches: %v", sum.batches)
	}
	if sum.batches[1][0].Title != "Newest story" {
		t.Errorf("sent wrong article: %q", sum.batches[1][0].Title)
	}
	want := []string{"summary of Older story", "summary of Newest story"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("summary %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSummarizeWithoutSummarizer(t *testing.T) {
	s := &Service{}
	got, err := s.Summarize(context.Background(), articles())
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "An older story that has a description sentence." {
		t.Errorf("expected description excerpt, got %q", got[0])
	}
	if got[1] != ai.Unavailable {
		t.Errorf("expected unavailable marker, got %q", got[1])
	}
}

func TestSummarizeFailureFallsBack(t *testing.T) {
	sum := &stubSummarizer{err: errors.New("quota exceeded")}
	s := &Service{Summarizer: sum, Cache: cache.NewMemory()}
	got, err := s.Summarize(context.Background(), articles())
	if err == nil {
		t.Fatal("expected summarizer error")
	}
	if len(got) != 2 || got[1] != ai.Unavailable {
		t.Errorf("expected fallbacks, got %v", got)
	}
}

func TestBuild(t *testing.T) {
	s := &Service{
		Provider:   &stubProvider{articles: articles()},
		Summarizer: &stubSummarizer{},
		Cache:      cache.NewMemory(),
	}
	q := query()
	q.Topics = []string{"Technology", "Science"}

	f, err := s.Build(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(f.Entries))
	}
	for _, e := range f.Entries {
		if e.Category != "Technology, Science" {
			t.Errorf("category = %q", e.Category)
		}
		if !strings.HasPrefix(e.Summary, "summary of ") {
			t.Errorf("unexpected summary %q", e.Summary)
		}
		if e.Summary != "summary of "+e.Article.Title {
			t.Errorf("summary not aligned with article: %q / %q", e.Summary, e.Article.Title)
		}
	}
	if len(f.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", f.Warnings)
	}
}

func TestBuildSummarizeWarning(t *testing.T) {
	s := &Service{
		Provider:   &stubProvider{articles: articles()},
		Summarizer: &stubSummarizer{err: errors.New("down")},
	}
	f, err := s.Build(context.Background(), query())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Entries) != 2 || len(f.Warnings) != 1 {
		t.Errorf("expected entries with one warning, got %d entries %v", len(f.Entries), f.Warnings)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		topics []string
		want   string
	}{
		{nil, "General"},
		{[]string{" "}, "General"},
		{[]string{"Health"}, "Health"},
		{[]string{"Health", "Sports"}, "Health, Sports"},
	}
	for _, tt := range tests {
		if got := Category(feed.Query{Topics: tt.topics}); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.topics, got, tt.want)
		}
	}
}

func TestBrief(t *testing.T) {
	s := &Service{}
	if got := s.Brief(context.Background(), []string{"a"}); got != "" {
		t.Errorf("expected empty brief without summarizer, got %q", got)
	}
	s.Summarizer = &stubSummarizer{brief: "Markets calm."}
	if got := s.Brief(context.Background(), []string{"a"}); got != "Markets calm." {
		t.Errorf("got %q", got)
	}
}
