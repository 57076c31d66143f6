package digest

import (
	"strings"
	"testing"
	"time"
)

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{8, "Good morning"},
		{14, "Good afternoon"},
		{20, "Good evening"},
		{0, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{17, "Good evening"},
	}

	for _, tt := range tests {
		now := time.Date(2026, 1, 1, tt.hour, 0, 0, 0, time.Local)
		got := greeting(now)
		if got != tt.expected {
			t.Errorf("hour %d: expected %q, got %q", tt.hour, tt.expected, got)
		}
	}
}

func TestActiveSources(t *testing.T) {
	items := []Item{
		{Source: "Reuters"}, {Source: "Reuters"}, {Source: "Reuters"},
		{Source: "BBC News"}, {Source: "BBC News"},
		{Source: "AP"},
	}

	got := activeSources(items)
	if !strings.HasPrefix(got, "Reuters (3)") {
		t.Errorf("expected Reuters first, got %q", got)
	}
	if !strings.Contains(got, "BBC News (2)") {
		t.Errorf("expected BBC News (2) in result, got %q", got)
	}
}

func TestActiveSourcesLimitedToThree(t *testing.T) {
	items := []Item{{Source: "A"}, {Source: "B"}, {Source: "C"}, {Source: "D"}}
	parts := strings.Split(activeSources(items), ", ")
	if len(parts) != 3 {
		t.Errorf("expected 3 sources, got %d: %v", len(parts), parts)
	}
}

func TestTokenize(t *testing.T) {
	found := map[string]bool{}
	for _, tok := range tokenize("Wildfire season starts early in the West!") {
		found[tok] = true
	}
	if !found["wildfire"] || !found["season"] {
		t.Errorf("expected wildfire and season in tokens, got %v", found)
	}
	if found["the"] || found["in"] {
		t.Error("short and stop words should be filtered")
	}
}

func TestGenerate(t *testing.T) {
	d := &Digest{Items: []Item{
		{Source: "Reuters", Title: "Wildfire spreads near the coast", Category: "Climate", Summary: "Crews battle flames."},
		{Source: "Reuters", Title: "Wildfire smoke closes schools", Category: "Climate"},
		{Source: "BBC News", Title: "Markets rally on jobs data", Category: "Finance"},
	}}
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	m := Generate(d, GenerateOpts{Now: now})

	if d.Meta != m {
		t.Error("Generate should attach meta to the digest")
	}
	if m.Greeting != "Good morning" {
		t.Errorf("unexpected greeting %q", m.Greeting)
	}
	if m.DateLabel != "Wed, Oct 14" {
		t.Errorf("unexpected date label %q", m.DateLabel)
	}
	if len(m.Trending) == 0 || m.Trending[0] != "wildfire" {
		t.Errorf("expected wildfire trending, got %v", m.Trending)
	}
	if len(m.ReadingTimes) != 3 || m.TotalMinutes != 3 {
		t.Errorf("unexpected reading times %v (total %d)", m.ReadingTimes, m.TotalMinutes)
	}
	if strings.Join(m.Categories, ",") != "Climate,Finance" {
		t.Errorf("unexpected categories %v", m.Categories)
	}
	if !strings.HasPrefix(m.Sources, "Reuters (2)") {
		t.Errorf("unexpected sources %q", m.Sources)
	}
}

func TestGenerateEmpty(t *testing.T) {
	m := Generate(&Digest{}, GenerateOpts{})
	if m.Sources != "" || len(m.Trending) != 0 {
		t.Errorf("expected empty meta, got %+v", m)
	}
}

func TestEstimateReadTime(t *testing.T) {
	if got := estimateReadTime(nWords(100)); got != 1 {
		t.Errorf("expected 1 min for 100 words, got %d", got)
	}
	if got := estimateReadTime(nWords(500)); got != 7 {
		t.Errorf("expected 7 min for 500 words, got %d", got)
	}
	if got := estimateReadTime(""); got != 1 {
		t.Errorf("expected min 1 for empty, got %d", got)
	}
}

func nWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}
