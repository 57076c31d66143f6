package tui

import (
	"testing"
	"time"

	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"test", 0, ""},
	}
	for _, tt := range tests {
		got := truncateStr(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateStrUTF8(t *testing.T) {
	got := truncateStr("日本語テスト", 5)
	want := "日本..."
	if got != want {
		t.Errorf("truncateStr(Japanese, 5) = %q, want %q", got, want)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()

	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
		{now.Add(-2 * 24 * time.Hour), "2d"},
		{time.Time{}, "unknown"},
	}
	for _, tt := range tests {
		got := relativeTime(tt.t)
		if got != tt.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestRelativeTimeOld(t *testing.T) {
	old := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	got := relativeTime(old)
	if got != "Jun 15" {
		t.Errorf("relativeTime(old date) = %q, want %q", got, "Jun 15")
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		total, cursor, visible int
		start, end             int
	}{
		{10, 0, 4, 0, 4},
		{10, 5, 4, 2, 6},
		{10, 9, 4, 6, 10},
		{3, 1, 5, 0, 3},
		{3, 0, 0, 0, 1},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.total, tt.cursor, tt.visible)
		if start != tt.start || end != tt.end {
			t.Errorf("visibleRange(%d, %d, %d) = %d, %d; want %d, %d",
				tt.total, tt.cursor, tt.visible, start, end, tt.start, tt.end)
		}
	}
}

func TestEntryRowsMarksSaved(t *testing.T) {
	entries := []digest.Entry{
		{Article: feed.Article{Title: "A", URL: "https://a"}, Rating: 3},
		{Article: feed.Article{Title: "B", URL: "https://b"}},
	}
	rows := entryRows(entries, map[string]int64{"https://b": 7})
	if rows[0].Saved || !rows[1].Saved {
		t.Errorf("saved flags wrong: %+v", rows)
	}
	if rows[0].Rating != 3 {
		t.Errorf("rating not carried: %+v", rows[0])
	}
}
