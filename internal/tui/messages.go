package tui

import (
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/pipeline"
)

type feedLoadedMsg struct {
	feed  pipeline.Feed
	brief string
}

type savedLoadedMsg struct {
	items      []digest.Item
	categories []string
}

// savedURLsMsg maps saved article URLs to item ids.
type savedURLsMsg struct {
	urls map[string]int64
}

type errMsg struct {
	err error
}

// statusMsg is a transient confirmation shown in the status bar.
type statusMsg struct {
	text string
}

type itemSavedMsg struct {
	url string
	id  int64
}

type briefLoadedMsg struct {
	brief string
}
