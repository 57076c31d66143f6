package tui

import (
	"fmt"
	"strings"

	"github.com/khushisara1/news-digest/internal/digest"
)

// renderBriefingHeader is the two-line digest overview above the feed panes.
func renderBriefingHeader(m *digest.Meta, count int, width int) string {
	if m == nil {
		return ""
	}
	first := briefingTitleStyle.Render(m.Greeting) +
		briefingMetaStyle.Render(fmt.Sprintf("  ·  %s  ·  %s  ·  %d min read", m.DateLabel, countLabel(count, "story", "stories"), m.TotalMinutes))

	var second string
	switch {
	case m.Brief != "":
		second = briefingMetaStyle.Render(truncateStr(m.Brief, width-2))
	case len(m.Trending) > 0:
		second = briefingMetaStyle.Render("Trending: ") + briefingTrendStyle.Render(strings.Join(m.Trending, ", "))
	case m.Sources != "":
		second = briefingMetaStyle.Render(truncateStr(m.Sources, width-2))
	}

	if second == "" {
		return " " + first
	}
	return " " + first + "\n " + second
}

// entriesDigest builds an unsaved digest for metadata and export.
func entriesDigest(entries []digest.Entry, name string) *digest.Digest {
	return digest.FromEntries(name, entries)
}
