package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/khushisara1/news-digest/internal/digest"
)

// row is one line pair in the article list.
type row struct {
	Title     string
	Source    string
	Published time.Time
	Rating    int
	Saved     bool
}

func entryRows(entries []digest.Entry, saved map[string]int64) []row {
	rows := make([]row, len(entries))
	for i, e := range entries {
		_, ok := saved[e.Article.URL]
		rows[i] = row{Title: e.Article.Title, Source: e.Article.Source, Published: e.Article.PublishedAt, Rating: e.Rating, Saved: ok}
	}
	return rows
}

func itemRows(items []digest.Item) []row {
	rows := make([]row, len(items))
	for i, it := range items {
		rows[i] = row{Title: it.Title, Source: it.Source, Published: it.PublishedAt, Rating: it.Rating, Saved: true}
	}
	return rows
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func renderListItem(r row, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(r.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(r.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(truncateStr(r.Source, width/2)) + " " + itemTimeStyle.Render("· "+relativeTime(r.Published))
	if r.Rating > 0 {
		meta += " " + starStyle.Render(digest.Stars(r.Rating))
	}
	if r.Saved {
		meta += " " + itemTimeStyle.Render("saved")
	}

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// visibleRange returns the window of rows to draw so the cursor stays visible.
func visibleRange(total, cursor, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > total {
		end = total
		start = max(0, end-visible)
	}
	return start, end
}

func renderList(rows []row, cursor int, height int, width int, empty string) string {
	if len(rows) == 0 {
		return lipglossCenter(empty, width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	start, end := visibleRange(len(rows), cursor, height/3)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(rows[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
