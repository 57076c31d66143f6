package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/digest"
)

// previewData is what the preview pane shows for an entry or a saved item.
type previewData struct {
	Title       string
	Source      string
	Published   string
	Category    string
	Summary     string
	Description string
	URL         string
	Rating      int
	ReadMinutes int
}

func entryPreview(e digest.Entry) previewData {
	return previewData{
		Title:       e.Article.Title,
		Source:      e.Article.Source,
		Published:   digest.FormatTime(e.Article.PublishedAt),
		Category:    e.Category,
		Summary:     e.Summary,
		Description: e.Article.Description,
		URL:         e.Article.URL,
		Rating:      e.Rating,
	}
}

func itemPreview(it digest.Item) previewData {
	return previewData{
		Title:       it.Title,
		Source:      it.Source,
		Published:   digest.FormatTime(it.PublishedAt),
		Category:    it.Category,
		Summary:     it.Summary,
		Description: it.Description,
		URL:         it.URL,
		Rating:      it.Rating,
	}
}

func renderPreview(p *previewData, width, height, scroll int) string {
	if p == nil {
		return lipglossCenter("Select an article", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(p.Title)

	meta := p.Source
	if p.Published != "" {
		meta += " · " + p.Published
	}
	if p.ReadMinutes > 0 {
		meta += fmt.Sprintf(" · %d min", p.ReadMinutes)
	}
	source := previewSourceStyle.Render(meta)

	var tags string
	if p.Category != "" {
		tags = categoryStyle(p.Category).Render(p.Category) + "  "
	}
	tags += starStyle.Render(digest.Stars(p.Rating))

	summary := p.Summary
	if summary == "" {
		summary = ai.Unavailable
	}
	sum := previewSummaryStyle.Width(contentWidth).Render(wrapText(summary, contentWidth))

	parts := []string{title, source, tags, "", sum}
	if p.Description != "" && p.Description != p.Summary {
		parts = append(parts, "", previewBodyStyle.Width(contentWidth).Render(wrapText(p.Description, contentWidth)))
	}
	parts = append(parts, previewLinkStyle.Width(contentWidth).Render("Read more: "+p.URL))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return strings.Join(ai.Wrap(s, width), "\n")
}
