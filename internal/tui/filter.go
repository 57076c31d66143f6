package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// filterBar selects one saved-item category, or all of them.
type filterBar struct {
	categories []string
	// selected is an index into categories; -1 means All.
	selected   int
	filterMode bool
}

func newFilterBar() filterBar {
	return filterBar{selected: -1}
}

// setCategories replaces the options, keeping the selection when it still exists.
func (f *filterBar) setCategories(cats []string) {
	current := f.active()
	f.categories = cats
	f.selected = -1
	for i, c := range cats {
		if c == current {
			f.selected = i
		}
	}
}

func (f *filterBar) next() {
	if f.selected < len(f.categories)-1 {
		f.selected++
	}
}

func (f *filterBar) prev() {
	if f.selected >= 0 {
		f.selected--
	}
}

// active returns the selected category, or "" for All.
func (f *filterBar) active() string {
	if f.selected < 0 || f.selected >= len(f.categories) {
		return ""
	}
	return f.categories[f.selected]
}

func (f *filterBar) activeLabel() string {
	if c := f.active(); c != "" {
		return c
	}
	return "All"
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	labels := append([]string{"All"}, f.categories...)
	var row string
	for i, label := range labels {
		style := tabInactiveStyle
		if i-1 == f.selected {
			style = tabActiveStyle
		}
		if f.filterMode && i-1 == f.selected {
			label = "[" + label + "]"
		}
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += style.Render(label)
		// Stop when the next tab would overflow.
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
