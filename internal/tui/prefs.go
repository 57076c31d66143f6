package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/khushisara1/news-digest/internal/classify"
	"github.com/khushisara1/news-digest/internal/config"
)

type prefsField int

const (
	fieldTopics prefsField = iota
	fieldRegion
	fieldFrequency
	fieldKeywords
	fieldLimit
	fieldSort
	fieldCount
)

const limitStep = 5

// prefsForm edits a copy of the preferences until it is applied.
type prefsForm struct {
	prefs       config.Preferences
	field       prefsField
	topicCursor int
	keywords    textinput.Model
	editing     bool
}

func newPrefsForm(p config.Preferences) prefsForm {
	ti := textinput.New()
	ti.Placeholder = `e.g. "climate policy" OR solar`
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.SetValue(p.Keywords)

	p.Topics = append([]string(nil), p.Topics...)
	return prefsForm{prefs: p, keywords: ti}
}

func (f *prefsForm) hasTopic(t classify.Topic) bool {
	for _, s := range f.prefs.Topics {
		if strings.EqualFold(s, string(t)) {
			return true
		}
	}
	return false
}

// toggleTopic adds or removes t, keeping topics in display order.
func (f *prefsForm) toggleTopic(t classify.Topic) {
	on := !f.hasTopic(t)
	var topics []string
	for _, at := range classify.AllTopics() {
		if at == t {
			if on {
				topics = append(topics, string(at))
			}
			continue
		}
		if f.hasTopic(at) {
			topics = append(topics, string(at))
		}
	}
	f.prefs.Topics = topics
}

func (f *prefsForm) cycleRegion(delta int) {
	codes := config.RegionCodes()
	idx := 0
	for i, c := range codes {
		if c == f.prefs.Region {
			idx = i
		}
	}
	idx = (idx + delta + len(codes)) % len(codes)
	f.prefs.Region = codes[idx]
}

func (f *prefsForm) toggleFrequency() {
	if f.prefs.Frequency == "weekly" {
		f.prefs.Frequency = "daily"
	} else {
		f.prefs.Frequency = "weekly"
	}
}

func (f *prefsForm) toggleSort() {
	if f.prefs.Sort == "relevance" {
		f.prefs.Sort = "latest"
	} else {
		f.prefs.Sort = "relevance"
	}
}

func (f *prefsForm) stepLimit(delta int) {
	f.prefs.Limit = max(config.MinLimit, min(config.MaxLimit, f.prefs.Limit+delta))
}

// result returns the edited preferences.
func (f *prefsForm) result() config.Preferences {
	p := f.prefs
	p.Keywords = strings.TrimSpace(f.keywords.Value())
	return p
}

// update handles a key and reports whether the form should be applied or
// discarded.
func (f *prefsForm) update(msg tea.KeyMsg) (cmd tea.Cmd, apply, cancel bool) {
	if f.editing {
		switch msg.String() {
		case "enter", "esc", "tab":
			f.editing = false
			f.keywords.Blur()
			return nil, false, false
		}
		f.keywords, cmd = f.keywords.Update(msg)
		return cmd, false, false
	}

	switch msg.String() {
	case "esc":
		return nil, false, true
	case "s", "ctrl+s":
		return nil, true, false
	case "j", "down", "tab":
		f.field = (f.field + 1) % fieldCount
	case "k", "up", "shift+tab":
		f.field = (f.field + fieldCount - 1) % fieldCount
	case "left", "h", "-":
		f.adjust(-1)
	case "right", "l", "+", "=":
		f.adjust(1)
	case " ", "enter", "x":
		switch f.field {
		case fieldTopics:
			f.toggleTopic(classify.AllTopics()[f.topicCursor])
		case fieldKeywords:
			f.editing = true
			return f.keywords.Focus(), false, false
		default:
			f.adjust(1)
		}
	}
	return nil, false, false
}

func (f *prefsForm) adjust(delta int) {
	switch f.field {
	case fieldTopics:
		n := len(classify.AllTopics())
		f.topicCursor = (f.topicCursor + delta + n) % n
	case fieldRegion:
		f.cycleRegion(delta)
	case fieldFrequency:
		f.toggleFrequency()
	case fieldLimit:
		f.stepLimit(delta * limitStep)
	case fieldSort:
		f.toggleSort()
	}
}

func (f *prefsForm) view(width int) string {
	label := func(field prefsField, s string) string {
		if f.field == field {
			return prefsActiveLabelStyle.Render("> " + s)
		}
		return prefsLabelStyle.Render("  " + s)
	}

	var topics []string
	for i, t := range classify.AllTopics() {
		box := "[ ]"
		if f.hasTopic(t) {
			box = "[x]"
		}
		text := box + " " + string(t)
		switch {
		case f.field == fieldTopics && i == f.topicCursor:
			text = itemSelectedStyle.Render(text)
		case f.hasTopic(t):
			text = itemTitleStyle.Render(text)
		default:
			text = helpDimStyle.Render(text)
		}
		topics = append(topics, text)
	}

	region := fmt.Sprintf("‹ %s (%s) ›", config.Regions[f.prefs.Region], f.prefs.Region)
	kw := f.keywords.View()
	if !f.editing && f.keywords.Value() == "" {
		kw = helpDimStyle.Render("(none, press enter to edit)")
	}

	lines := []string{
		briefingTitleStyle.Render("Preferences"),
		"",
		label(fieldTopics, "Topics") + wrapRow(topics, width-16),
		label(fieldRegion, "Region") + region,
		label(fieldFrequency, "Frequency") + "‹ " + f.prefs.Frequency + " ›",
		label(fieldKeywords, "Keywords") + kw,
		label(fieldLimit, "Articles") + fmt.Sprintf("‹ %d ›  (%d-%d)", f.prefs.Limit, config.MinLimit, config.MaxLimit),
		label(fieldSort, "Sort") + "‹ " + sortLabel(f.prefs.Sort) + " ›",
	}
	return strings.Join(lines, "\n")
}

func sortLabel(s string) string {
	if s == "" {
		return "latest"
	}
	return s
}

// wrapRow joins styled cells, breaking onto indented lines at width.
func wrapRow(cells []string, width int) string {
	var lines []string
	var line string
	lineWidth := 0
	for _, c := range cells {
		w := lipgloss.Width(c) + 2
		if lineWidth > 0 && lineWidth+w > width {
			lines = append(lines, line)
			line, lineWidth = "", 0
		}
		line += c + "  "
		lineWidth += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"+strings.Repeat(" ", 12))
}
