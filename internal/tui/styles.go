package tui

import "github.com/charmbracelet/lipgloss"

// Newsprint palette: ink on paper for light terminals, paper on ink for dark.
var (
	colorInk     = lipgloss.AdaptiveColor{Light: "#1B1B1B", Dark: "#F2EFE6"}
	colorText    = lipgloss.AdaptiveColor{Light: "#2B2B2B", Dark: "#E4E0D5"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#5C5C5C", Dark: "#A8A39A"}
	colorFaint   = lipgloss.AdaptiveColor{Light: "#9A968E", Dark: "#6B675F"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF6B5E"}
	colorLink    = lipgloss.AdaptiveColor{Light: "#1F5FAD", Dark: "#7FB2F0"}
	colorSource  = lipgloss.AdaptiveColor{Light: "#2E7D4F", Dark: "#6FCF97"}
	colorStar    = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F6C453"}
	colorRule    = lipgloss.AdaptiveColor{Light: "#D6D2C8", Dark: "#3A3833"}
	colorSurface = lipgloss.AdaptiveColor{Light: "#F3F0E8", Dark: "#1F1E1B"}
	colorBar     = lipgloss.AdaptiveColor{Light: "#E6E2D8", Dark: "#2A2824"}
)

var (
	bold  = lipgloss.NewStyle().Bold(true)
	faint = lipgloss.NewStyle().Foreground(colorFaint)

	headerStyle     = bold.Foreground(colorInk).PaddingLeft(1)
	headerDateStyle = faint.Align(lipgloss.Right)

	itemTitleStyle    = lipgloss.NewStyle().Foreground(colorInk)
	itemSelectedStyle = bold.Foreground(colorAccent)
	itemSourceStyle   = lipgloss.NewStyle().Foreground(colorSource)
	itemTimeStyle     = faint
	starStyle         = lipgloss.NewStyle().Foreground(colorStar)

	previewTitleStyle   = bold.Foreground(colorInk).MarginBottom(1)
	previewSourceStyle  = itemSourceStyle
	previewSummaryStyle = lipgloss.NewStyle().Foreground(colorText)
	previewBodyStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	previewLinkStyle    = lipgloss.NewStyle().Foreground(colorLink).Underline(true).MarginTop(1)

	tabActiveStyle    = bold.Foreground(colorSurface).Background(colorInk).Padding(0, 1)
	tabInactiveStyle  = lipgloss.NewStyle().Foreground(colorMuted).Background(colorBar).Padding(0, 1)
	tabSeparatorStyle = faint.Background(colorSurface)

	statusBarStyle = lipgloss.NewStyle().Foreground(colorMuted).Background(colorBar).Padding(0, 1)
	statusErrStyle = bold.Foreground(colorAccent)
	spinnerStyle   = lipgloss.NewStyle().Foreground(colorAccent)

	searchPromptStyle = bold.Foreground(colorAccent)

	briefingTitleStyle = bold.Foreground(colorText)
	briefingMetaStyle  = faint
	briefingTrendStyle = lipgloss.NewStyle().Foreground(colorSource).Italic(true)

	prefsLabelStyle       = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	prefsActiveLabelStyle = bold.Foreground(colorAccent).Width(12)

	helpDimStyle  = faint
	helpCardStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(colorInk).Padding(1, 3)
)

// paneStyle is the bordered box around the list and preview panes.
func paneStyle(active bool) lipgloss.Style {
	s := lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	if active {
		return s.BorderForeground(colorAccent)
	}
	return s.BorderForeground(colorRule)
}

// categoryStyle colors a topic label consistently across views.
func categoryStyle(category string) lipgloss.Style {
	palette := []lipgloss.Color{"#C0392B", "#2E86C1", "#239B56", "#B9770E", "#7D3C98", "#148F77"}
	sum := 0
	for _, r := range category {
		sum += int(r)
	}
	return bold.Foreground(palette[sum%len(palette)])
}
