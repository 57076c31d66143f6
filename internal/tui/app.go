// Package tui is the terminal dashboard: preferences, today's feed and saved items.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/khushisara1/news-digest/internal/browser"
	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
	"github.com/khushisara1/news-digest/internal/pipeline"
	"github.com/khushisara1/news-digest/internal/store"
	"go.uber.org/zap"
)

// FeedBuilder builds summarized feeds.
type FeedBuilder interface {
	Build(ctx context.Context, q feed.Query) (pipeline.Feed, error)
	Brief(ctx context.Context, titles []string) string
	ClearCache(ctx context.Context) error
}

// ItemStore persists saved items.
type ItemStore interface {
	SaveItem(it digest.Item) (int64, error)
	ListItems(opts store.ListOpts) ([]digest.Item, error)
	Categories() ([]string, error)
	UpdateRating(id int64, rating int) error
	DeleteItem(id int64) error
	SetLastFetch(t time.Time) error
}

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeHome mode = iota
	modePrefs
	modeFeed
	modeSaved
	modeSearch
	modeFilter
	modeHelp
)

const fetchTimeout = 90 * time.Second

type App struct {
	cfg     *config.Config
	cfgPath string
	feed    FeedBuilder
	store   ItemStore
	log     *zap.Logger

	prefs config.Preferences
	mode  mode
	// back is the mode help returns to.
	back mode

	entries   []digest.Entry
	meta      *digest.Meta
	savedURLs map[string]int64
	items     []digest.Item

	cursor        int
	focus         focusPane
	previewScroll int

	width  int
	height int

	// Sub-components
	form        prefsForm
	searchInput textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	loading       bool
	status        string
	err           error
	exportDir     string
	updateVersion string
	currentDate   string
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Cfg        *config.Config
	ConfigPath string
	Feed       FeedBuilder
	Store      ItemStore
	Logger     *zap.Logger
	// StartInFeed skips the home screen and fetches immediately.
	StartInFeed   bool
	ExportDir     string
	UpdateVersion string
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search saved items..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	a := &App{
		cfg:           opts.Cfg,
		cfgPath:       opts.ConfigPath,
		feed:          opts.Feed,
		store:         opts.Store,
		log:           log,
		prefs:         opts.Cfg.Preferences,
		savedURLs:     map[string]int64{},
		searchInput:   ti,
		spinner:       sp,
		filterBar:     newFilterBar(),
		exportDir:     exportDir,
		updateVersion: opts.UpdateVersion,
		currentDate:   time.Now().Format("Mon, Jan 2"),
	}
	if opts.StartInFeed {
		a.mode = modeFeed
		a.loading = true
	}
	return a
}

func (a *App) Init() tea.Cmd {
	if a.mode == modeFeed {
		return tea.Batch(a.loadFeedCmd(), a.spinner.Tick)
	}
	return nil
}

func (a *App) query() feed.Query {
	return feed.Query{
		Topics:        a.prefs.Topics,
		Region:        a.prefs.Region,
		Keywords:      a.prefs.Keywords,
		Limit:         a.prefs.Limit,
		Frequency:     a.prefs.Frequency,
		TopicPageSize: a.cfg.TopicPageSize(),
	}
}

// loadFeedCmd captures the current query into the closure to avoid races.
func (a *App) loadFeedCmd() tea.Cmd {
	q := a.query()
	fb := a.feed
	db := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		f, err := fb.Build(ctx, q)
		if err != nil {
			return errMsg{err: err}
		}
		if err := db.SetLastFetch(time.Now()); err != nil {
			f.Warnings = append(f.Warnings, err)
		}
		return feedLoadedMsg{feed: f}
	}
}

func (a *App) briefCmd() tea.Cmd {
	titles := make([]string, len(a.entries))
	for i, e := range a.entries {
		titles[i] = e.Article.Title
	}
	fb := a.feed
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		brief := fb.Brief(ctx, titles)
		if brief == "" {
			return nil
		}
		return briefLoadedMsg{brief: brief}
	}
}

func (a *App) loadSavedCmd() tea.Cmd {
	opts := store.ListOpts{
		Category: a.filterBar.active(),
		Search:   a.searchInput.Value(),
	}
	db := a.store
	return func() tea.Msg {
		items, err := db.ListItems(opts)
		if err != nil {
			return errMsg{err: err}
		}
		cats, err := db.Categories()
		if err != nil {
			return errMsg{err: err}
		}
		return savedLoadedMsg{items: items, categories: cats}
	}
}

// loadSavedURLsCmd refreshes which feed entries are already saved.
func (a *App) loadSavedURLsCmd() tea.Cmd {
	db := a.store
	return func() tea.Msg {
		items, err := db.ListItems(store.ListOpts{})
		if err != nil {
			return errMsg{err: err}
		}
		urls := make(map[string]int64, len(items))
		for _, it := range items {
			urls[it.URL] = it.ID
		}
		return savedURLsMsg{urls: urls}
	}
}

func (a *App) saveEntryCmd(e digest.Entry) tea.Cmd {
	db := a.store
	return func() tea.Msg {
		id, err := db.SaveItem(e.Item())
		if err != nil {
			return errMsg{err: err}
		}
		return itemSavedMsg{url: e.Article.URL, id: id}
	}
}

func (a *App) rateCmd(id int64, rating int) tea.Cmd {
	db := a.store
	return func() tea.Msg {
		if err := db.UpdateRating(id, rating); err != nil {
			return errMsg{err: err}
		}
		return statusMsg{text: "Rated " + digest.Stars(rating)}
	}
}

func (a *App) deleteCmd(id int64) tea.Cmd {
	db := a.store
	reload := a.loadSavedCmd()
	return func() tea.Msg {
		if err := db.DeleteItem(id); err != nil {
			return errMsg{err: err}
		}
		return reload()
	}
}

func (a *App) clearCacheCmd() tea.Cmd {
	fb := a.feed
	reload := a.loadFeedCmd()
	return func() tea.Msg {
		if err := fb.ClearCache(context.Background()); err != nil {
			return errMsg{err: err}
		}
		return reload()
	}
}

func (a *App) exportCmd(format string) tea.Cmd {
	var d *digest.Digest
	switch a.mode {
	case modeFeed:
		d = entriesDigest(a.entries, "")
		if a.meta != nil {
			digest.Generate(d, digest.GenerateOpts{})
			d.Meta.Brief = a.meta.Brief
		}
	default:
		d = &digest.Digest{Name: "Saved items " + time.Now().Format("2006-01-02"), CreatedAt: time.Now().UTC(), Items: append([]digest.Item(nil), a.items...)}
	}
	if len(d.Items) == 0 {
		return func() tea.Msg { return errMsg{err: errors.New("nothing to export")} }
	}
	dir := a.exportDir
	return func() tea.Msg {
		path, err := digest.Export(d, format, dir)
		if err != nil {
			return errMsg{err: err}
		}
		return statusMsg{text: "Exported " + path}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) startFeed() tea.Cmd {
	a.mode = modeFeed
	a.resetCursor()
	a.loading = true
	a.err = nil
	return tea.Batch(a.loadFeedCmd(), a.spinner.Tick)
}

func (a *App) resetCursor() {
	a.cursor = 0
	a.previewScroll = 0
	a.focus = focusList
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error and status on any keypress
		a.err = nil
		a.status = ""
		return a.handleKey(msg)

	case feedLoadedMsg:
		a.loading = false
		a.entries = msg.feed.Entries
		if a.cursor >= len(a.entries) {
			a.cursor = max(0, len(a.entries)-1)
		}
		a.meta = digest.Generate(entriesDigest(a.entries, ""), digest.GenerateOpts{})
		for _, w := range msg.feed.Warnings {
			a.log.Warn("feed warning", zap.Error(w))
		}
		if n := len(msg.feed.Warnings); n > 0 {
			a.status = fmt.Sprintf("%s: %v", countLabel(n, "warning", "warnings"), msg.feed.Warnings[0])
		}
		return a, tea.Batch(a.loadSavedURLsCmd(), a.briefCmd())

	case briefLoadedMsg:
		if a.meta != nil {
			a.meta.Brief = msg.brief
		}
		return a, nil

	case savedLoadedMsg:
		a.items = msg.items
		a.filterBar.setCategories(msg.categories)
		if a.cursor >= len(a.items) {
			a.cursor = max(0, len(a.items)-1)
		}
		return a, nil

	case savedURLsMsg:
		a.savedURLs = msg.urls
		return a, nil

	case itemSavedMsg:
		a.savedURLs[msg.url] = msg.id
		a.status = "Saved"
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case errMsg:
		a.loading = false
		a.err = msg.err
		a.log.Error("tui action failed", zap.Error(msg.err))
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeHome:
		return a.handleHomeKey(msg)
	case modePrefs:
		return a.handlePrefsKey(msg)
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			a.mode = a.back
		}
		return a, nil
	case modeFeed:
		return a.handleFeedKey(msg)
	case modeSaved:
		return a.handleSavedKey(msg)
	}
	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "f", "1", "enter":
		if a.entries != nil {
			a.mode = modeFeed
			a.resetCursor()
			return a, nil
		}
		return a, a.startFeed()
	case "s", "2":
		return a, a.startSaved()
	case "p", "3":
		a.openPrefs()
		return a, nil
	case "?":
		a.back = modeHome
		a.mode = modeHelp
		return a, nil
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) openPrefs() {
	a.form = newPrefsForm(a.prefs)
	a.mode = modePrefs
}

func (a *App) startSaved() tea.Cmd {
	a.mode = modeSaved
	a.resetCursor()
	return a.loadSavedCmd()
}

func (a *App) handlePrefsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, apply, cancel := a.form.update(msg)
	switch {
	case cancel:
		a.mode = modeHome
		return a, nil
	case apply:
		p := a.form.result()
		if err := config.ValidatePreferences(p); err != nil {
			a.err = err
			return a, nil
		}
		a.prefs = p
		if a.cfgPath != "" {
			a.cfg.Preferences = p
			if err := config.Save(a.cfgPath, a.cfg); err != nil {
				a.err = fmt.Errorf("saving preferences: %w", err)
			}
		}
		return a, a.startFeed()
	}
	return a, cmd
}

// listKeys handles movement shared by the feed and saved panes. It reports
// whether the key was consumed.
func (a *App) listKeys(key string, n int) bool {
	switch key {
	case "j", "down":
		if a.focus == focusList && a.cursor < n-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
	case "g":
		a.cursor, a.previewScroll = 0, 0
	case "G":
		a.cursor, a.previewScroll = max(0, n-1), 0
	default:
		return false
	}
	return true
}

func ratingKey(key string) (int, bool) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '5' {
		return int(key[0] - '0'), true
	}
	return 0, false
}

func (a *App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if a.listKeys(key, len(a.entries)) {
		return a, nil
	}

	var current *digest.Entry
	if a.cursor < len(a.entries) {
		current = &a.entries[a.cursor]
	}

	if r, ok := ratingKey(key); ok {
		if current == nil {
			return a, nil
		}
		current.Rating = r
		if id, saved := a.savedURLs[current.Article.URL]; saved {
			return a, a.rateCmd(id, r)
		}
		a.status = "Rating " + digest.Stars(r) + " (press s to save)"
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "o", "enter":
		if current != nil {
			return a, openBrowserCmd(current.Article.URL)
		}
	case "s":
		if current != nil {
			return a, a.saveEntryCmd(*current)
		}
	case "r":
		if !a.loading {
			return a, a.startFeed()
		}
	case "C":
		if !a.loading {
			a.loading = true
			a.status = "Clearing cache"
			return a, tea.Batch(a.clearCacheCmd(), a.spinner.Tick)
		}
	case "x":
		return a, a.exportCmd("md")
	case "X":
		return a, a.exportCmd("json")
	case "p":
		a.openPrefs()
	case "v":
		return a, a.startSaved()
	case "h", "esc":
		a.mode = modeHome
	case "?":
		a.back = modeFeed
		a.mode = modeHelp
	}
	return a, nil
}

func (a *App) handleSavedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if a.listKeys(key, len(a.items)) {
		return a, nil
	}

	var current *digest.Item
	if a.cursor < len(a.items) {
		current = &a.items[a.cursor]
	}

	if r, ok := ratingKey(key); ok {
		if current == nil {
			return a, nil
		}
		current.Rating = r
		return a, a.rateCmd(current.ID, r)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "o", "enter":
		if current != nil {
			return a, openBrowserCmd(current.URL)
		}
	case "d":
		if current != nil {
			a.status = "Deleted " + truncateStr(current.Title, 40)
			delete(a.savedURLs, current.URL)
			return a, a.deleteCmd(current.ID)
		}
	case "/":
		a.mode = modeSearch
		return a, a.searchInput.Focus()
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
	case "x":
		return a, a.exportCmd("md")
	case "X":
		return a, a.exportCmd("json")
	case "v":
		if a.entries != nil {
			a.mode = modeFeed
			a.resetCursor()
			return a, nil
		}
		return a, a.startFeed()
	case "h", "esc":
		a.mode = modeHome
	case "?":
		a.back = modeSaved
		a.mode = modeHelp
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeSaved
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.cursor = 0
		return a, a.loadSavedCmd()
	case "enter":
		a.mode = modeSaved
		a.searchInput.Blur()
		a.cursor = 0
		return a, a.loadSavedCmd()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f", "enter":
		a.mode = modeSaved
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		a.filterBar.prev()
	case "right", "l":
		a.filterBar.next()
	default:
		return a, nil
	}
	a.cursor = 0
	return a, a.loadSavedCmd()
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderStatusBar(a.statusText(""), " "+hints+" ", a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

// statusText is the left side of the status bar: error, status or fallback.
func (a *App) statusText(fallback string) string {
	switch {
	case a.err != nil:
		return statusErrStyle.Render(truncateStr(a.err.Error(), max(20, a.width-40)))
	case a.loading:
		label := "Fetching and summarizing..."
		if a.status != "" {
			label = a.status + "..."
		}
		return a.spinner.View() + " " + label
	case a.status != "":
		return a.status
	}
	return fallback
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  newsdigest")
	}

	switch a.mode {
	case modeHome:
		summary := fmt.Sprintf("%s · %s · %s", topicsLabel(a.prefs.Topics), a.prefs.Region, a.prefs.Frequency)
		return a.withBottomBar(renderHomeScreen(a.width, a.height, summary, a.updateVersion), "f feed  s saved  p preferences  q quit")
	case modePrefs:
		hints := "↑/↓ field  ←/→ change  space toggle  s apply  esc cancel"
		if a.form.editing {
			hints = "enter done"
		}
		body := lipgloss.NewStyle().Padding(1, 2).Render(a.form.view(a.width - 4))
		return a.withBottomBar(body, hints)
	case modeHelp:
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	return a.renderPanes()
}

func topicsLabel(topics []string) string {
	if len(topics) == 0 {
		return "General"
	}
	return strings.Join(topics, ", ")
}

func (a *App) renderPanes() string {
	saved := a.mode != modeFeed

	// Header
	title := "Today's Feed"
	if saved {
		title = "Saved Items"
	}
	headerLeft := headerStyle.Render("newsdigest · " + title)
	headerRight := headerDateStyle.Render(a.currentDate + " ")
	headerGap := max(0, a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight))
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	var sub string
	var rows []row
	var selected *previewData
	empty := "No articles found"
	if saved {
		sub = a.filterBar.render(a.width)
		if a.mode == modeSearch || a.searchInput.Value() != "" {
			sub = a.searchInput.View()
		}
		rows = itemRows(a.items)
		if a.cursor < len(a.items) {
			p := itemPreview(a.items[a.cursor])
			selected = &p
		}
		empty = "Nothing saved yet"
	} else {
		sub = renderBriefingHeader(a.meta, len(a.entries), a.width)
		rows = entryRows(a.entries, a.savedURLs)
		if a.cursor < len(a.entries) {
			p := entryPreview(a.entries[a.cursor])
			if a.meta != nil && a.cursor < len(a.meta.ReadingTimes) {
				p.ReadMinutes = a.meta.ReadingTimes[a.cursor]
			}
			selected = &p
		}
		if a.loading && len(a.entries) == 0 {
			empty = "Loading..."
		}
	}

	subHeight := strings.Count(sub, "\n") + 1
	contentHeight := max(3, a.height-1-subHeight-1-2)

	listWidth := int(float64(a.width) * 0.38)
	previewWidth := a.width - listWidth - 1

	listContent := renderList(rows, a.cursor, contentHeight, listWidth-4, empty)
	listPane := paneStyle(a.focus == focusList).Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewContent := renderPreview(selected, previewWidth-4, contentHeight, a.previewScroll)
	previewPane := paneStyle(a.focus == focusPreview).Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	var left, hints string
	if saved {
		left = countLabel(len(a.items), "item", "items") + " · " + a.filterBar.activeLabel()
		hints = "1-5 rate  d delete  / search  f filter  x export  v feed  ? help"
		if a.mode == modeSearch {
			hints = "esc cancel  enter search"
		}
		if a.mode == modeFilter {
			hints = "←/→ category  enter done"
		}
	} else {
		left = countLabel(len(a.entries), "story", "stories") + " · " + topicsLabel(a.prefs.Topics) + " · " + a.prefs.Region
		hints = "0-5 rate  s save  o open  r refresh  x export  v saved  ? help"
	}
	status := renderStatusBar(a.statusText(left), hints, a.width)

	return lipgloss.JoinVertical(lipgloss.Left, header, sub, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("newsdigest")
	dim := helpDimStyle

	help := title + dim.Render(" keyboard shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through the list\n" +
		"  g/G           First / last item\n" +
		"  tab           Switch focus between list and preview\n" +
		"  v             Switch between feed and saved items\n\n" +
		dim.Render("Feed") + "\n" +
		"  s             Save the selected article\n" +
		"  0-5           Rate the selected article\n" +
		"  r             Refresh (uses the cache)\n" +
		"  C             Clear the cache and refetch\n" +
		"  p             Edit preferences\n\n" +
		dim.Render("Saved") + "\n" +
		"  0-5           Change rating\n" +
		"  d             Delete\n" +
		"  /             Search title, source and summary\n" +
		"  f             Filter by category\n\n" +
		dim.Render("General") + "\n" +
		"  o, enter      Open in browser\n" +
		"  x / X         Export Markdown / JSON\n" +
		"  h             Home screen\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
