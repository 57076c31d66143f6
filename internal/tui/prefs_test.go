package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/khushisara1/news-digest/internal/classify"
	"github.com/khushisara1/news-digest/internal/config"
)

func basePrefs() config.Preferences {
	return config.Preferences{Topics: []string{"Technology"}, Region: "us", Frequency: "daily", Limit: 20, Sort: "latest"}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestToggleTopicKeepsDisplayOrder(t *testing.T) {
	f := newPrefsForm(basePrefs())
	f.toggleTopic(classify.Climate)
	f.toggleTopic(classify.Business)
	want := []string{"Technology", "Business", "Climate"}
	got := f.result().Topics
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}

	f.toggleTopic(classify.Technology)
	if f.hasTopic(classify.Technology) {
		t.Error("expected Technology toggled off")
	}
}

func TestFormDoesNotMutateInput(t *testing.T) {
	p := basePrefs()
	f := newPrefsForm(p)
	f.toggleTopic(classify.Sports)
	if len(p.Topics) != 1 {
		t.Errorf("input preferences mutated: %v", p.Topics)
	}
}

func TestStepLimitClamps(t *testing.T) {
	f := newPrefsForm(basePrefs())
	for i := 0; i < 10; i++ {
		f.stepLimit(limitStep)
	}
	if f.prefs.Limit != config.MaxLimit {
		t.Errorf("limit = %d, want %d", f.prefs.Limit, config.MaxLimit)
	}
	for i := 0; i < 20; i++ {
		f.stepLimit(-limitStep)
	}
	if f.prefs.Limit != config.MinLimit {
		t.Errorf("limit = %d, want %d", f.prefs.Limit, config.MinLimit)
	}
}

func TestCycleRegionWraps(t *testing.T) {
	f := newPrefsForm(basePrefs())
	codes := config.RegionCodes()
	f.cycleRegion(-1)
	if f.prefs.Region != codes[len(codes)-1] {
		t.Errorf("region = %q, want %q", f.prefs.Region, codes[len(codes)-1])
	}
	f.cycleRegion(1)
	if f.prefs.Region != "us" {
		t.Errorf("region = %q, want us", f.prefs.Region)
	}
}

func TestFormKeys(t *testing.T) {
	f := newPrefsForm(basePrefs())

	// Frequency is two fields down.
	f.update(keys("j"))
	f.update(keys("j"))
	f.update(keys(" "))
	if f.prefs.Frequency != "weekly" {
		t.Errorf("frequency = %q, want weekly", f.prefs.Frequency)
	}

	// Keywords: enter starts editing, typed runes land in the input.
	f.update(keys("j"))
	f.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !f.editing {
		t.Fatal("expected keyword editing")
	}
	f.update(keys("solar"))
	f.update(tea.KeyMsg{Type: tea.KeyEnter})
	if f.editing {
		t.Error("expected editing to stop")
	}
	if got := f.result().Keywords; got != "solar" {
		t.Errorf("keywords = %q, want solar", got)
	}

	// s applies once not editing.
	_, apply, cancel := f.update(keys("s"))
	if !apply || cancel {
		t.Errorf("expected apply, got apply=%v cancel=%v", apply, cancel)
	}
	_, apply, cancel = f.update(tea.KeyMsg{Type: tea.KeyEsc})
	if apply || !cancel {
		t.Errorf("expected cancel, got apply=%v cancel=%v", apply, cancel)
	}
}
