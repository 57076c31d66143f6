package digest

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Fed holds rates at 5.25%  ", "fed-holds-rates-at-5-25"},
		{"---", "item"},
		{"", "item"},
		{"Café au lait", "caf-au-lait"},
		{"already-a-slug", "already-a-slug"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2026-10-13T08:30:00Z", "Oct 13, 2026 08:30"},
		{"2026-10-13T08:30:00+02:00", "Oct 13, 2026 08:30"},
		{"2026-01-05", "Jan 05, 2026 00:00"},
		{"yesterday", "yesterday"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStars(t *testing.T) {
	tests := map[int]string{0: "☆☆☆☆☆", 3: "★★★☆☆", 5: "★★★★★", 9: "★★★★★", -1: "☆☆☆☆☆"}
	for in, want := range tests {
		if got := Stars(in); got != want {
			t.Errorf("Stars(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestDescriptionExcerpt(t *testing.T) {
	got := DescriptionExcerpt("Officials confirmed the harbor will reopen. More details follow later.")
	if got != "Officials confirmed the harbor will reopen." {
		t.Errorf("unexpected excerpt %q", got)
	}
	if got := DescriptionExcerpt(""); got != "" {
		t.Errorf("expected empty for empty input, got %q", got)
	}
	// decimals do not end the sentence
	got = DescriptionExcerpt("Inflation came in at 3.2 percent last month, analysts said.")
	if got != "Inflation came in at 3.2 percent last month, analysts said." {
		t.Errorf("unexpected excerpt %q", got)
	}
	long := strings.Repeat("x", 200)
	if got := DescriptionExcerpt(long); len([]rune(got)) != 153 {
		t.Errorf("expected 150 runes plus ellipsis, got %d", len([]rune(got)))
	}
}

func TestValidRating(t *testing.T) {
	for r := 0; r <= 5; r++ {
		if !ValidRating(r) {
			t.Errorf("%d should be valid", r)
		}
	}
	for _, r := range []int{-1, 6, 10} {
		if ValidRating(r) {
			t.Errorf("%d should be invalid", r)
		}
	}
}
