package digest

import (
	"strings"
	"time"
	"unicode"
)

// Slugify lowercases s and replaces every run of characters outside a-z and
// 0-9 with a single dash. An empty result becomes "item".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}

const displayDate = "Jan 02, 2006 15:04"

// FormatDate renders an ISO-8601 timestamp as "Jan 02, 2006 15:04". Values
// that do not parse are returned unchanged.
func FormatDate(s string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.Format(displayDate)
		}
	}
	return s
}

// FormatTime is FormatDate for a parsed time. The zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDate)
}

// Stars renders a 0-5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = max(MinRating, min(MaxRating, rating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", MaxRating-rating)
}

// DescriptionExcerpt returns the first sentence of a description as a fallback summary.
func DescriptionExcerpt(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		return ""
	}
	for i, c := range desc {
		if c == '.' && i > 20 && (i+1 == len(desc) || unicode.IsSpace(rune(desc[i+1]))) {
			return desc[:i+1]
		}
	}
	runes := []rune(desc)
	if len(runes) > 150 {
		return string(runes[:150]) + "..."
	}
	return desc
}
