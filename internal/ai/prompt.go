package ai

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxBatchSize bounds how many articles go into one request.
const MaxBatchSize = 20

// Unavailable stands in for a summary the model did not return.
const Unavailable = "(summary unavailable)"

const (
	maxSummaryRunes = 300
	summaryWidth    = 100
	maxSummaryLines = 3
)

const summarySystemPrompt = `You are a helpful news editor. For each article, write a crisp 2–3 line summary.
- Be neutral and factual
- Avoid sensationalism
- Include the 'so what' in one short sentence
Number each summary to match its article, one summary per number, for example "1. <summary>".`

const briefPrompt = `In one sentence (max 150 chars), summarize the main themes across these %d news headlines:

%s`

// formatBatch renders articles the way the summary prompt expects them.
func formatBatch(inputs []Input) string {
	var sb strings.Builder
	for i, in := range inputs {
		fmt.Fprintf(&sb, "%d. %s\n%s\n%s\nSource: %s\n\n",
			i+1, strings.TrimSpace(in.Title), in.Description, in.Content, in.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// numbered matches "1. text", "2) text", "**3.** text" and "Article 4: text".
var numbered = regexp.MustCompile(`(?i)^(?:article\s+)?(\d{1,3})\s*[.):](?:\*\*)?(?:\s+|$)(.*)$`)

// parseBatch maps model output onto n summaries. Numbered entries are placed
// by number and may span several lines. Without numbering, paragraphs (or
// failing that, lines) are taken in order. Gaps become Unavailable.
func parseBatch(text string, n int) []string {
	out := make([]string, n)
	parts := make([]strings.Builder, n)
	current := -1
	sawNumber := false
	var loose []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "-•* "))
		if line == "" {
			continue
		}
		if m := numbered.FindStringSubmatch(line); m != nil {
			idx, _ := strconv.Atoi(m[1])
			if idx >= 1 && idx <= n {
				sawNumber = true
				current = idx - 1
				if parts[current].Len() > 0 {
					parts[current].WriteByte(' ')
				}
				parts[current].WriteString(m[2])
				continue
			}
		}
		if current >= 0 {
			parts[current].WriteByte(' ')
			parts[current].WriteString(line)
			continue
		}
		loose = append(loose, line)
	}

	if sawNumber {
		for i := range out {
			out[i] = Normalize(parts[i].String())
		}
		return out
	}

	loose = dropPreamble(loose)
	entries := loose
	if len(loose) != n {
		if paras := dropPreamble(paragraphs(text)); len(paras) >= n {
			entries = paras
		}
	}
	for i := range out {
		if i < len(entries) {
			out[i] = Normalize(entries[i])
		} else {
			out[i] = Unavailable
		}
	}
	return out
}

// dropPreamble removes a leading "Here are the summaries:" style line.
func dropPreamble(entries []string) []string {
	if len(entries) > 1 && strings.HasSuffix(entries[0], ":") {
		return entries[1:]
	}
	return entries
}

func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(block), "-•* "))
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

// Normalize collapses whitespace and trims a summary so that it is non-empty
// and wraps to at most three 100-column lines.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return Unavailable
	}

	words := strings.Fields(s)
	if fits(words, "") {
		return s
	}
	for len(words) > 1 && !fits(words, "…") {
		words = words[:len(words)-1]
	}
	s = strings.TrimRight(strings.Join(words, " "), ".,;: ")
	if r := []rune(s); len(r) > maxSummaryRunes-1 {
		s = string(r[:maxSummaryRunes-1])
	}
	return s + "…"
}

// fits reports whether words plus suffix stay within the summary bounds.
func fits(words []string, suffix string) bool {
	t := strings.Join(words, " ") + suffix
	return utf8.RuneCountInString(t) <= maxSummaryRunes && len(Wrap(t, summaryWidth)) <= maxSummaryLines
}

// Wrap greedily wraps s at width runes. Words longer than width get a line
// of their own.
func Wrap(s string, width int) []string {
	var lines []string
	var line []rune
	for _, w := range strings.Fields(s) {
		wr := []rune(w)
		switch {
		case len(line) == 0:
			line = wr
		case len(line)+1+len(wr) <= width:
			line = append(line, ' ')
			line = append(line, wr...)
		default:
			lines = append(lines, string(line))
			line = wr
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
