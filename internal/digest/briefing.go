package digest

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
)

// Meta is the presentation data computed for a digest.
type Meta struct {
	DateLabel  string
	Greeting   string
	Sources    string
	Trending   []string
	Categories []string
	// ReadingTimes is the estimated minutes per item, aligned with Items.
	ReadingTimes []int
	TotalMinutes int
	// Brief is an optional one-line overview written by the summarizer.
	Brief string
}

// GenerateOpts holds options for the Generate function.
type GenerateOpts struct {
	Now time.Time
	// Corpus is the set of titles used for document frequency when picking
	// trending terms. Empty means the digest's own titles.
	Corpus []string
}

// Generate fills d.Meta with a greeting, trending terms and reading times.
func Generate(d *Digest, opts GenerateOpts) *Meta {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	m := &Meta{
		DateLabel: now.Format("Mon, Jan 2"),
		Greeting:  greeting(now),
	}

	titles := make([]string, len(d.Items))
	seenCat := map[string]bool{}
	for i, it := range d.Items {
		titles[i] = it.Title
		mins := estimateReadTime(it.Description + " " + it.Summary)
		m.ReadingTimes = append(m.ReadingTimes, mins)
		m.TotalMinutes += mins
		if it.Category != "" && !seenCat[it.Category] {
			seenCat[it.Category] = true
			m.Categories = append(m.Categories, it.Category)
		}
	}
	if len(d.Items) > 0 {
		m.Sources = activeSources(d.Items)
		corpus := opts.Corpus
		if len(corpus) == 0 {
			corpus = titles
		}
		m.Trending = trending(titles, corpus)
	}
	d.Meta = m
	return m
}

const (
	wordsPerMinute = 200
	// Descriptions and summaries are roughly a third of the full story.
	fullTextFactor = 3
)

func estimateReadTime(text string) int {
	return max(1, len(strings.Fields(text))*fullTextFactor/wordsPerMinute)
}

type tally struct {
	key   string
	count int
}

func byCountDesc(a, b tally) int {
	if c := cmp.Compare(b.count, a.count); c != 0 {
		return c
	}
	return strings.Compare(a.key, b.key)
}

// activeSources lists the three busiest sources as "Name (n)".
func activeSources(items []Item) string {
	counts := map[string]int{}
	for _, it := range items {
		if it.Source != "" {
			counts[it.Source]++
		}
	}
	ranked := make([]tally, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, tally{name, n})
	}
	slices.SortFunc(ranked, byCountDesc)

	var parts []string
	for _, t := range ranked[:min(3, len(ranked))] {
		parts = append(parts, fmt.Sprintf("%s (%d)", t.key, t.count))
	}
	return strings.Join(parts, ", ")
}

func greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	}
	return "Good evening"
}

// trending picks up to three terms repeated across titles, weighted by how
// rare they are in corpus.
func trending(titles []string, corpus []string) []string {
	docs := map[string]int{}
	for _, title := range corpus {
		for _, w := range unique(tokenize(title)) {
			docs[w]++
		}
	}
	freq := map[string]int{}
	for _, title := range titles {
		for _, w := range tokenize(title) {
			freq[w]++
		}
	}

	n := float64(max(1, len(corpus)))
	type weighted struct {
		term  string
		score float64
	}
	var ranked []weighted
	for term, f := range freq {
		if f < 2 {
			continue
		}
		// +1 keeps terms present in every title above zero.
		idf := math.Log(n/float64(max(1, docs[term]))) + 1
		ranked = append(ranked, weighted{term, float64(f) * idf})
	}
	slices.SortFunc(ranked, func(a, b weighted) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.term, b.term)
	})

	out := make([]string, 0, 3)
	for _, w := range ranked[:min(3, len(ranked))] {
		out = append(out, w.term)
	}
	return out
}

func unique(words []string) []string {
	slices.Sort(words)
	return slices.Compact(words)
}

// Words under four letters are dropped by tokenize, so only longer ones are listed.
var stopWords = wordSet(`
	about above after amid been before being between both could does down each
	every first from have into just many more most much might other over said
	says should some such than that their them then there these they this those
	under used using very were what when where which while will with would year
	years your week today`)

func wordSet(list string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(list) {
		set[w] = true
	}
	return set
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) >= 4 && !stopWords[word] {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
