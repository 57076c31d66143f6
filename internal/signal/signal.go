// Package signal scores news articles for the relevance sort.
package signal

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// SourceWeights maps source names to their weight (0.0–1.0).
type SourceWeights map[string]float64

// Input holds the data needed to score an article.
type Input struct {
	Title       string
	Description string
	Source      string
	Published   time.Time
	// Terms are the user's keywords and the terms of the selected topics.
	Terms []string
}

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Recency        float64
	SourceWeight   float64
	Depth          float64
	KeywordDensity float64
	Final          float64
}

const (
	weightRecency  = 0.35
	weightSource   = 0.20
	weightDepth    = 0.15
	weightKeywords = 0.30

	halfLife      = 24 * time.Hour
	defaultSource = 0.5
)

// Score computes a relevance score (0.0–10.0) for an article.
func Score(input Input, weights SourceWeights) float64 {
	return ScoreWithBreakdown(input, weights).Final
}

// ScoreWithBreakdown computes a relevance score with component details.
func ScoreWithBreakdown(in Input, weights SourceWeights) Breakdown {
	b := Breakdown{
		Recency:        recencyScore(in.Published),
		SourceWeight:   sourceScore(in.Source, weights),
		Depth:          depthScore(in.Description),
		KeywordDensity: keywordScore(in.Title, in.Description, in.Terms),
	}
	sum := weightRecency*b.Recency + weightSource*b.SourceWeight +
		weightDepth*b.Depth + weightKeywords*b.KeywordDensity
	b.Final = math.Round(sum*100) / 10
	return b
}

// SplitKeywords breaks a free-text keyword query into lower-case terms.
// Quoted phrases stay together and boolean operators are dropped.
func SplitKeywords(q string) []string {
	var terms []string
	for i, chunk := range strings.Split(q, `"`) {
		chunk = strings.ToLower(strings.TrimSpace(chunk))
		switch {
		case chunk == "":
		case i%2 == 1:
			terms = append(terms, chunk)
		default:
			for _, w := range tokenize(chunk) {
				if !operators[w] {
					terms = append(terms, w)
				}
			}
		}
	}
	return terms
}

var operators = map[string]bool{"and": true, "or": true, "not": true}

// recencyScore halves every halfLife. Undated articles score zero.
func recencyScore(published time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := max(0, time.Since(published))
	return math.Pow(0.5, float64(age)/float64(halfLife))
}

func sourceScore(source string, weights SourceWeights) float64 {
	if w, ok := weights[source]; ok {
		return w
	}
	return defaultSource
}

// depthBands are checked in order; news snippets run far shorter than full stories.
var depthBands = []struct {
	minWords int
	score    float64
}{
	{60, 1.0},
	{25, 0.6},
	{0, 0.2},
}

func depthScore(description string) float64 {
	n := len(strings.Fields(description))
	for _, band := range depthBands {
		if n >= band.minWords {
			return band.score
		}
	}
	return 0
}

// keywordScore is the share of words matching terms, scaled so 10% density
// saturates at 1.0. Title matches count twice.
func keywordScore(title, description string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	words := tokenize(title + " " + description)
	if len(words) == 0 {
		return 0
	}
	body, head := padded(words), padded(tokenize(title))

	hits := 0
	for _, term := range terms {
		toks := tokenize(term)
		if len(toks) == 0 {
			continue
		}
		needle := padded(toks)
		hits += strings.Count(body, needle) + strings.Count(head, needle)
	}
	return math.Min(1, 10*float64(hits)/float64(len(words)))
}

// padded joins words with single spaces and surrounds them with spaces so
// substring counts only match whole words.
func padded(words []string) string {
	return " " + strings.Join(words, " ") + " "
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
