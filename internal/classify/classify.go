package classify

import (
	"fmt"
	"strings"
	"unicode"
)

// Topic is one of the user-selectable news interests.
type Topic string

const (
	Technology    Topic = "Technology"
	Business      Topic = "Business"
	Science       Topic = "Science"
	Health        Topic = "Health"
	Entertainment Topic = "Entertainment"
	Sports        Topic = "Sports"
	Politics      Topic = "Politics"
	World         Topic = "World"
	Finance       Topic = "Finance"
	Climate       Topic = "Climate"
)

// AllTopics returns all valid topics in canonical order.
func AllTopics() []Topic {
	return []Topic{Technology, Business, Science, Health, Entertainment, Sports, Politics, World, Finance, Climate}
}

var topicKeywords = map[Topic][]string{
	Technology: {
		"software", "app", "ai", "artificial intelligence", "chip", "semiconductor",
		"apple", "google", "microsoft", "startup", "smartphone", "cyber", "robot",
		"tech", "data", "cloud", "openai", "internet",
	},
	Business: {
		"company", "ceo", "merger", "acquisition", "earnings", "revenue", "retail",
		"industry", "layoffs", "supply chain", "profit", "sales", "corporate",
	},
	Science: {
		"research", "scientists", "study", "nasa", "space", "physics", "biology",
		"astronomy", "telescope", "discovery", "species", "genome", "quantum",
	},
	Health: {
		"health", "hospital", "vaccine", "disease", "virus", "cancer", "medical",
		"drug", "patients", "covid", "mental health", "fda", "doctors",
	},
	Entertainment: {
		"film", "movie", "music", "album", "celebrity", "tv", "series", "netflix",
		"box office", "oscar", "concert", "actor", "singer", "streaming",
	},
	Sports: {
		"match", "league", "cup", "tournament", "championship", "coach", "player",
		"football", "soccer", "nba", "nfl", "tennis", "olympic", "goal", "season",
	},
	Politics: {
		"election", "senate", "congress", "president", "parliament", "minister",
		"vote", "campaign", "policy", "governor", "democrats", "republicans", "law",
	},
	World: {
		"war", "united nations", "summit", "border", "refugees", "ceasefire",
		"embassy", "foreign", "international", "conflict", "treaty",
	},
	Finance: {
		"stocks", "market", "shares", "investors", "bank", "interest rate",
		"inflation", "fed", "bond", "crypto", "bitcoin", "dow", "nasdaq", "economy",
	},
	Climate: {
		"climate", "emissions", "carbon", "warming", "renewable", "solar", "wildfire",
		"drought", "flood", "heatwave", "environment", "fossil fuel", "net zero",
	},
}

// Aliases maps short CLI flags to topic names.
var Aliases = map[string]Topic{
	"tech":    Technology,
	"biz":     Business,
	"sci":     Science,
	"health":  Health,
	"ent":     Entertainment,
	"sports":  Sports,
	"pol":     Politics,
	"world":   World,
	"fin":     Finance,
	"climate": Climate,
}

// ResolveAlias maps a CLI alias or a full topic name to a Topic.
func ResolveAlias(alias string) (Topic, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if t, ok := Aliases[alias]; ok {
		return t, nil
	}
	for _, t := range AllTopics() {
		if strings.EqualFold(string(t), alias) {
			return t, nil
		}
	}
	valid := make([]string, 0, len(AllTopics()))
	for _, t := range AllTopics() {
		valid = append(valid, string(t))
	}
	return "", fmt.Errorf("unknown topic %q (valid: %s)", alias, strings.Join(valid, ", "))
}

// newsAPICategories are the categories the top-headlines endpoint understands.
var newsAPICategories = map[Topic]string{
	Business:      "business",
	Entertainment: "entertainment",
	Health:        "health",
	Science:       "science",
	Sports:        "sports",
	Technology:    "technology",
}

// NewsAPICategory maps a topic to the upstream headline category. Topics
// without a dedicated category fall back to "general".
func NewsAPICategory(t Topic) string {
	if c, ok := newsAPICategories[t]; ok {
		return c
	}
	return "general"
}

// Terms returns the keyword list of a topic.
func Terms(t Topic) []string {
	return topicKeywords[t]
}

// Classify determines the topic for an article based on title and description.
// Title keywords are weighted 2x. Returns World as default.
func Classify(title, description string) Topic {
	titleTokens := tokenize(title)
	descTokens := tokenize(description)
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	var best Topic
	bestScore := 0

	for _, topic := range AllTopics() {
		score := 0
		for _, kw := range topicKeywords[topic] {
			if !strings.Contains(kw, " ") {
				// Single-word keyword; exact token match so "ai" does not hit "said".
				for _, t := range titleTokens {
					if t == kw {
						score += 2
					}
				}
				for _, t := range descTokens {
					if t == kw {
						score++
					}
				}
			} else {
				if strings.Contains(titleLower, kw) {
					score += 2
				}
				if strings.Contains(descLower, kw) {
					score++
				}
			}
		}
		// Ties go to the earlier topic in canonical order.
		if score > bestScore {
			bestScore = score
			best = topic
		}
	}

	if bestScore == 0 {
		return World
	}
	return best
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
