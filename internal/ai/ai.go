package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no generative API key is available.
var ErrNotConfigured = errors.New("AI not configured (set GEMINI_API_KEY or ai.api_key)")

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Input is the article text sent for summarization.
type Input struct {
	Title       string
	Description string
	Content     string
	URL         string
}

// Summarizer generates short summaries for articles.
type Summarizer interface {
	// Summarize returns one summary per input, in input order.
	Summarize(ctx context.Context, inputs []Input) ([]string, error)
	// Brief returns a one-sentence overview of a set of headlines.
	Brief(ctx context.Context, titles []string) (string, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	QPS       float64
	BatchSize int
	Logger    *zap.Logger
}

// completer sends one prompt and returns the raw model text.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// New creates a Summarizer for opts.Provider.
func New(opts Options) (Summarizer, error) {
	if opts.APIKey == "" {
		return nil, ErrNotConfigured
	}

	var c completer
	switch opts.Provider {
	case "", "gemini":
		model := opts.Model
		if model == "" {
			model = "gemini-1.5-flash"
		}
		base := opts.BaseURL
		if base == "" {
			base = GeminiBaseURL
		}
		c = newOpenAICompleter(opts.APIKey, base, model)
	case "openai":
		model := opts.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		c = newOpenAICompleter(opts.APIKey, opts.BaseURL, model)
	case "claude":
		model := opts.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		c = newClaudeCompleter(opts.APIKey, opts.BaseURL, model)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: gemini, openai, claude)", opts.Provider)
	}
	return newLLMSummarizer(c, opts), nil
}

type llmSummarizer struct {
	c         completer
	batchSize int
	limiter   *rate.Limiter
	log       *zap.Logger
}

func newLLMSummarizer(c completer, opts Options) *llmSummarizer {
	batch := opts.BatchSize
	if batch <= 0 || batch > MaxBatchSize {
		batch = MaxBatchSize
	}
	limit := rate.Inf
	if opts.QPS > 0 {
		limit = rate.Limit(opts.QPS)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &llmSummarizer{c: c, batchSize: batch, limiter: rate.NewLimiter(limit, 1), log: log}
}

func (s *llmSummarizer) Summarize(ctx context.Context, inputs []Input) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for start := 0; start < len(inputs); start += s.batchSize {
		end := min(start+s.batchSize, len(inputs))
		batch := inputs[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		text, err := s.c.complete(ctx, summarySystemPrompt, formatBatch(batch))
		if err != nil {
			return nil, fmt.Errorf("summarizing articles %d-%d: %w", start+1, end, err)
		}
		parsed := parseBatch(text, len(batch))
		s.log.Debug("summarized batch", zap.Int("size", len(batch)), zap.Int("missing", countUnavailable(parsed)))
		out = append(out, parsed...)
	}
	return out, nil
}

func (s *llmSummarizer) Brief(ctx context.Context, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(briefPrompt, len(titles), strings.Join(titles, "\n"))
	text, err := s.c.complete(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("briefing: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func countUnavailable(summaries []string) int {
	n := 0
	for _, s := range summaries {
		if s == Unavailable {
			n++
		}
	}
	return n
}
