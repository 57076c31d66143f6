// Package pipeline wires fetch, summarize and cache into one request flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/cache"
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
	"go.uber.org/zap"
)

const DefaultTTL = 10 * time.Minute

// Service runs the fetch and summarize steps, consulting Cache before each
// external call. Summarizer, Cache and Extractor are optional.
type Service struct {
	Provider   feed.Provider
	Summarizer ai.Summarizer
	Cache      cache.Cache
	Extractor  *feed.Extractor
	Rank       feed.RankOptions
	Logger     *zap.Logger
	TTL        time.Duration
}

// Feed is a built feed plus the non-fatal problems met while building it.
type Feed struct {
	Entries  []digest.Entry
	Warnings []error
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

// Fetch returns ranked articles for q, from cache when a fresh entry exists.
func (s *Service) Fetch(ctx context.Context, q feed.Query) (feed.Result, error) {
	if s.Provider == nil {
		return feed.Result{}, errors.New("no news provider configured")
	}
	key := cache.Key("feed", s.Provider.Name(), q.Key())

	var articles []feed.Article
	if s.Cache != nil {
		ok, err := cache.GetJSON(ctx, s.Cache, key, &articles)
		if err != nil {
			s.log().Warn("cache read failed", zap.Error(err))
		}
		if ok {
			s.log().Debug("feed cache hit", zap.String("query", q.Key()), zap.Int("articles", len(articles)))
			feed.Rank(articles, s.Rank)
			return feed.Result{Articles: articles}, nil
		}
	}

	res, err := feed.Fetch(ctx, s.Provider, q)
	if err != nil {
		return res, err
	}
	for _, e := range res.Errors {
		s.log().Warn("partial fetch failure", zap.Error(e))
	}
	s.log().Info("fetched articles",
		zap.String("provider", s.Provider.Name()),
		zap.String("query", q.Key()),
		zap.Int("articles", len(res.Articles)))

	// Partial results are not cached so a retry can fill the gaps.
	if s.Cache != nil && len(res.Errors) == 0 {
		if err := cache.SetJSON(ctx, s.Cache, key, res.Articles, s.ttl()); err != nil {
			s.log().Warn("cache write failed", zap.Error(err))
		}
	}
	feed.Rank(res.Articles, s.Rank)
	return res, nil
}

func summaryKey(articleID string) string {
	return cache.Key("summary", articleID)
}

// Fallback is the summary shown when no generated summary exists.
func Fallback(a feed.Article) string {
	return ai.Normalize(digest.DescriptionExcerpt(a.Description))
}

// Summarize returns one summary per article in order. Cached summaries are
// reused and only the misses are sent to the summarizer. When summarizing
// fails the misses fall back to a description excerpt and the error is
// returned with the full result.
func (s *Service) Summarize(ctx context.Context, articles []feed.Article) ([]string, error) {
	out := make([]string, len(articles))
	var missing []int

	for i, a := range articles {
		if s.Cache != nil {
			var cached string
			ok, err := cache.GetJSON(ctx, s.Cache, summaryKey(a.ID), &cached)
			if err != nil {
				s.log().Warn("cache read failed", zap.Error(err))
			}
			if ok && cached != "" {
				out[i] = cached
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	if s.Summarizer == nil {
		for _, i := range missing {
			out[i] = Fallback(articles[i])
		}
		return out, nil
	}

	pending := make([]feed.Article, len(missing))
	for j, i := range missing {
		pending[j] = articles[i]
	}
	if s.Extractor != nil {
		pending = s.Extractor.Enrich(ctx, pending)
	}

	inputs := make([]ai.Input, len(pending))
	for j, a := range pending {
		inputs[j] = ai.Input{Title: a.Title, Description: a.Description, Content: a.Content, URL: a.URL}
	}

	summaries, err := s.Summarizer.Summarize(ctx, inputs)
	if err != nil {
		for _, i := range missing {
			out[i] = Fallback(articles[i])
		}
		return out, err
	}

	for j, i := range missing {
		text := ai.Unavailable
		if j < len(summaries) {
			text = ai.Normalize(summaries[j])
		}
		out[i] = text
		if text == ai.Unavailable || s.Cache == nil {
			continue
		}
		if err := cache.SetJSON(ctx, s.Cache, summaryKey(articles[i].ID), text, s.ttl()); err != nil {
			s.log().Warn("cache write failed", zap.Error(err))
		}
	}
	s.log().Info("summarized articles", zap.Int("requested", len(missing)), zap.Int("cached", len(articles)-len(missing)))
	return out, nil
}

// Category is the label saved items get for a query.
func Category(q feed.Query) string {
	var topics []string
	for _, t := range q.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return "General"
	}
	return strings.Join(topics, ", ")
}

// Build fetches and summarizes q into feed entries.
func (s *Service) Build(ctx context.Context, q feed.Query) (Feed, error) {
	res, err := s.Fetch(ctx, q)
	if err != nil {
		return Feed{}, err
	}

	f := Feed{Warnings: res.Errors}
	summaries, err := s.Summarize(ctx, res.Articles)
	if err != nil {
		s.log().Warn("summarize failed, using excerpts", zap.Error(err))
		f.Warnings = append(f.Warnings, fmt.Errorf("summarizing: %w", err))
	}

	category := Category(q)
	f.Entries = make([]digest.Entry, len(res.Articles))
	for i, a := range res.Articles {
		f.Entries[i] = digest.Entry{Article: a, Summary: summaries[i], Category: category}
	}
	return f, nil
}

// Brief returns a one-line overview of titles, or "" without a summarizer.
func (s *Service) Brief(ctx context.Context, titles []string) string {
	if s.Summarizer == nil || len(titles) == 0 {
		return ""
	}
	brief, err := s.Summarizer.Brief(ctx, titles)
	if err != nil {
		s.log().Warn("brief failed", zap.Error(err))
		return ""
	}
	return brief
}

// ClearCache drops every cached feed and summary.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	if err := s.Cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	s.log().Info("cache cleared")
	return nil
}
