package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/cache"
	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/feed"
	"github.com/khushisara1/news-digest/internal/logging"
	"github.com/khushisara1/news-digest/internal/pipeline"
	"github.com/khushisara1/news-digest/internal/store"
	"go.uber.org/zap"
)

// app bundles what every subcommand opens. Fields are nil when not requested.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	cache cache.Cache
	svc   *pipeline.Service

	closeLog func()
}

type setupOpts struct {
	// feed opens the cache and builds the fetch/summarize pipeline.
	feed bool
	// quiet keeps logs off stderr (the TUI owns the terminal).
	quiet bool
}

func setup(opts setupOpts) (*app, error) {
	if err := config.LoadEnv(""); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logFile := cfg.Log.File
	if logFile == "" && opts.quiet {
		logFile = config.LogPath()
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
	}
	log, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: logFile, Stderr: !opts.quiet})
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	a := &app{cfg: cfg, log: log, closeLog: closeLog}

	if err := os.MkdirAll(filepath.Dir(config.DataPath()), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	a.store, err = store.Open(config.DataPath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if !opts.feed {
		return a, nil
	}

	if cfg.Cache.Backend == "" || cfg.Cache.Backend == "bolt" {
		if err := os.MkdirAll(filepath.Dir(config.CachePath()), 0o755); err != nil {
			a.Close()
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	a.cache, err = cache.New(cache.Options{
		Backend:  cfg.Cache.Backend,
		Path:     config.CachePath(),
		RedisURL: cfg.RedisURL(),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	sum, err := ai.New(ai.Options{
		Provider:  cfg.AI.Provider,
		APIKey:    cfg.AIKey(),
		Model:     cfg.AI.Model,
		BaseURL:   cfg.AI.BaseURL,
		QPS:       cfg.AI.QPS,
		BatchSize: cfg.GetBatchSize(),
		Logger:    log,
	})
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			a.Close()
			return nil, err
		}
		log.Info("summaries disabled, using article excerpts", zap.Error(err))
		sum = nil
	}

	var ext *feed.Extractor
	if cfg.News.FullText {
		ext = feed.NewExtractor(log)
	}

	a.svc = &pipeline.Service{
		Provider:   newProvider(cfg),
		Summarizer: sum,
		Cache:      a.cache,
		Extractor:  ext,
		Rank: feed.RankOptions{
			Sort:          cfg.Preferences.Sort,
			Keywords:      cfg.Preferences.Keywords,
			SourceWeights: cfg.News.SourceWeights,
		},
		Logger: log,
		TTL:    cfg.CacheTTL(),
	}
	return a, nil
}

func newProvider(cfg *config.Config) feed.Provider {
	if cfg.News.Provider == "rss" {
		base := cfg.News.BaseURL
		if base == feed.DefaultNewsAPIBaseURL {
			base = ""
		}
		return feed.NewRSSProvider(base)
	}
	return feed.NewNewsAPI(feed.NewsAPIOptions{
		APIKey:   cfg.NewsAPIKey(),
		BaseURL:  cfg.News.BaseURL,
		Language: cfg.News.Language,
		QPS:      cfg.News.QPS,
	})
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}
