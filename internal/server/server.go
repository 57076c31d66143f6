// Package server exposes the digest pipeline and saved items over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
	"github.com/khushisara1/news-digest/internal/pipeline"
	"github.com/khushisara1/news-digest/internal/store"
	"go.uber.org/zap"
)

// ItemStore is the persistence the handlers need.
type ItemStore interface {
	SaveItem(it digest.Item) (int64, error)
	GetItem(id int64) (digest.Item, error)
	ListItems(opts store.ListOpts) ([]digest.Item, error)
	Categories() ([]string, error)
	UpdateRating(id int64, rating int) error
	DeleteItem(id int64) error
	CreateDigest(name, query string, itemIDs []int64) (digest.Digest, error)
	GetDigest(id string) (digest.Digest, error)
	ListDigests() ([]store.DigestSummary, error)
	DeleteDigest(id string) error
	Stats() (store.Stats, error)
}

// FeedBuilder builds summarized feeds.
type FeedBuilder interface {
	Build(ctx context.Context, q feed.Query) (pipeline.Feed, error)
	Brief(ctx context.Context, titles []string) string
	ClearCache(ctx context.Context) error
}

type Options struct {
	Store    ItemStore
	Feed     FeedBuilder
	Defaults config.Preferences
	// TopicPageSize caps each per-topic upstream request.
	TopicPageSize int
	Logger        *zap.Logger
	// AllowOrigins lists CORS origins. Empty allows localhost dev servers.
	AllowOrigins []string
	// FetchTimeout bounds one feed build. Zero means 60s.
	FetchTimeout time.Duration
}

type Server struct {
	store    ItemStore
	feed     FeedBuilder
	defaults config.Preferences
	pageSize int
	log      *zap.Logger
	timeout  time.Duration
	router   *gin.Engine
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s := &Server{
		store:    opts.Store,
		feed:     opts.Feed,
		defaults: opts.Defaults,
		pageSize: opts.TopicPageSize,
		log:      log,
		timeout:  timeout,
	}

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/feed", s.getFeed)
	api.GET("/saved", s.listSaved)
	api.POST("/saved", s.saveItem)
	api.GET("/saved/:id", s.getSaved)
	api.PATCH("/saved/:id/rating", s.rateItem)
	api.DELETE("/saved/:id", s.deleteItem)
	api.GET("/categories", s.categories)
	api.GET("/digests", s.listDigests)
	api.POST("/digests", s.createDigest)
	api.GET("/digests/:id", s.getDigest)
	api.GET("/digests/:id/export", s.exportDigest)
	api.DELETE("/digests/:id", s.deleteDigest)
	api.GET("/stats", s.stats)
	api.DELETE("/cache", s.clearCache)

	s.router = r
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
