package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/classify"
	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
	"github.com/khushisara1/news-digest/internal/store"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	c.JSON(status, errorResponse{Error: msg})
}

// storeStatus maps store errors to HTTP statuses.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidRating):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	if _, err := s.store.Categories(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

// parseQuery reads feed preferences from query params over the defaults.
func (s *Server) parseQuery(c *gin.Context) (feed.Query, error) {
	p := s.defaults
	p.Topics = append([]string(nil), s.defaults.Topics...)

	if raw, ok := c.GetQuery("topics"); ok {
		p.Topics = nil
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			topic, err := classify.ResolveAlias(t)
			if err != nil {
				return feed.Query{}, err
			}
			p.Topics = append(p.Topics, string(topic))
		}
	}
	if v := c.Query("region"); v != "" {
		p.Region = strings.ToLower(v)
	}
	if v, ok := c.GetQuery("keywords"); ok {
		p.Keywords = strings.TrimSpace(v)
	}
	if v := c.Query("frequency"); v != "" {
		p.Frequency = strings.ToLower(v)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return feed.Query{}, errors.New("limit must be an integer")
		}
		p.Limit = n
	}
	if err := config.ValidatePreferences(p); err != nil {
		return feed.Query{}, err
	}
	return feed.Query{
		Topics:        p.Topics,
		Region:        p.Region,
		Keywords:      p.Keywords,
		Limit:         p.Limit,
		Frequency:     p.Frequency,
		TopicPageSize: s.pageSize,
	}, nil
}

type feedResponse struct {
	Entries  []digest.Entry `json:"entries"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *Server) getFeed(c *gin.Context) {
	q, err := s.parseQuery(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid query", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	f, err := s.feed.Build(ctx, q)
	if err != nil {
		var apiErr *feed.APIError
		switch {
		case errors.Is(err, feed.ErrMissingAPIKey):
			s.fail(c, http.StatusServiceUnavailable, err.Error(), err)
		case errors.As(err, &apiErr) && apiErr.RateLimited():
			s.fail(c, http.StatusTooManyRequests, err.Error(), err)
		default:
			s.fail(c, http.StatusBadGateway, "fetching feed failed", err)
		}
		return
	}

	res := feedResponse{Entries: f.Entries}
	if res.Entries == nil {
		res.Entries = []digest.Entry{}
	}
	for _, w := range f.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listSaved(c *gin.Context) {
	opts := store.ListOpts{Category: c.Query("category"), Search: c.Query("q")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(c, http.StatusBadRequest, "", errors.New("limit must be a non-negative integer"))
			return
		}
		opts.Limit = n
	}
	items, err := s.store.ListItems(opts)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	if items == nil {
		items = []digest.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// saveRequest accepts a feed entry as returned by GET /api/feed.
type saveRequest struct {
	Article  feed.Article `json:"article"`
	Summary  string       `json:"summary"`
	Category string       `json:"category"`
	Rating   int          `json:"rating"`
}

func (s *Server) saveItem(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "", err)
		return
	}
	if strings.TrimSpace(req.Article.URL) == "" || strings.TrimSpace(req.Article.Title) == "" {
		s.fail(c, http.StatusBadRequest, "", errors.New("article title and url are required"))
		return
	}
	summary := ai.Normalize(req.Summary)
	if strings.TrimSpace(req.Summary) == "" {
		summary = ai.Normalize(digest.DescriptionExcerpt(req.Article.Description))
	}

	it := digest.ItemFromArticle(req.Article, summary, req.Category, req.Rating)
	id, err := s.store.SaveItem(it)
	if err != nil {
		s.fail(c, storeStatus(err), "saving item failed", err)
		return
	}
	saved, err := s.store.GetItem(id)
	if err != nil {
		s.fail(c, storeStatus(err), "loading saved item failed", err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) getSaved(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	it, err := s.store.GetItem(id)
	if err != nil {
		s.fail(c, storeStatus(err), "Database error", err)
		return
	}
	c.JSON(http.StatusOK, it)
}

type ratingRequest struct {
	Rating *int `json:"rating"`
}

func (s *Server) rateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating == nil {
		s.fail(c, http.StatusBadRequest, "", store.ErrInvalidRating)
		return
	}
	if err := s.store.UpdateRating(id, *req.Rating); err != nil {
		s.fail(c, storeStatus(err), "updating rating failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rating": *req.Rating})
}

func (s *Server) deleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteItem(id); err != nil {
		s.fail(c, storeStatus(err), "deleting item failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) categories(c *gin.Context) {
	cats, err := s.store.Categories()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	c.JSON(http.StatusOK, cats)
}

type digestRequest struct {
	Name    string  `json:"name"`
	ItemIDs []int64 `json:"item_ids"`
	// Category and Search select saved items when ItemIDs is empty.
	Category string `json:"category"`
	Search   string `json:"q"`
}

func (s *Server) createDigest(c *gin.Context) {
	var req digestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "", err)
		return
	}

	ids := req.ItemIDs
	if len(ids) == 0 {
		items, err := s.store.ListItems(store.ListOpts{Category: req.Category, Search: req.Search})
		if err != nil {
			s.fail(c, http.StatusInternalServerError, "Database error", err)
			return
		}
		for _, it := range items {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) == 0 {
		s.fail(c, http.StatusBadRequest, "", errors.New("no saved items to put in the digest"))
		return
	}

	for _, id := range ids {
		if _, err := s.store.GetItem(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.fail(c, http.StatusBadRequest, "", errors.New("unknown item id "+strconv.FormatInt(id, 10)))
				return
			}
			s.fail(c, http.StatusInternalServerError, "Database error", err)
			return
		}
	}

	query, _ := json.Marshal(map[string]string{"category": req.Category, "q": req.Search})
	d, err := s.store.CreateDigest(req.Name, string(query), ids)
	if err != nil {
		s.fail(c, storeStatus(err), "creating digest failed", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) listDigests(c *gin.Context) {
	list, err := s.store.ListDigests()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	if list == nil {
		list = []store.DigestSummary{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getDigest(c *gin.Context) {
	d, err := s.store.GetDigest(c.Param("id"))
	if err != nil {
		s.fail(c, storeStatus(err), "Database error", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) exportDigest(c *gin.Context) {
	f, err := digest.FormatterFor(c.DefaultQuery("format", "md"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, "", err)
		return
	}
	d, err := s.store.GetDigest(c.Param("id"))
	if err != nil {
		s.fail(c, storeStatus(err), "Database error", err)
		return
	}

	titles := make([]string, len(d.Items))
	for i, it := range d.Items {
		titles[i] = it.Title
	}
	meta := digest.Generate(&d, digest.GenerateOpts{})
	meta.Brief = s.feed.Brief(c.Request.Context(), titles)

	var buf bytes.Buffer
	if err := f.Format(&buf, &d); err != nil {
		s.fail(c, http.StatusInternalServerError, "export failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+digest.Filename(&d, f)+`"`)
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func (s *Server) deleteDigest(c *gin.Context) {
	if err := s.store.DeleteDigest(c.Param("id")); err != nil {
		s.fail(c, storeStatus(err), "deleting digest failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.store.Stats()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) clearCache(c *gin.Context) {
	if err := s.feed.ClearCache(c.Request.Context()); err != nil {
		s.fail(c, http.StatusInternalServerError, "clearing cache failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
