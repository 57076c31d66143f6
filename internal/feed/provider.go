package feed

import (
	"context"
	"time"
)

// Request is a single upstream call. Keywords set means a search; otherwise
// it asks for headlines in Category for Region.
type Request struct {
	Keywords string
	Category string
	Topic    string
	Region   string
	PageSize int
	From     time.Time
}

// IsSearch reports whether the request is a keyword search.
func (r Request) IsSearch() bool {
	return r.Keywords != ""
}

// Provider fetches articles from one news backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]Article, error)
}
