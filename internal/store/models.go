package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRating = errors.New("rating must be an integer from 0 to 5")
)

type ListOpts struct {
	Category string
	// Search matches title, source and summary, case-insensitively.
	Search string
	Limit  int
}

// Stats summarizes the store contents.
type Stats struct {
	SavedItems int            `json:"saved_items"`
	Rated      int            `json:"rated"`
	AvgRating  float64        `json:"avg_rating"`
	Digests    int            `json:"digests"`
	Categories map[string]int `json:"categories"`
	SizeBytes  int64          `json:"size_bytes"`
	LastFetch  time.Time      `json:"last_fetch"`
}
