// Package update checks GitHub for a newer release.
package update

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const repo = "khushisara1/news-digest"

// BaseURL is the GitHub API root.
var BaseURL = "https://api.github.com"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
	URL           string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check queries the GitHub Releases API to see if a newer version is available.
// Returns nil on any error (non-fatal).
func Check(ctx context.Context, currentVersion string) *Result {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var release ghRelease
	resp, err := resty.New().R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json").
		SetResult(&release).
		Get(BaseURL + "/repos/" + repo + "/releases/latest")
	if err != nil || !resp.IsSuccess() {
		return nil
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(currentVersion, "v")

	if latest == "" || latest == current {
		return nil
	}

	return &Result{LatestVersion: latest, URL: release.HTMLURL}
}
