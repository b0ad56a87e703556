// Package update checks GitHub releases for a newer contentdna build.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const releaseURL = "https://api.github.com/repos/EslamH-coder/ContentDNA-sub003/releases/latest"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
}

// Check reports whether a newer release is available. Any failure along
// the way returns nil; the check must never block or break the CLI.
func Check(ctx context.Context, currentVersion string) *Result {
	latest, ok := latestTag(ctx)
	if !ok {
		return nil
	}

	latest = strings.TrimPrefix(latest, "v")
	current := strings.TrimPrefix(currentVersion, "v")
	if latest == "" || latest == current {
		return nil
	}
	return &Result{LatestVersion: latest}
}

func latestTag(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", false
	}
	return release.TagName, true
}
