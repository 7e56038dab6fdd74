// Package update checks GitHub releases for a newer build.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pauvepe/whispervoice/internal/appinfo"
)

const defaultAPIBase = "https://api.github.com"

// ErrNoRelease indicates the release has no usable version tag.
var ErrNoRelease = errors.New("update: no usable release")

// Release is the subset of the GitHub release payload the checker needs.
type Release struct {
	Tag         string
	Version     int
	DownloadURL string
}

// Checker queries the latest release of a GitHub repository.
type Checker struct {
	// Repo is "owner/name".
	Repo       string
	APIBase    string
	HTTPClient *http.Client
	log        *slog.Logger
}

// NewChecker returns a Checker for repo using a 10 second timeout.
func NewChecker(repo string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		Repo:       repo,
		APIBase:    defaultAPIBase,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("component", "update.Checker", "repo", repo),
	}
}

type releasePayload struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Latest fetches the latest release. Tags are expected as "v<integer>".
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	url := strings.TrimRight(c.APIBase, "/") + "/repos/" + c.Repo + "/releases/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Release{}, fmt.Errorf("update: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", appinfo.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("update: fetch latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("update: fetch latest release: unexpected status %s", resp.Status)
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Release{}, fmt.Errorf("update: decode release: %w", err)
	}

	version, err := ParseVersion(payload.TagName)
	if err != nil {
		return Release{}, err
	}
	release := Release{Tag: payload.TagName, Version: version}
	if len(payload.Assets) > 0 {
		release.DownloadURL = payload.Assets[0].BrowserDownloadURL
	}
	return release, nil
}

// Check reports the latest release and whether it is newer than current.
func (c *Checker) Check(ctx context.Context, current int) (Release, bool, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return Release{}, false, err
	}
	newer := release.Version > current && release.DownloadURL != ""
	c.log.Info("update check",
		"current", current,
		"latest", release.Version,
		"newer", newer,
	)
	return release, newer, nil
}

// ParseVersion turns "v5" or "5" into 5.
func ParseVersion(tag string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: tag %q", ErrNoRelease, tag)
	}
	return n, nil
}
