// Package update compares the running oai build with the latest GitHub
// release.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/salmonumbrella/openai-cli/internal/cache"
)

const (
	// ReleasesURL is the GitHub API endpoint for the latest release.
	ReleasesURL = "https://api.github.com/repos/salmonumbrella/openai-cli/releases/latest"
	// CheckTimeout bounds one release lookup.
	CheckTimeout = 5 * time.Second
	// CacheTTL is how long a looked-up release is reused.
	CacheTTL = 24 * time.Hour
)

// Release is the subset of the GitHub release payload the check reads.
type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
}

// Result describes how the running build relates to the latest release.
type Result struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateURL       string `json:"update_url,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

// Checker looks up the latest release. Store is optional; when set, a
// release found within its TTL is reused instead of calling GitHub.
type Checker struct {
	URL    string
	Client *http.Client
	Store  cache.Store
}

// NewChecker returns a checker for the public releases endpoint.
func NewChecker(store cache.Store) *Checker {
	return &Checker{URL: ReleasesURL, Client: http.DefaultClient, Store: store}
}

// Check reports whether a newer stable release exists. Development builds
// are never checked and return nil, nil.
func (c *Checker) Check(ctx context.Context, current string) (*Result, error) {
	if current == "" || current == "dev" {
		return nil, nil
	}
	release, err := c.latest(ctx)
	if err != nil {
		return nil, err
	}
	return compare(current, release), nil
}

// CheckQuietly is Check with failures logged at debug level; the version
// command never fails because GitHub is unreachable.
func (c *Checker) CheckQuietly(ctx context.Context, current string) *Result {
	result, err := c.Check(ctx, current)
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return nil
	}
	return result
}

func (c *Checker) latest(ctx context.Context) (*Release, error) {
	var cached Release
	if c.Store != nil && c.Store.Get(ctx, &cached) && cached.TagName != "" {
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup: unexpected status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}
	if c.Store != nil {
		c.Store.Put(ctx, release)
	}
	return &release, nil
}

// compare treats prereleases as never newer than a stable build.
func compare(current string, release *Release) *Result {
	result := &Result{
		CurrentVersion: current,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	cur, latest := canonical(current), canonical(release.TagName)
	if !semver.IsValid(cur) || !semver.IsValid(latest) {
		return result
	}
	if release.Prerelease || semver.Prerelease(latest) != "" {
		return result
	}
	result.UpdateAvailable = semver.Compare(latest, cur) > 0
	return result
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
