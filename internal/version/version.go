// Package version holds the build version and implements the update check
// against a release endpoint.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Current is the build version, overridable at link time via
// -ldflags "-X github.com/example/stockwatch/internal/version.Current=v1.2.3".
var Current = "v0.1.0"

// Release is the subset of a release document the update check needs.
// Any endpoint returning {"tag_name": "vX.Y.Z"} works.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker queries a release endpoint for the latest published version.
type Checker struct {
	url        string
	httpClient *http.Client
}

// NewChecker constructs a Checker for the given release endpoint.
func NewChecker(url string, timeout time.Duration) *Checker {
	return &Checker{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Latest fetches the most recent release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading release response: %w", err)
	}
	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, fmt.Errorf("parsing release response: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release response has no tag_name")
	}
	return &rel, nil
}

// UpdateAvailable reports whether the release is newer than the running
// build.
func (c *Checker) UpdateAvailable(ctx context.Context) (*Release, bool, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		return nil, false, err
	}
	return rel, Compare(rel.TagName, Current) > 0, nil
}

// Compare orders two version strings like "v1.2.3". The leading "v" and any
// pre-release suffix after "-" are ignored; missing components count as zero.
// Returns -1, 0 or 1.
func Compare(a, b string) int {
	pa, pb := parts(a), parts(b)
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parts(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexByte(v, '-'); i >= 0 {
		v = v[:i]
	}
	var out [3]int
	for i, s := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(s)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}
