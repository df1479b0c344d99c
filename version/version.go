// Package version checks whether a newer release than the running binary
// has been published.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/vidtune-cli/vidtune/filesystem"
	"github.com/vidtune-cli/vidtune/network"
	"github.com/vidtune-cli/vidtune/util"
	"github.com/vidtune-cli/vidtune/where"
)

// ReleasesURL is the endpoint describing the most recent release.
var ReleasesURL = "https://api.github.com/repos/vidtune-cli/vidtune/releases/latest"

var latestCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the version of the most recent release, without the leading "v".
// Answers are cached for two days.
func Latest(ctx context.Context) (string, error) {
	cached, expired, err := latestCacher.Get()
	if err == nil && !expired && cached != "" {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := network.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases: unexpected status %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" {
		return "", errors.New("releases: empty tag name")
	}

	_ = latestCacher.Set(latest)
	return latest, nil
}
