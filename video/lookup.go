package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/network"
	"github.com/vidtune-cli/vidtune/util"
)

// Lookup asks an oEmbed endpoint for the title and duration of the video
// with the given normalized id.
func Lookup(ctx context.Context, endpoint, id string) (Video, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return Video{}, err
	}
	q := u.Query()
	q.Set("url", constant.VideoPageURL+id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Video{}, err
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return Video{}, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return Video{}, fmt.Errorf("lookup %s: unexpected status %s", id, resp.Status)
	}

	var meta struct {
		Title    string  `json:"title"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Video{}, fmt.Errorf("lookup %s: %w", id, err)
	}

	return Video{ID: id, Title: meta.Title, DurationSeconds: meta.Duration}, nil
}
