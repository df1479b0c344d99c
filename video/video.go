// Package video models the catalog entries a playback session is started from.
package video

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vidtune-cli/vidtune/constant"
)

// Video is what the catalog hands over to start a session.
type Video struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

func (v Video) String() string {
	if v.Title == "" {
		return v.ID
	}
	return fmt.Sprintf("%s (%s)", v.Title, v.ID)
}

// NormalizeID strips every non-digit rune from raw.
// The result is rejected when it keeps fewer than constant.MinVideoIDDigits digits.
func NormalizeID(raw string) (string, bool) {
	id := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(id) < constant.MinVideoIDDigits {
		return id, false
	}
	return id, true
}

// Parse builds a Video from a command line argument.
// Accepted forms are a bare identifier, a player or page URL and "id:title".
func Parse(arg string) Video {
	arg = strings.TrimSpace(arg)

	if !strings.Contains(arg, "://") {
		if id, title, ok := strings.Cut(arg, ":"); ok {
			return Video{ID: id, Title: strings.TrimSpace(title)}
		}
		return Video{ID: arg}
	}

	// keep only the path segment that looks like an identifier so query
	// parameters such as ?h=abc123 do not leak digits into the id
	path := arg
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.TrimRight(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" && strings.IndexFunc(segments[i], func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
			return Video{ID: segments[i]}
		}
	}
	return Video{ID: arg}
}
