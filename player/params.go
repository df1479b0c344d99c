package player

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// qualityHeights maps embed quality names to a vertical resolution cap.
var qualityHeights = map[string]int{
	"360p":  360,
	"540p":  540,
	"720p":  720,
	"1080p": 1080,
	"2k":    1440,
	"4k":    2160,
}

// Qualities returns the accepted quality names.
func Qualities() []string {
	return []string{"auto", "360p", "540p", "720p", "1080p", "2k", "4k"}
}

// embedURL builds the load target of videoID.
func embedURL(baseURL, videoID string, p LoadParams) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("empty base url")
	}

	query := url.Values{}
	query.Set("autoplay", boolFlag(p.Autoplay))
	query.Set("muted", boolFlag(p.Muted))
	if p.Quality != "" && p.Quality != "auto" {
		query.Set("quality", p.Quality)
	}
	if p.HideBranding {
		query.Set("title", "0")
		query.Set("byline", "0")
		query.Set("portrait", "0")
	}

	target := strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(videoID) + "?" + query.Encode()
	if p.StartOffset >= 1 {
		target += fmt.Sprintf("#t=%ds", int(p.StartOffset))
	}

	return sanitizeMediaTarget(target)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// mpvArgs assembles the command line hosting one context.
func mpvArgs(socketPath, target, title, token string, p LoadParams) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socketPath,
		"--force-window=yes",
		"--idle=yes",
		// stay on the last frame so the end is reported through eof-reached
		"--keep-open=yes",
	}

	if t := sanitizeTitle(title); t != "" {
		args = append(args, "--force-media-title="+t)
	}
	if !p.Autoplay {
		args = append(args, "--pause=yes")
	}
	if p.Muted {
		args = append(args, "--mute=yes")
	}
	if p.StartOffset > 0 {
		args = append(args, "--start="+strconv.FormatFloat(p.StartOffset, 'f', 3, 64))
	}
	if h, ok := qualityHeights[p.Quality]; ok {
		args = append(args, fmt.Sprintf("--ytdl-format=bestvideo[height<=?%d]+bestaudio/best[height<=?%d]", h, h))
	}
	if token != "" {
		// commas separate header fields for mpv
		args = append(args, "--http-header-fields=Authorization: Bearer "+strings.ReplaceAll(token, ",", "%2C"))
	}

	return append(args, target)
}

// sanitizeMediaTarget rejects anything mpv could read as a flag or a local path.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return l, nil
	default:
		return "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
