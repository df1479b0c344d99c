// Package cache keeps metadata of played videos so titles and durations
// survive across runs.
package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/filesystem"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/video"
	"github.com/vidtune-cli/vidtune/where"
)

const TTL = 30 * 24 * time.Hour

func path(videoID string) string {
	return filepath.Join(where.Videos(), videoID+".json")
}

// Read returns the cached metadata of videoID if it has not expired.
func Read(videoID string) (video.Video, bool) {
	fs := filesystem.API()
	p := path(videoID)

	info, err := fs.Stat(p)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return video.Video{}, false
	}

	data, err := fs.ReadFile(p)
	if err != nil {
		return video.Video{}, false
	}

	var v video.Video
	if err := json.Unmarshal(data, &v); err != nil || v.ID != videoID {
		return video.Video{}, false
	}
	return v, true
}

// Write persists v using an atomic file swap.
func Write(v video.Video) error {
	fs := filesystem.API()
	p := path(v.ID)
	tmp := p + ".tmp"

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := fs.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, p)
}

// Enrich fills the blanks of v from the cache. v.ID must be normalized.
func Enrich(v video.Video) video.Video {
	cached, ok := Read(v.ID)
	if !ok {
		return v
	}
	if v.Title == "" {
		v.Title = cached.Title
	}
	if v.DurationSeconds == 0 {
		v.DurationSeconds = cached.DurationSeconds
	}
	return v
}

// Resolve is Enrich followed by an oEmbed lookup when the title is still
// unknown and lookups are enabled. Lookup failures leave v as it was.
func Resolve(ctx context.Context, v video.Video) video.Video {
	v = Enrich(v)
	if v.Title != "" || !viper.GetBool(key.CatalogLookup) {
		return v
	}

	found, err := video.Lookup(ctx, viper.GetString(key.CatalogOEmbedURL), v.ID)
	if err != nil {
		log.Warnf("title lookup: %v", err)
		return v
	}
	v.Title = found.Title
	if v.DurationSeconds == 0 {
		v.DurationSeconds = found.DurationSeconds
	}
	Remember(v)
	return v
}

// Remember merges v into the cache, keeping known fields v leaves empty.
func Remember(v video.Video) {
	if err := Write(Enrich(v)); err != nil {
		log.Warnf("cache video %s: %v", v.ID, err)
	}
}

// CollectGarbage prunes expired entries in the background.
func CollectGarbage() {
	go func() {
		fs := filesystem.API()
		entries, err := fs.ReadDir(where.Videos())
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() || time.Since(e.ModTime()) <= TTL {
				continue
			}
			_ = fs.Remove(filepath.Join(where.Videos(), e.Name()))
		}
	}()
}
