// Package position persists the last known playback offset of every video.
package position

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vidtune-cli/vidtune/kv"
	"github.com/vidtune-cli/vidtune/log"
)

const (
	keyPrefix    = "position:"
	legacyPrefix = "lastPosition_"
)

// StoredPosition is the record kept for one video.
type StoredPosition struct {
	VideoID       string    `json:"video_id" jsonschema:"description=Normalized digits-only video identifier"`
	OffsetSeconds float64   `json:"offset_seconds" jsonschema:"minimum=0,description=Playback offset in seconds"`
	SavedAt       time.Time `json:"saved_at" jsonschema:"description=Time of the last write"`
}

// SaveOptions qualifies a write.
// Immediate writes come from pause, background and video end; the others
// are periodic and already throttled by the caller.
type SaveOptions struct {
	Immediate bool
}

// Store reads and writes StoredPosition records through a kv.Store.
// Ids are expected in normalized form.
type Store struct {
	items kv.Store
	now   func() time.Time

	mu       sync.Mutex
	migrated map[string]struct{}
}

func New(items kv.Store) *Store {
	return &Store{
		items:    items,
		now:      time.Now,
		migrated: make(map[string]struct{}),
	}
}

func canonicalKey(videoID string) string { return keyPrefix + videoID }
func legacyKey(videoID string) string    { return legacyPrefix + videoID }

// Load returns the saved offset of videoID, or 0.
// Storage failures are logged and read as 0.
func (s *Store) Load(ctx context.Context, videoID string) float64 {
	p, ok, err := s.Get(ctx, videoID)
	if err != nil {
		log.WithFields(log.Fields{"video": videoID}).Warnf("load position: %v", err)
		return 0
	}
	if !ok {
		return 0
	}
	return p.OffsetSeconds
}

// Get returns the stored record of videoID.
// The first read of an id in this process migrates a legacy entry.
func (s *Store) Get(ctx context.Context, videoID string) (StoredPosition, bool, error) {
	if err := s.migrateOnce(ctx, videoID); err != nil {
		log.WithFields(log.Fields{"video": videoID}).Warnf("migrate legacy position: %v", err)
	}

	raw, ok, err := s.items.GetItem(ctx, canonicalKey(videoID))
	if err != nil || !ok {
		return StoredPosition{}, false, err
	}

	var p StoredPosition
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return StoredPosition{}, false, fmt.Errorf("decode position %s: %w", videoID, err)
	}
	return p, true, nil
}

// Save writes offset for videoID. Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, videoID string, offset float64, opts SaveOptions) {
	entry := log.WithFields(log.Fields{"video": videoID, "offset": offset, "immediate": opts.Immediate})

	if err := s.write(ctx, videoID, offset); err != nil {
		entry.Warnf("save position: %v", err)
		return
	}
	entry.Debug("position saved")
}

// Reset stores a zero offset, used when a video played to its end.
func (s *Store) Reset(ctx context.Context, videoID string) {
	s.Save(ctx, videoID, 0, SaveOptions{Immediate: true})
}

func (s *Store) write(ctx context.Context, videoID string, offset float64) error {
	if math.IsNaN(offset) || math.IsInf(offset, 0) || offset < 0 {
		offset = 0
	}

	data, err := json.Marshal(StoredPosition{
		VideoID:       videoID,
		OffsetSeconds: offset,
		SavedAt:       s.now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.items.SetItem(ctx, canonicalKey(videoID), string(data))
}

// List returns every canonical record, most recently saved first.
func (s *Store) List(ctx context.Context) ([]StoredPosition, error) {
	keys, err := s.items.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var positions []StoredPosition
	for _, k := range keys {
		id, ok := strings.CutPrefix(k, keyPrefix)
		if !ok {
			continue
		}

		p, found, err := s.Get(ctx, id)
		if err != nil {
			log.WithFields(log.Fields{"video": id}).Warnf("list positions: %v", err)
			continue
		}
		if found {
			positions = append(positions, p)
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].SavedAt.After(positions[j].SavedAt)
	})
	return positions, nil
}

// Migrate moves every legacy entry to its canonical key and returns how many were found.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	keys, err := s.items.Keys(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	for _, k := range keys {
		id, ok := strings.CutPrefix(k, legacyPrefix)
		if !ok {
			continue
		}
		if err := s.migrate(ctx, id); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Store) migrateOnce(ctx context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.migrated[videoID]; done {
		return nil
	}
	if err := s.migrate(ctx, videoID); err != nil {
		return err
	}
	s.migrated[videoID] = struct{}{}
	return nil
}

// migrate copies a legacy entry to the canonical key unless one exists,
// then drops the legacy entry.
func (s *Store) migrate(ctx context.Context, videoID string) error {
	raw, ok, err := s.items.GetItem(ctx, legacyKey(videoID))
	if err != nil || !ok {
		return err
	}

	_, exists, err := s.items.GetItem(ctx, canonicalKey(videoID))
	if err != nil {
		return err
	}

	if !exists {
		offset, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			log.WithFields(log.Fields{"video": videoID}).Warnf("discarding unreadable legacy position %q", raw)
		} else if err := s.write(ctx, videoID, offset); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{"video": videoID}).Info("migrated legacy position")
	return s.items.RemoveItem(ctx, legacyKey(videoID))
}
