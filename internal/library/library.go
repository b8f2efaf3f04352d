// internal/library/library.go
// Package library implements the local media metadata store: a JSON sidecar
// file kept alongside each media asset in one of three library areas. There
// is no database; the sidecar-per-asset layout keeps metadata colocated with
// its asset, and a corrupt sidecar degrades to an unannotated asset instead
// of blocking the whole listing.
//
// Failure policy: every operation swallows I/O and parse errors internally
// and returns a sentinel (nil/false) rather than raising. Callers treat the
// sentinel as "the feature gracefully degrades".
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/metrics"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// Area identifies one of the three logical library areas.
type Area string

const (
	AreaPhotos Area = "photos" // Private photos, device-only
	AreaVideos Area = "videos" // Private videos, device-only
	AreaPublic Area = "public" // Published copies, backend-synced
)

// Areas lists all known library areas.
var Areas = []Area{AreaPhotos, AreaVideos, AreaPublic}

// Valid reports whether the area is one of the known library areas.
func (a Area) Valid() bool {
	return a == AreaPhotos || a == AreaVideos || a == AreaPublic
}

// ErrInvalidLocation is returned when a media URI does not belong to any
// known library area.
var ErrInvalidLocation = errors.New("media uri outside known library areas")

// sidecarExt is the extension of sidecar metadata files.
const sidecarExt = ".json"

// Store is the file-backed metadata store. Sidecar paths are derived
// deterministically from media URIs, so distinct assets never contend on
// the same sidecar. Concurrent writers of the same sidecar are not guarded;
// the last write wins.
type Store struct {
	root    string           // Library root directory holding the three areas
	logger  *slog.Logger     // Structured logger for swallowed failures
	metrics *metrics.Metrics // Operation counters and durations
}

// NewStore creates a store rooted at the given library directory and
// ensures the three area directories exist.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, area := range Areas {
		if err := os.MkdirAll(filepath.Join(root, string(area)), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{root: root, logger: logger, metrics: metrics.NewMetrics()}, nil
}

// Healthy reports whether every library area directory is readable. An
// empty area is healthy; an unreadable one is not.
func (s *Store) Healthy() error {
	for _, area := range Areas {
		if _, err := os.ReadDir(s.AreaDir(area)); err != nil {
			return fmt.Errorf("area %s unreadable: %w", area, err)
		}
	}
	return nil
}

// observe records one store operation for monitoring.
func (s *Store) observe(op, status string, start time.Time) {
	s.metrics.StoreOperationTotal.WithLabelValues(op, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// Root returns the library root directory.
func (s *Store) Root() string {
	return s.root
}

// AreaDir returns the directory of one library area.
func (s *Store) AreaDir(area Area) string {
	return filepath.Join(s.root, string(area))
}

// MediaPath converts a media URI into a filesystem path. URIs are opaque
// locators; the on-device form is a plain path, optionally file://-prefixed.
func MediaPath(mediaURI string) string {
	return strings.TrimPrefix(mediaURI, "file://")
}

// AreaForURI determines which library area a media URI belongs to by
// inspecting its path segments. Returns ErrInvalidLocation when the URI
// matches none of the known areas.
func (s *Store) AreaForURI(mediaURI string) (Area, error) {
	path := filepath.ToSlash(MediaPath(mediaURI))
	for _, seg := range strings.Split(path, "/") {
		if a := Area(seg); a.Valid() {
			return a, nil
		}
	}
	return "", ErrInvalidLocation
}

// ResolveSidecarPath derives the sidecar location for a media URI: the media
// path with its extension replaced by the metadata extension. Fails with
// ErrInvalidLocation when the URI is outside every known area.
func (s *Store) ResolveSidecarPath(mediaURI string) (string, error) {
	if _, err := s.AreaForURI(mediaURI); err != nil {
		return "", err
	}
	path := MediaPath(mediaURI)
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + sidecarExt, nil
}

// Load returns the sidecar record for a media URI, or nil when no sidecar
// exists. A sidecar that cannot be parsed or fails shape validation is
// treated as absent: Load logs and returns nil rather than propagating.
func (s *Store) Load(mediaURI string) *model.Metadata {
	start := time.Now()

	sidecar, err := s.ResolveSidecarPath(mediaURI)
	if err != nil {
		s.logger.Warn("metadata load skipped", "uri", mediaURI, "error", err)
		s.observe("load", "error", start)
		return nil
	}

	raw, err := os.ReadFile(sidecar)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("metadata read failed", "sidecar", sidecar, "error", err)
		}
		s.observe("load", "miss", start)
		return nil
	}

	if err := validateSidecar(raw); err != nil {
		s.logger.Warn("corrupt sidecar treated as absent", "sidecar", sidecar, "error", err)
		s.observe("load", "miss", start)
		return nil
	}

	var meta model.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.logger.Warn("corrupt sidecar treated as absent", "sidecar", sidecar, "error", err)
		s.observe("load", "miss", start)
		return nil
	}

	s.observe("load", "hit", start)
	return &meta
}

// Save performs a read-merge-write of the sidecar record: any existing
// record is loaded (absence is an empty base, not an error), the non-nil
// patch fields are overlaid, and the merged record is written back. Returns
// false on any I/O failure; callers must treat false as "changes not
// guaranteed persisted".
//
// The read-merge-write is not atomic across processes; an interleaved
// concurrent writer's changes can be lost.
func (s *Store) Save(mediaURI string, patch model.MetadataPatch) bool {
	start := time.Now()

	sidecar, err := s.ResolveSidecarPath(mediaURI)
	if err != nil {
		s.logger.Warn("metadata save skipped", "uri", mediaURI, "error", err)
		s.observe("save", "error", start)
		return false
	}

	base := s.Load(mediaURI)
	if base == nil {
		base = s.synthesize(mediaURI)
	}
	patch.Apply(base)

	raw, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		s.logger.Warn("metadata encode failed", "sidecar", sidecar, "error", err)
		s.observe("save", "error", start)
		return false
	}
	if err := os.WriteFile(sidecar, raw, 0o644); err != nil {
		s.logger.Warn("metadata write failed", "sidecar", sidecar, "error", err)
		s.observe("save", "error", start)
		return false
	}

	s.observe("save", "ok", start)
	return true
}

// Delete removes the sidecar for a media URI. Absence is success, not failure.
func (s *Store) Delete(mediaURI string) bool {
	start := time.Now()

	sidecar, err := s.ResolveSidecarPath(mediaURI)
	if err != nil {
		s.logger.Warn("metadata delete skipped", "uri", mediaURI, "error", err)
		s.observe("delete", "error", start)
		return false
	}
	if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("metadata delete failed", "sidecar", sidecar, "error", err)
		s.observe("delete", "error", start)
		return false
	}

	s.observe("delete", "ok", start)
	return true
}

// DeleteAsset removes a media file together with its sidecar, best-effort.
// A missing sidecar is not an error; a missing media file is.
func (s *Store) DeleteAsset(mediaURI string) bool {
	path := MediaPath(mediaURI)
	ok := true
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("media delete failed", "path", path, "error", err)
		ok = false
	}
	if !s.Delete(mediaURI) {
		ok = false
	}
	return ok
}

// synthesize builds a minimal record for a media file that has no sidecar,
// deriving the timestamp from a numeric substring in the filename and the
// media kind from the file extension.
func (s *Store) synthesize(mediaURI string) *model.Metadata {
	path := MediaPath(mediaURI)
	filename := filepath.Base(path)
	return &model.Metadata{
		URI:       mediaURI,
		Filename:  filename,
		Timestamp: timestampFromFilename(filename),
		MediaKind: kindFromExtension(filename),
	}
}
