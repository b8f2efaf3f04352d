// internal/library/enumerate.go
// Area listing. Media files lacking a sidecar are synthesized into minimal
// records rather than excluded, so a listing never hides an asset just
// because its metadata is missing or corrupt.
package library

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// digitRun matches runs of digits inside a filename; the longest run is
// taken as the creation timestamp in milliseconds (capture flows name files
// photo_<millis>.jpg and video_<millis>.mp4).
var digitRun = regexp.MustCompile(`\d+`)

// photoExtensions and videoExtensions map file extensions to media kinds.
var (
	photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".heic": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".webm": true}
)

// EnumerateArea lists all media files in one area as metadata records,
// sorted by timestamp descending (newest first). Files with a sidecar use
// the stored record; files without one synthesize a minimal record. Sidecar
// files themselves are skipped. Directory read failures yield an empty
// listing, consistent with the store's sentinel failure policy.
func (s *Store) EnumerateArea(area Area) []model.Metadata {
	dir := s.AreaDir(area)
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("area listing failed", "area", area, "error", err)
		return []model.Metadata{}
	}

	out := make([]model.Metadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), sidecarExt) {
			continue
		}
		uri := filepath.Join(dir, name)
		meta := s.Load(uri)
		if meta == nil {
			meta = s.synthesize(uri)
		}
		// The on-disk location is authoritative even when the sidecar
		// carries a stale URI from before a copy or move.
		meta.URI = uri
		meta.Filename = name
		out = append(out, *meta)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp == out[j].Timestamp {
			return out[i].Filename < out[j].Filename
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// timestampFromFilename extracts the creation timestamp from a numeric
// substring in the filename. The longest digit run wins; a filename with no
// digits yields zero, which sorts the asset last.
func timestampFromFilename(filename string) int64 {
	best := ""
	for _, run := range digitRun.FindAllString(filename, -1) {
		if len(run) > len(best) {
			best = run
		}
	}
	if best == "" {
		return 0
	}
	ts, err := strconv.ParseInt(best, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// kindFromExtension derives the media kind from the file extension,
// defaulting to photo for unknown extensions.
func kindFromExtension(filename string) model.MediaKind {
	ext := strings.ToLower(filepath.Ext(filename))
	if videoExtensions[ext] {
		return model.MediaVideo
	}
	if photoExtensions[ext] {
		return model.MediaPhoto
	}
	return model.MediaPhoto
}
