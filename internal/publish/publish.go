// internal/publish/publish.go
// Package publish manages the transition of a media asset from private,
// local-only to public, backend-synced, and the duplicate-then-edit flow
// that keeps published assets immutable.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
	"github.com/glimpselabs/glimpse-client-go/internal/event"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/metrics"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/telemetry"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Uploader is the slice of the backend client the publisher depends on.
// Tests substitute a fake to simulate upload failures.
type Uploader interface {
	UploadMedia(ctx context.Context, up api.Upload) (*model.MediaPost, error)
}

// Mirror is the optional off-device copy of the public area.
type Mirror interface {
	MirrorFile(ctx context.Context, key, path string) error
}

// CleanupResult reports the best-effort cleanup of a superseded private
// copy after publish. It is its own result so the outer publish outcome is
// demonstrably independent of this inner step.
type CleanupResult struct {
	Attempted bool  // False when the asset had no originalUri
	Cleaned   bool  // True when the original copy and sidecar were removed
	Err       error // Set when cleanup was attempted and failed
}

// Result describes a completed publish.
type Result struct {
	BackendID int64         // Identifier assigned by the backend
	PublicURI string        // Locator of the local public copy
	Cleanup   CleanupResult // Outcome of the best-effort original cleanup
}

// Publisher orchestrates publish and duplicate-then-edit flows over the
// sidecar store and the backend client.
type Publisher struct {
	store    *library.Store
	uploader Uploader
	mirror   Mirror // nil when mirroring is not configured
	events   event.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a publisher. mirror may be nil; events may be a no-op.
func New(store *library.Store, uploader Uploader, mirror Mirror, events event.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		store:    store,
		uploader: uploader,
		mirror:   mirror,
		events:   events,
		metrics:  metrics.NewMetrics(),
		logger:   logger,
	}
}

// Publish uploads a private asset and records the public copy locally, in
// strict order:
//
//	(a) upload the raw media plus caption/overlays to the backend;
//	(b) copy the media into the public area and write a sidecar there with
//	    published=true and the backend-assigned id;
//	(c) best-effort cleanup of the superseded private copy, when the asset
//	    was itself a duplicate (carries an originalUri).
//
// If (a) fails the whole operation fails and nothing is written; the
// private asset and its edits remain intact and retryable. If (a) succeeds
// and (b) fails, the record is public in the backend with no local trace;
// that known inconsistency window is surfaced as a distinct partial-success
// error rather than silently masked.
func (p *Publisher) Publish(ctx context.Context, mediaURI string) (*Result, *errordefs.Error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Publish")
	defer span.End()
	span.SetAttributes(attribute.String("media_uri", mediaURI))

	meta := p.store.Load(mediaURI)
	if meta == nil {
		// No sidecar: publish the bare asset with empty presentation state.
		meta = &model.Metadata{
			URI:       mediaURI,
			Filename:  filepath.Base(library.MediaPath(mediaURI)),
			MediaKind: model.MediaPhoto,
		}
		if area, err := p.store.AreaForURI(mediaURI); err == nil && area == library.AreaVideos {
			meta.MediaKind = model.MediaVideo
		}
	}
	if meta.Published {
		return nil, errordefs.New(errordefs.GLIMPSE_CONFLICT, "asset is already published", "")
	}

	// (a) network upload; a failure here leaves no local trace.
	sourcePath := uploadSourcePath(*meta)
	post, err := p.uploader.UploadMedia(ctx, api.Upload{
		FilePath:  sourcePath,
		MediaType: meta.MediaKind,
		Caption:   meta.Caption,
		Emojis:    meta.Emojis,
	})
	if err != nil {
		span.SetStatus(codes.Error, "upload failed")
		p.metrics.PublishTotal.WithLabelValues("upload_failed").Inc()
		return nil, errordefs.NewWithDetails(errordefs.GLIMPSE_UPSTREAM, "media upload failed", "", err.Error())
	}
	span.SetAttributes(attribute.Int64("backend_id", post.ID))

	// (b) local public copy plus sidecar.
	publicURI, err := p.recordPublicCopy(sourcePath, *meta, post)
	if err != nil {
		span.SetStatus(codes.Error, "public copy failed")
		p.metrics.PublishTotal.WithLabelValues("partial").Inc()
		return nil, errordefs.NewWithDetails(errordefs.GLIMPSE_PARTIAL,
			"upload succeeded but the local public copy failed; the post will appear on the next feed reload",
			"", err.Error())
	}

	if p.mirror != nil {
		key := filepath.Base(publicURI)
		if err := p.mirror.MirrorFile(ctx, key, publicURI); err != nil {
			p.logger.Warn("public media mirror failed", "uri", publicURI, "error", err)
		}
	}

	// (c) best-effort cleanup of the superseded private copy.
	cleanup := p.cleanupOriginal(*meta)

	result := &Result{BackendID: post.ID, PublicURI: publicURI, Cleanup: cleanup}

	published := p.store.Load(publicURI)
	if published != nil {
		if err := p.events.PublishMediaPublished(ctx, *published); err != nil {
			p.logger.Warn("failed to publish media published event", "error", err)
		}
	}

	p.metrics.PublishTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// recordPublicCopy copies the media into the public area under a fresh
// filename and writes its sidecar with published=true and the backend id.
func (p *Publisher) recordPublicCopy(sourcePath string, meta model.Metadata, post *model.MediaPost) (string, error) {
	destName := newFilename(meta.MediaKind, filepath.Ext(sourcePath))
	destPath := filepath.Join(p.store.AreaDir(library.AreaPublic), destName)

	if err := copyFile(sourcePath, destPath); err != nil {
		return "", err
	}

	published := true
	timestamp := post.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	patch := model.MetadataPatch{
		Caption:   &meta.Caption,
		Emojis:    &meta.Emojis,
		Published: &published,
		BackendID: &post.ID,
		Timestamp: &timestamp,
		MediaKind: &meta.MediaKind,
		Segments:  &meta.Segments,
	}
	if !p.store.Save(destPath, patch) {
		// Keep the area consistent: a public copy without a sidecar would
		// surface as an unpublished asset.
		_ = os.Remove(destPath)
		return "", fmt.Errorf("public sidecar write failed")
	}
	return destPath, nil
}

// cleanupOriginal removes the private copy this asset was duplicated from.
// Only private originals are ever removed; a duplicate taken from an
// already-published asset leaves the published copy untouched. Failure to
// delete the original is logged, never surfaced as an overall publish
// failure.
func (p *Publisher) cleanupOriginal(meta model.Metadata) CleanupResult {
	if meta.OriginalURI == "" {
		return CleanupResult{}
	}
	if area, err := p.store.AreaForURI(meta.OriginalURI); err != nil || area == library.AreaPublic {
		return CleanupResult{}
	}
	if !p.store.DeleteAsset(meta.OriginalURI) {
		err := fmt.Errorf("could not remove superseded copy %s", meta.OriginalURI)
		p.logger.Warn("original cleanup failed", "uri", meta.OriginalURI)
		return CleanupResult{Attempted: true, Err: err}
	}
	return CleanupResult{Attempted: true, Cleaned: true}
}

// uploadSourcePath selects the file to upload: the primary media file, which
// for multi-segment recordings is the latest segment the URI points at.
func uploadSourcePath(meta model.Metadata) string {
	return library.MediaPath(meta.URI)
}

// newFilename derives a fresh area filename. The millisecond prefix keeps
// timestamp synthesis working for sidecar-less listings; the ULID suffix
// keeps concurrent captures collision-free.
func newFilename(kind model.MediaKind, ext string) string {
	now := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	return fmt.Sprintf("%s_%d_%s%s", kind, now.UnixMilli(), id.String(), ext)
}

// copyFile copies src to dst, failing if the source cannot be read or the
// destination cannot be written.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source media: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination media: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy media: %w", err)
	}
	return out.Sync()
}
