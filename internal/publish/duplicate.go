// internal/publish/duplicate.go
// Duplicate-then-edit: published assets are immutable by policy. An edit
// request against one is intercepted before any I/O and redirected here,
// producing a fresh private copy the user can edit and re-publish.
package publish

import (
	"context"
	"path/filepath"
	"time"

	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DuplicateForEdit copies a published asset into the appropriate private
// area and synthesizes a new record with published=false, a fresh
// timestamp, no backend id, and the caption/overlays/segments carried over.
// The published original, sidecar and file both, is never touched.
func (p *Publisher) DuplicateForEdit(ctx context.Context, mediaURI string) (*model.Metadata, *errordefs.Error) {
	ctx, span := telemetry.Tracer().Start(ctx, "DuplicateForEdit")
	defer span.End()
	span.SetAttributes(attribute.String("media_uri", mediaURI))

	meta := p.store.Load(mediaURI)
	if meta == nil {
		return nil, errordefs.New(errordefs.GLIMPSE_NOT_FOUND, "no metadata for asset", "")
	}
	if !meta.Published {
		// Private assets are edited in place; nothing to duplicate.
		return nil, errordefs.New(errordefs.GLIMPSE_CONFLICT, "asset is not published; edit it in place", "")
	}

	destArea := library.AreaPhotos
	if meta.MediaKind == model.MediaVideo {
		destArea = library.AreaVideos
	}

	sourcePath := library.MediaPath(meta.URI)
	destName := newFilename(meta.MediaKind, filepath.Ext(sourcePath))
	destPath := filepath.Join(p.store.AreaDir(destArea), destName)

	if err := copyFile(sourcePath, destPath); err != nil {
		span.SetStatus(codes.Error, "media copy failed")
		return nil, errordefs.NewWithDetails(errordefs.GLIMPSE_STORAGE, "could not copy media for editing", "", err.Error())
	}

	unpublished := false
	timestamp := time.Now().UnixMilli()
	patch := model.MetadataPatch{
		Caption:     &meta.Caption,
		Emojis:      &meta.Emojis,
		Published:   &unpublished,
		Timestamp:   &timestamp,
		MediaKind:   &meta.MediaKind,
		Segments:    &meta.Segments,
		OriginalURI: &mediaURI,
	}
	if !p.store.Save(destPath, patch) {
		span.SetStatus(codes.Error, "sidecar write failed")
		return nil, errordefs.New(errordefs.GLIMPSE_STORAGE, "could not write metadata for the edit copy", "")
	}

	duplicate := p.store.Load(destPath)
	if duplicate == nil {
		return nil, errordefs.New(errordefs.GLIMPSE_STORAGE, "edit copy metadata unreadable after write", "")
	}

	if err := p.events.PublishMediaDuplicated(ctx, *duplicate); err != nil {
		p.logger.Warn("failed to publish media duplicated event", "error", err)
	}
	return duplicate, nil
}
