// internal/server/handlers_library.go
// Library endpoints: listing, metadata read/merge, asset deletion, and the
// publish and duplicate-then-edit flows.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// handleListArea handles GET /v1/library?area=
func (m *Mux) handleListArea(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r.Context())

	area := library.Area(r.URL.Query().Get("area"))
	if !area.Valid() {
		err := errordefs.New(errordefs.GLIMPSE_VALIDATION, "area must be one of photos, videos, public", corrID)
		m.writeErrorDef(w, err)
		return
	}

	m.writeSuccess(w, http.StatusOK, m.store.EnumerateArea(area))
}

// metaPatchRequest is the body of PATCH /v1/library/meta: the asset locator
// plus the field-level patch to merge into its sidecar.
type metaPatchRequest struct {
	URI   string              `json:"uri"`
	Patch model.MetadataPatch `json:"patch"`
}

// handleMeta handles GET and PATCH on /v1/library/meta.
func (m *Mux) handleMeta(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		m.handleLoadMeta(w, r)
	case http.MethodPatch:
		m.handleSaveMeta(w, r)
	default:
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", correlationID(r.Context())))
	}
}

// handleLoadMeta handles GET /v1/library/meta?uri=
// A missing sidecar is not an error: the response carries null data and the
// caller renders the asset without presentation state.
func (m *Mux) handleLoadMeta(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r.Context())

	uri := r.URL.Query().Get("uri")
	if uri == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "uri is required", corrID))
		return
	}
	if _, err := m.store.AreaForURI(uri); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_INVALID_LOCATION, err.Error(), corrID))
		return
	}

	m.writeSuccess(w, http.StatusOK, m.store.Load(uri))
}

// handleSaveMeta handles PATCH /v1/library/meta
func (m *Mux) handleSaveMeta(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r.Context())
	defer r.Body.Close()

	var req metaPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "invalid JSON", corrID))
		return
	}
	if req.URI == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "uri is required", corrID))
		return
	}
	if req.Patch.Caption != nil && len(*req.Patch.Caption) > m.maxCaptionLength {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_CAPTION_LENGTH, "caption exceeds maximum length", corrID))
		return
	}
	if req.Patch.MediaKind != nil && !req.Patch.MediaKind.Valid() {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_MEDIA_KIND, "mediaKind must be photo or video", corrID))
		return
	}
	if _, err := m.store.AreaForURI(req.URI); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_INVALID_LOCATION, err.Error(), corrID))
		return
	}

	// Editing a published asset is a policy violation, not an error:
	// intercept before any sidecar I/O and point the caller at the
	// duplicate-then-edit flow.
	if existing := m.store.Load(req.URI); existing != nil && existing.Published {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_CONFLICT,
			"published assets are immutable; duplicate the asset to edit it", corrID))
		return
	}

	if !m.store.Save(req.URI, req.Patch) {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_STORAGE, "changes not guaranteed persisted", corrID))
		return
	}

	m.writeSuccess(w, http.StatusOK, m.store.Load(req.URI))
}

// handleDeleteAsset handles DELETE /v1/library/asset?uri=
func (m *Mux) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	uri := r.URL.Query().Get("uri")
	if uri == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "uri is required", corrID))
		return
	}
	if _, err := m.store.AreaForURI(uri); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_INVALID_LOCATION, err.Error(), corrID))
		return
	}

	if !m.store.DeleteAsset(uri) {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_STORAGE, "asset not fully removed", corrID))
		return
	}
	if err := m.events.PublishMediaDeleted(ctx, uri); err != nil {
		// Event delivery never fails a local deletion.
		_ = err
	}

	m.writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// uriRequest is the body shared by the duplicate and publish endpoints.
type uriRequest struct {
	URI string `json:"uri"`
}

// handleDuplicate handles POST /v1/library/duplicate
func (m *Mux) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer().Start(r.Context(), "handleDuplicate")
	defer span.End()
	defer r.Body.Close()
	corrID := correlationID(ctx)

	var req uriRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URI == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "uri is required", corrID))
		return
	}
	span.SetAttributes(attribute.String("media_uri", req.URI))

	duplicate, errDef := m.publisher.DuplicateForEdit(ctx, req.URI)
	if errDef != nil {
		errDef.CorrelationID = corrID
		m.writeErrorDef(w, errDef)
		return
	}

	m.writeSuccess(w, http.StatusOK, duplicate)
}

// publishResponse is the body returned by a successful publish. The cleanup
// outcome travels separately from the publish outcome so the caller can
// report a stale leftover copy without mistaking it for a failed publish.
type publishResponse struct {
	BackendID int64  `json:"backendId"`
	PublicURI string `json:"publicUri"`
	Cleanup   string `json:"cleanup"` // "skipped", "cleaned", or "failed"
}

// handlePublish handles POST /v1/library/publish
func (m *Mux) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer().Start(r.Context(), "handlePublish")
	defer span.End()
	defer r.Body.Close()
	corrID := correlationID(ctx)

	var req uriRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URI == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "uri is required", corrID))
		return
	}
	span.SetAttributes(attribute.String("media_uri", req.URI))

	result, errDef := m.publisher.Publish(ctx, req.URI)
	if errDef != nil {
		errDef.CorrelationID = corrID
		m.writeErrorDef(w, errDef)
		return
	}

	resp := publishResponse{
		BackendID: result.BackendID,
		PublicURI: result.PublicURI,
		Cleanup:   "skipped",
	}
	if result.Cleanup.Attempted {
		if result.Cleanup.Cleaned {
			resp.Cleanup = "cleaned"
		} else {
			resp.Cleanup = "failed"
		}
	}

	m.writeSuccess(w, http.StatusOK, resp)
}

// handleFilters handles GET /v1/filters: the built-in filter catalog the
// editor surface renders its parameter controls from.
func (m *Mux) handleFilters(w http.ResponseWriter, r *http.Request) {
	m.writeSuccess(w, http.StatusOK, model.BuiltinFilters())
}

// backendErrorDef maps a backend client error to the facade taxonomy.
func backendErrorDef(err error, corrID string) *errordefs.Error {
	if errors.Is(err, api.ErrNotFound) {
		return errordefs.New(errordefs.GLIMPSE_NOT_FOUND, "resource not found", corrID)
	}
	return errordefs.NewWithDetails(errordefs.GLIMPSE_UPSTREAM, "backend request failed", corrID, err.Error())
}
