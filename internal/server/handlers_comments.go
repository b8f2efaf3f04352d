// internal/server/handlers_comments.go
// Comment endpoints. Every mutation triggers a full reload of the flat
// comment list from the backend and a rebuild of the thread; the facade
// never patches an assembled tree in place.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/glimpselabs/glimpse-client-go/internal/comments"
	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// threadResponse carries an assembled thread together with its row count
// and the viewer's like membership per comment.
type threadResponse struct {
	Thread     comments.Thread `json:"thread"`
	TotalCount int             `json:"totalCount"`
}

// loadThread fetches the flat comment list and assembles the thread.
func (m *Mux) loadThread(ctx context.Context, mediaID int64, skip, limit int) (*threadResponse, error) {
	flat, err := m.backend.ListComments(ctx, mediaID, skip, limit)
	if err != nil {
		return nil, err
	}
	thread := m.assembler.Build(flat)
	return &threadResponse{Thread: thread, TotalCount: thread.TotalCount()}, nil
}

// handleMediaComments routes GET and POST on /v1/media/{id}/comments.
func (m *Mux) handleMediaComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	if !strings.HasSuffix(r.URL.Path, "/comments") {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_NOT_FOUND, "unknown media endpoint", corrID))
		return
	}
	mediaID, ok := pathID(r.URL.Path, "/v1/media/", "/comments")
	if !ok {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "media id is required", corrID))
		return
	}

	switch r.Method {
	case http.MethodGet:
		skip, limit := parsePageQuery(r)
		resp, err := m.loadThread(ctx, mediaID, skip, limit)
		if err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.writeSuccess(w, http.StatusOK, resp)

	case http.MethodPost:
		defer r.Body.Close()
		var req struct {
			Content         string `json:"content"`
			ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "invalid JSON", corrID))
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "content is required", corrID))
			return
		}
		if len(req.Content) > m.maxCommentLength {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_COMMENT_LENGTH, "comment exceeds maximum length", corrID))
			return
		}
		if _, err := m.backend.CreateComment(ctx, mediaID, model.CreateCommentRequest{
			Content:         req.Content,
			AuthorName:      m.userName,
			ParentCommentID: req.ParentCommentID,
		}); err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.respondWithReloadedThread(w, r, mediaID)

	default:
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", corrID))
	}
}

// handleComment routes PUT/DELETE /v1/comments/{id} and POST/DELETE
// /v1/comments/{id}/like. Mutations require a media_id query parameter so
// the rebuilt thread can be returned in the same round-trip.
func (m *Mux) handleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	mediaID, okMedia := parseMediaIDQuery(r)
	if !okMedia {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "media_id is required", corrID))
		return
	}

	if strings.HasSuffix(r.URL.Path, "/like") {
		commentID, ok := pathID(r.URL.Path, "/v1/comments/", "/like")
		if !ok {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "comment id is required", corrID))
			return
		}
		var err error
		switch r.Method {
		case http.MethodPost:
			err = m.backend.LikeComment(ctx, commentID, m.userName)
		case http.MethodDelete:
			err = m.backend.UnlikeComment(ctx, commentID, m.userName)
		default:
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", corrID))
			return
		}
		if err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.respondWithReloadedThread(w, r, mediaID)
		return
	}

	commentID, ok := pathID(r.URL.Path, "/v1/comments/", "")
	if !ok {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "comment id is required", corrID))
		return
	}

	switch r.Method {
	case http.MethodPut:
		defer r.Body.Close()
		var req model.UpdateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "invalid JSON", corrID))
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "content is required", corrID))
			return
		}
		if len(req.Content) > m.maxCommentLength {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_COMMENT_LENGTH, "comment exceeds maximum length", corrID))
			return
		}
		if _, err := m.backend.UpdateComment(ctx, commentID, req.Content); err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.respondWithReloadedThread(w, r, mediaID)

	case http.MethodDelete:
		if err := m.backend.DeleteComment(ctx, commentID); err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.respondWithReloadedThread(w, r, mediaID)

	default:
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", corrID))
	}
}

// respondWithReloadedThread re-fetches the flat list and writes the rebuilt
// thread. A reload failure after a successful mutation is reported as
// partial: the mutation stuck, only the refreshed view is missing.
func (m *Mux) respondWithReloadedThread(w http.ResponseWriter, r *http.Request, mediaID int64) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	skip, limit := parsePageQuery(r)
	resp, err := m.loadThread(ctx, mediaID, skip, limit)
	if err != nil {
		m.writeErrorDef(w, errordefs.NewWithDetails(errordefs.GLIMPSE_PARTIAL,
			"change saved but the refreshed thread could not be loaded", corrID, err.Error()))
		return
	}
	m.writeSuccess(w, http.StatusOK, resp)
}

// parseMediaIDQuery reads the media_id query parameter.
func parseMediaIDQuery(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("media_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
