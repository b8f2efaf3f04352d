// internal/server/handlers_feed.go
// Feed endpoints: the published media list, deletion, and media likes, all
// passed through to the remote backend.
package server

import (
	"net/http"
	"strings"

	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
)

// handleFeed handles GET /v1/feed?skip=&limit=
func (m *Mux) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	skip, limit := parsePageQuery(r)
	posts, err := m.backend.ListMedia(ctx, skip, limit)
	if err != nil {
		m.writeErrorDef(w, backendErrorDef(err, corrID))
		return
	}

	m.writeSuccess(w, http.StatusOK, posts)
}

// handleFeedItem routes /v1/feed/{id} and /v1/feed/{id}/like.
func (m *Mux) handleFeedItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := correlationID(ctx)

	if strings.HasSuffix(r.URL.Path, "/like") {
		mediaID, ok := pathID(r.URL.Path, "/v1/feed/", "/like")
		if !ok {
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "media id is required", corrID))
			return
		}
		var err error
		switch r.Method {
		case http.MethodPost:
			err = m.backend.LikeMedia(ctx, mediaID, m.userName)
		case http.MethodDelete:
			err = m.backend.UnlikeMedia(ctx, mediaID, m.userName)
		default:
			m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", corrID))
			return
		}
		if err != nil {
			m.writeErrorDef(w, backendErrorDef(err, corrID))
			return
		}
		m.writeSuccess(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	mediaID, ok := pathID(r.URL.Path, "/v1/feed/", "")
	if !ok {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_VALIDATION, "media id is required", corrID))
		return
	}
	if r.Method != http.MethodDelete {
		m.writeErrorDef(w, errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", corrID))
		return
	}
	if err := m.backend.DeleteMedia(ctx, mediaID); err != nil {
		m.writeErrorDef(w, backendErrorDef(err, corrID))
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}
