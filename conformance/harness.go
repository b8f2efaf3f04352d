// Package conformance provides an end-to-end harness for the Glimpse
// facade: the real mux, store, publisher, and backend client wired over a
// temporary library and an in-process stub of the remote social backend.
package conformance

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	"github.com/glimpselabs/glimpse-client-go/internal/config"
	"github.com/glimpselabs/glimpse-client-go/internal/event"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/publish"
	"github.com/glimpselabs/glimpse-client-go/internal/server"
)

// Harness bundles the facade under test with its collaborators.
type Harness struct {
	facade  *httptest.Server
	backend *backendStub
	store   *library.Store
	events  event.Publisher
}

// Config holds harness options.
type Config struct {
	// UserName is the viewer identity stamped on likes and comments.
	UserName string

	// LibraryRoot is the temporary library directory. Required.
	LibraryRoot string
}

// NewHarness stands up the stub backend and the facade over it.
func NewHarness(cfg Config) (*Harness, error) {
	if cfg.UserName == "" {
		cfg.UserName = "conformance"
	}
	if cfg.LibraryRoot == "" {
		return nil, fmt.Errorf("library root is required")
	}

	store, err := library.NewStore(cfg.LibraryRoot, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	backend := newBackendStub()
	backend.server = httptest.NewServer(backend)

	events := event.NewNoopPublisher()
	client := api.New(backend.server.URL)
	publisher := publish.New(store, client, nil, events, slog.Default())

	facadeCfg := config.Config{
		Env:              "test",
		BackendURL:       backend.server.URL,
		LibraryRoot:      cfg.LibraryRoot,
		UserName:         cfg.UserName,
		MaxCaptionLength: model.MaxCaptionLength,
		MaxCommentLength: model.MaxCommentLength,
	}
	mux := server.NewMux(facadeCfg, store, publisher, client, events)

	return &Harness{
		facade:  httptest.NewServer(mux),
		backend: backend,
		store:   store,
		events:  events,
	}, nil
}

// URL returns the base URL of the facade under test.
func (h *Harness) URL() string {
	return h.facade.URL
}

// Store exposes the sidecar store for direct fixture setup.
func (h *Harness) Store() *library.Store {
	return h.store
}

// Close shuts down the facade and the stub backend.
func (h *Harness) Close() {
	h.facade.Close()
	h.backend.server.Close()
	_ = h.events.Close()
}

// WriteAsset places a media file in an area and returns its URI.
func (h *Harness) WriteAsset(area library.Area, name string) (string, error) {
	path := filepath.Join(h.store.AreaDir(area), name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// backendStub speaks just enough of the remote API for end-to-end flows:
// multipart media upload, feed listing, and flat comment lists.
type backendStub struct {
	server *httptest.Server

	mu       sync.Mutex
	posts    []model.MediaPost
	comments map[int64][]model.Comment
	nextID   int64
}

func newBackendStub() *backendStub {
	return &backendStub{comments: map[int64][]model.Comment{}}
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/api/media" && r.Method == http.MethodPost:
		b.handleUpload(w, r)
	case path == "/api/media" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, b.posts)
	case strings.HasPrefix(path, "/api/media/") && strings.HasSuffix(path, "/comments"):
		b.handleComments(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
	}
}

func (b *backendStub) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "file part is required"})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "unreadable file part"})
		return
	}

	b.nextID++
	post := model.MediaPost{
		ID:        b.nextID,
		Filename:  header.Filename,
		MediaType: r.FormValue("media_type"),
		Caption:   r.FormValue("caption"),
		Emojis:    r.FormValue("emojis"),
		Timestamp: b.nextID * 1000,
		Published: true,
		URL:       "/media/" + header.Filename,
	}
	// Newest first, matching the real feed ordering.
	b.posts = append([]model.MediaPost{post}, b.posts...)
	writeJSON(w, http.StatusOK, post)
}

func (b *backendStub) handleComments(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/media/")
	rest = strings.TrimSuffix(rest, "/comments")
	mediaID, err := strconv.ParseInt(strings.Trim(rest, "/"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, b.comments[mediaID])
	case http.MethodPost:
		var req model.CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
			return
		}
		b.nextID++
		c := model.Comment{
			ID:              b.nextID,
			Content:         req.Content,
			AuthorName:      req.AuthorName,
			ParentCommentID: req.ParentCommentID,
		}
		b.comments[mediaID] = append(b.comments[mediaID], c)
		writeJSON(w, http.StatusOK, c)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
