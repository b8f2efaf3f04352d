// internal/server/mux_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	"github.com/glimpselabs/glimpse-client-go/internal/config"
	"github.com/glimpselabs/glimpse-client-go/internal/event"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/publish"
)

// stubBackend implements Backend in memory for facade tests.
type stubBackend struct {
	posts       []model.MediaPost
	comments    map[int64][]model.Comment
	nextComment int64
	failList    bool
	failReload  bool // fail only list calls made after a mutation
	mutated     bool
	likes       map[string]int // "media:1" / "comment:2" -> like count
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		comments:    map[int64][]model.Comment{},
		nextComment: 100,
		likes:       map[string]int{},
	}
}

func (s *stubBackend) ListMedia(context.Context, int, int) ([]model.MediaPost, error) {
	if s.failList {
		return nil, fmt.Errorf("backend down")
	}
	return s.posts, nil
}

func (s *stubBackend) DeleteMedia(_ context.Context, mediaID int64) error {
	for i, p := range s.posts {
		if p.ID == mediaID {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func (s *stubBackend) LikeMedia(_ context.Context, mediaID int64, _ string) error {
	s.likes[fmt.Sprintf("media:%d", mediaID)]++
	return nil
}

func (s *stubBackend) UnlikeMedia(_ context.Context, mediaID int64, _ string) error {
	s.likes[fmt.Sprintf("media:%d", mediaID)]--
	return nil
}

func (s *stubBackend) CreateComment(_ context.Context, mediaID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	s.mutated = true
	s.nextComment++
	c := model.Comment{
		ID:              s.nextComment,
		Content:         req.Content,
		AuthorName:      req.AuthorName,
		ParentCommentID: req.ParentCommentID,
	}
	s.comments[mediaID] = append(s.comments[mediaID], c)
	return &c, nil
}

func (s *stubBackend) ListComments(_ context.Context, mediaID int64, _, _ int) ([]model.Comment, error) {
	if s.failList || (s.failReload && s.mutated) {
		return nil, fmt.Errorf("backend down")
	}
	return s.comments[mediaID], nil
}

func (s *stubBackend) UpdateComment(_ context.Context, commentID int64, content string) (*model.Comment, error) {
	s.mutated = true
	for mediaID, list := range s.comments {
		for i, c := range list {
			if c.ID == commentID {
				s.comments[mediaID][i].Content = content
				return &s.comments[mediaID][i], nil
			}
		}
	}
	return nil, api.ErrNotFound
}

func (s *stubBackend) DeleteComment(_ context.Context, commentID int64) error {
	s.mutated = true
	for mediaID, list := range s.comments {
		for i, c := range list {
			if c.ID == commentID {
				s.comments[mediaID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return api.ErrNotFound
}

func (s *stubBackend) LikeComment(_ context.Context, commentID int64, _ string) error {
	s.mutated = true
	s.likes[fmt.Sprintf("comment:%d", commentID)]++
	return nil
}

func (s *stubBackend) UnlikeComment(_ context.Context, commentID int64, _ string) error {
	s.mutated = true
	s.likes[fmt.Sprintf("comment:%d", commentID)]--
	return nil
}

// stubUploader implements publish.Uploader for facade-level publish tests.
type stubUploader struct {
	fail   bool
	nextID int64
}

func (s *stubUploader) UploadMedia(_ context.Context, up api.Upload) (*model.MediaPost, error) {
	if s.fail {
		return nil, fmt.Errorf("backend unreachable")
	}
	s.nextID++
	return &model.MediaPost{ID: s.nextID, MediaType: string(up.MediaType), Caption: up.Caption, Timestamp: 1000, Published: true}, nil
}

// facade bundles the handler under test with its collaborators.
type facade struct {
	mux     *http.ServeMux
	store   *library.Store
	backend *stubBackend
}

func newTestFacade(t *testing.T) *facade {
	t.Helper()
	store, err := library.NewStore(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	backend := newStubBackend()
	events := event.NewNoopPublisher()
	publisher := publish.New(store, &stubUploader{}, nil, events, slog.Default())
	cfg := config.Config{
		Env:              "test",
		UserName:         "alice",
		MaxCaptionLength: model.MaxCaptionLength,
		MaxCommentLength: model.MaxCommentLength,
	}
	return &facade{
		mux:     NewMux(cfg, store, publisher, backend, events),
		store:   store,
		backend: backend,
	}
}

func (f *facade) request(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData decodes the data envelope of a successful response into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v (data %s)", err, envelope.Data)
		}
	}
}

// errorCode extracts the error code of a failed response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

func (f *facade) writeAsset(t *testing.T, area library.Area, name string) string {
	t.Helper()
	path := filepath.Join(f.store.AreaDir(area), name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write media file: %v", err)
	}
	return path
}

func TestHealthz(t *testing.T) {
	f := newTestFacade(t)
	rec := f.request(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyz(t *testing.T) {
	f := newTestFacade(t)
	rec := f.request(t, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d want %d", rec.Code, http.StatusOK)
	}
}

// TestReadyzMissingArea verifies that readiness fails when a library area
// directory has gone away underneath the store.
func TestReadyzMissingArea(t *testing.T) {
	f := newTestFacade(t)
	if err := os.RemoveAll(f.store.AreaDir(library.AreaPhotos)); err != nil {
		t.Fatalf("failed to remove area dir: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestListAreaValidation verifies the area query validation and listing.
func TestListArea(t *testing.T) {
	f := newTestFacade(t)
	f.writeAsset(t, library.AreaPhotos, "photo_2000.jpg")
	f.writeAsset(t, library.AreaPhotos, "photo_1000.jpg")

	rec := f.request(t, http.MethodGet, "/v1/library?area=photos", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var listing []model.Metadata
	decodeData(t, rec, &listing)
	if len(listing) != 2 || listing[0].Filename != "photo_2000.jpg" {
		t.Errorf("listing: got %+v", listing)
	}

	rec = f.request(t, http.MethodGet, "/v1/library?area=downloads", nil)
	if got := errorCode(t, rec); got != "GLIMPSE_VALIDATION" {
		t.Errorf("error code: got %q want GLIMPSE_VALIDATION", got)
	}
}

// TestLoadMetaAbsent verifies that a sidecar-less asset reads as null data,
// not an error.
func TestLoadMetaAbsent(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPhotos, "photo_1.jpg")

	rec := f.request(t, http.MethodGet, "/v1/library/meta?uri="+uri, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data *model.Metadata `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Errorf("data: got %+v want null", envelope.Data)
	}
}

// TestSaveMetaMergesAndReturnsRecord verifies the PATCH merge flow.
func TestSaveMetaMergesAndReturnsRecord(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPhotos, "photo_1000.jpg")

	caption := "first light"
	rec := f.request(t, http.MethodPatch, "/v1/library/meta", metaPatchRequest{
		URI: uri, Patch: model.MetadataPatch{Caption: &caption},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var meta model.Metadata
	decodeData(t, rec, &meta)
	if meta.Caption != "first light" {
		t.Errorf("caption: got %q", meta.Caption)
	}
	if meta.Timestamp != 1000 {
		t.Errorf("synthesized timestamp: got %d want 1000", meta.Timestamp)
	}
}

// TestSaveMetaRejectsPublished verifies the immutability intercept: a PATCH
// against a published asset fails with a conflict before any sidecar I/O.
func TestSaveMetaRejectsPublished(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPublic, "photo_1000.jpg")
	published := true
	if ok := f.store.Save(uri, model.MetadataPatch{Published: &published}); !ok {
		t.Fatal("save failed")
	}

	caption := "sneaky edit"
	rec := f.request(t, http.MethodPatch, "/v1/library/meta", metaPatchRequest{
		URI: uri, Patch: model.MetadataPatch{Caption: &caption},
	})
	if got := errorCode(t, rec); got != "GLIMPSE_CONFLICT" {
		t.Errorf("error code: got %q want GLIMPSE_CONFLICT", got)
	}

	// The stored record is untouched.
	meta := f.store.Load(uri)
	if meta.Caption != "" {
		t.Errorf("caption after rejected edit: got %q want empty", meta.Caption)
	}
}

// TestSaveMetaCaptionLength verifies the caption length validation.
func TestSaveMetaCaptionLength(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPhotos, "photo_1.jpg")

	long := strings.Repeat("x", model.MaxCaptionLength+1)
	rec := f.request(t, http.MethodPatch, "/v1/library/meta", metaPatchRequest{
		URI: uri, Patch: model.MetadataPatch{Caption: &long},
	})
	if got := errorCode(t, rec); got != "GLIMPSE_CAPTION_LENGTH" {
		t.Errorf("error code: got %q want GLIMPSE_CAPTION_LENGTH", got)
	}
}

// TestSaveMetaInvalidLocation verifies the invalid-location failure.
func TestSaveMetaInvalidLocation(t *testing.T) {
	f := newTestFacade(t)

	caption := "nowhere"
	rec := f.request(t, http.MethodPatch, "/v1/library/meta", metaPatchRequest{
		URI: "/tmp/elsewhere/photo.jpg", Patch: model.MetadataPatch{Caption: &caption},
	})
	if got := errorCode(t, rec); got != "GLIMPSE_INVALID_LOCATION" {
		t.Errorf("error code: got %q want GLIMPSE_INVALID_LOCATION", got)
	}
}

// TestDeleteAsset verifies asset deletion through the facade.
func TestDeleteAssetEndpoint(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPhotos, "photo_1.jpg")

	rec := f.request(t, http.MethodDelete, "/v1/library/asset?uri="+uri, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(uri); !os.IsNotExist(err) {
		t.Errorf("asset still present: %v", err)
	}
}

// TestPublishEndpoint verifies the publish response body, including the
// cleanup field for a first publish with no original to clean.
func TestPublishEndpoint(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPhotos, "photo_1000.jpg")
	caption := "going public"
	if ok := f.store.Save(uri, model.MetadataPatch{Caption: &caption}); !ok {
		t.Fatal("save failed")
	}

	rec := f.request(t, http.MethodPost, "/v1/library/publish", uriRequest{URI: uri})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var resp publishResponse
	decodeData(t, rec, &resp)
	if resp.BackendID != 1 {
		t.Errorf("backend id: got %d want 1", resp.BackendID)
	}
	if resp.Cleanup != "skipped" {
		t.Errorf("cleanup: got %q want %q", resp.Cleanup, "skipped")
	}
	if got := f.store.Load(resp.PublicURI); got == nil || !got.Published {
		t.Errorf("public record: got %+v", got)
	}
}

// TestDuplicateEndpoint verifies the duplicate-then-edit flow through the
// facade.
func TestDuplicateEndpoint(t *testing.T) {
	f := newTestFacade(t)
	uri := f.writeAsset(t, library.AreaPublic, "photo_1000.jpg")
	published := true
	caption := "original"
	if ok := f.store.Save(uri, model.MetadataPatch{Published: &published, Caption: &caption}); !ok {
		t.Fatal("save failed")
	}

	rec := f.request(t, http.MethodPost, "/v1/library/duplicate", uriRequest{URI: uri})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var dup model.Metadata
	decodeData(t, rec, &dup)
	if dup.Published || dup.Caption != "original" || dup.OriginalURI != uri {
		t.Errorf("duplicate record: got %+v", dup)
	}
}

// TestFeedEndpoint verifies the feed passthrough and the upstream error
// mapping.
func TestFeedEndpoint(t *testing.T) {
	f := newTestFacade(t)
	f.backend.posts = []model.MediaPost{{ID: 2, Timestamp: 2000}, {ID: 1, Timestamp: 1000}}

	rec := f.request(t, http.MethodGet, "/v1/feed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var posts []model.MediaPost
	decodeData(t, rec, &posts)
	if len(posts) != 2 || posts[0].ID != 2 {
		t.Errorf("posts: got %+v", posts)
	}

	f.backend.failList = true
	rec = f.request(t, http.MethodGet, "/v1/feed", nil)
	if got := errorCode(t, rec); got != "GLIMPSE_UPSTREAM" {
		t.Errorf("error code: got %q want GLIMPSE_UPSTREAM", got)
	}
}

// TestFeedItemNotFound verifies the 404 mapping on feed deletes.
func TestFeedItemNotFound(t *testing.T) {
	f := newTestFacade(t)
	rec := f.request(t, http.MethodDelete, "/v1/feed/999", nil)
	if got := errorCode(t, rec); got != "GLIMPSE_NOT_FOUND" {
		t.Errorf("error code: got %q want GLIMPSE_NOT_FOUND", got)
	}
}

// TestCommentsThread verifies the assembled thread response, including the
// visible-rows count.
func TestCommentsThread(t *testing.T) {
	f := newTestFacade(t)
	parent := int64(1)
	f.backend.comments[7] = []model.Comment{
		{ID: 1, Content: "top", AuthorName: "bob"},
		{ID: 2, Content: "reply", AuthorName: "carol", ParentCommentID: &parent},
	}

	rec := f.request(t, http.MethodGet, "/v1/media/7/comments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var resp threadResponse
	decodeData(t, rec, &resp)
	if resp.TotalCount != 2 {
		t.Errorf("total count: got %d want 2", resp.TotalCount)
	}
	if len(resp.Thread.TopLevel) != 1 || len(resp.Thread.TopLevel[0].Replies) != 1 {
		t.Errorf("thread shape: got %+v", resp.Thread)
	}
}

// TestCreateCommentReloadsThread verifies that a create responds with the
// freshly reloaded thread containing the new comment.
func TestCreateCommentReloadsThread(t *testing.T) {
	f := newTestFacade(t)
	f.backend.comments[7] = []model.Comment{{ID: 1, Content: "top", AuthorName: "bob"}}

	rec := f.request(t, http.MethodPost, "/v1/media/7/comments", map[string]interface{}{
		"content": "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var resp threadResponse
	decodeData(t, rec, &resp)
	if resp.TotalCount != 2 {
		t.Errorf("total count after create: got %d want 2", resp.TotalCount)
	}
	// The facade's configured viewer identity is stamped as the author.
	last := resp.Thread.TopLevel[len(resp.Thread.TopLevel)-1]
	if last.AuthorName != "alice" {
		t.Errorf("author: got %q want %q", last.AuthorName, "alice")
	}
}

// TestCommentMutationPartialOnReloadFailure verifies the partial outcome:
// the mutation sticks, only the refreshed view is reported missing.
func TestCommentMutationPartialOnReloadFailure(t *testing.T) {
	f := newTestFacade(t)
	f.backend.comments[7] = []model.Comment{{ID: 1, Content: "top", AuthorName: "bob"}}
	f.backend.failReload = true

	rec := f.request(t, http.MethodPost, "/v1/media/7/comments", map[string]interface{}{
		"content": "hello",
	})
	if got := errorCode(t, rec); got != "GLIMPSE_PARTIAL" {
		t.Errorf("error code: got %q want GLIMPSE_PARTIAL", got)
	}
	if len(f.backend.comments[7]) != 2 {
		t.Errorf("comment not persisted: got %d want 2", len(f.backend.comments[7]))
	}
}

// TestCommentLikeRequiresMediaID verifies the media_id requirement on
// comment mutations.
func TestCommentLikeRequiresMediaID(t *testing.T) {
	f := newTestFacade(t)

	rec := f.request(t, http.MethodPost, "/v1/comments/5/like", nil)
	if got := errorCode(t, rec); got != "GLIMPSE_VALIDATION" {
		t.Errorf("error code: got %q want GLIMPSE_VALIDATION", got)
	}

	rec = f.request(t, http.MethodPost, "/v1/comments/5/like?media_id=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if f.backend.likes["comment:5"] != 1 {
		t.Errorf("like count: got %d want 1", f.backend.likes["comment:5"])
	}
}

// TestFiltersEndpoint verifies the built-in filter catalog is served.
func TestFiltersEndpoint(t *testing.T) {
	f := newTestFacade(t)

	rec := f.request(t, http.MethodGet, "/v1/filters", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var filters []model.Filter
	decodeData(t, rec, &filters)
	if len(filters) == 0 {
		t.Fatal("empty filter catalog")
	}
}

// TestCommentLengthValidation verifies the comment length bound.
func TestCommentLengthValidation(t *testing.T) {
	f := newTestFacade(t)

	rec := f.request(t, http.MethodPost, "/v1/media/7/comments", map[string]interface{}{
		"content": strings.Repeat("x", model.MaxCommentLength+1),
	})
	if got := errorCode(t, rec); got != "GLIMPSE_COMMENT_LENGTH" {
		t.Errorf("error code: got %q want GLIMPSE_COMMENT_LENGTH", got)
	}
}
