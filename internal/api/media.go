// internal/api/media.go
// Media endpoints: multipart upload, feed listing, deletion, and likes.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// Upload describes one media upload: the local file plus the authored
// presentation state that travels with it.
type Upload struct {
	FilePath  string               // Local path of the media file to upload
	MediaType model.MediaKind      // photo or video
	Caption   string               // Caption text
	Emojis    []model.EmojiOverlay // Emoji overlays, JSON-encoded into the form
}

// UploadMedia uploads a media file as multipart form data and returns the
// created backend record. Only called when the user makes media public;
// private media never leaves the device.
func (c *Client) UploadMedia(ctx context.Context, up Upload) (*model.MediaPost, error) {
	f, err := os.Open(up.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(up.FilePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}

	fields := map[string]string{
		"media_type": string(up.MediaType),
		"caption":    up.Caption,
		"emojis":     model.EncodeOverlays(up.Emojis),
		"published":  "true",
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var post model.MediaPost
	if err := decodeResponse(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListMedia returns a page of the published media feed, newest first.
func (c *Client) ListMedia(ctx context.Context, skip, limit int) ([]model.MediaPost, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var posts []model.MediaPost
	if err := c.getJSON(ctx, "/api/media?"+q.Encode(), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeleteMedia removes a published media post from the backend.
func (c *Client) DeleteMedia(ctx context.Context, mediaID int64) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/media/%d", mediaID), nil, nil)
}

// LikeMedia records a like on a media post for the given user.
func (c *Client) LikeMedia(ctx context.Context, mediaID int64, userName string) error {
	q := url.Values{}
	q.Set("user_name", userName)
	return c.sendJSON(ctx, http.MethodPost,
		fmt.Sprintf("/api/media/%d/like?%s", mediaID, q.Encode()), nil, nil)
}

// UnlikeMedia removes the given user's like from a media post.
func (c *Client) UnlikeMedia(ctx context.Context, mediaID int64, userName string) error {
	q := url.Values{}
	q.Set("user_name", userName)
	return c.sendJSON(ctx, http.MethodDelete,
		fmt.Sprintf("/api/media/%d/like?%s", mediaID, q.Encode()), nil, nil)
}
