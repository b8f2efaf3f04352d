// internal/api/comments.go
// Comment endpoints: create, list, edit, delete, and likes. The client
// never patches fetched lists after a mutation; callers re-fetch and
// rebuild the thread, trading efficiency for consistency simplicity.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// CreateComment posts a new comment (or reply, when ParentCommentID is set)
// on a media post and returns the created record.
func (c *Client) CreateComment(ctx context.Context, mediaID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var created model.Comment
	if err := c.sendJSON(ctx, http.MethodPost,
		fmt.Sprintf("/api/media/%d/comments", mediaID), bytes.NewReader(body), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListComments returns a page of comments for a media post, each optionally
// carrying its backend-grouped replies and like records.
func (c *Client) ListComments(ctx context.Context, mediaID int64, skip, limit int) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var comments []model.Comment
	if err := c.getJSON(ctx, fmt.Sprintf("/api/media/%d/comments?%s", mediaID, q.Encode()), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateComment edits a comment's content and returns the updated record.
func (c *Client) UpdateComment(ctx context.Context, commentID int64, content string) (*model.Comment, error) {
	body, err := json.Marshal(model.UpdateCommentRequest{Content: content})
	if err != nil {
		return nil, err
	}
	var updated model.Comment
	if err := c.sendJSON(ctx, http.MethodPut,
		fmt.Sprintf("/api/comments/%d", commentID), bytes.NewReader(body), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), nil, nil)
}

// LikeComment records a like on a comment for the given user.
func (c *Client) LikeComment(ctx context.Context, commentID int64, userName string) error {
	q := url.Values{}
	q.Set("user_name", userName)
	return c.sendJSON(ctx, http.MethodPost,
		fmt.Sprintf("/api/comments/%d/like?%s", commentID, q.Encode()), nil, nil)
}

// UnlikeComment removes the given user's like from a comment.
func (c *Client) UnlikeComment(ctx context.Context, commentID int64, userName string) error {
	q := url.Values{}
	q.Set("user_name", userName)
	return c.sendJSON(ctx, http.MethodDelete,
		fmt.Sprintf("/api/comments/%d/like?%s", commentID, q.Encode()), nil, nil)
}
