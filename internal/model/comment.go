// internal/model/comment.go
// Comment types mirror the backend's wire shapes. The backend owns these
// records; the client only holds transient copies while rendering a thread.
package model

import "time"

// MaxCommentLength bounds comment content accepted by the backend.
const MaxCommentLength = 2200

// CommentLike is one like on a comment. Membership by UserName determines
// whether the current viewer has liked the comment.
type CommentLike struct {
	UserName  string    `json:"user_name"`  // User who liked the comment
	CreatedAt time.Time `json:"created_at"` // When the like was created
}

// Comment is one user comment on a media post.
// ParentCommentID is nil for top-level comments. The backend enforces a flat
// two-level hierarchy: a comment with a non-nil parent is never itself a parent.
type Comment struct {
	ID              int64         `json:"id"`                          // Backend-assigned identifier
	Content         string        `json:"content"`                     // Comment text, bounded length
	AuthorName      string        `json:"author_name"`                 // Display name of the author
	ParentCommentID *int64        `json:"parent_comment_id,omitempty"` // Nil for top-level comments
	CreatedAt       time.Time     `json:"created_at"`                  // When the comment was created
	UpdatedAt       time.Time     `json:"updated_at"`                  // When the comment was last edited
	LikesCount      int           `json:"likes_count"`                 // Number of likes
	Likes           []CommentLike `json:"likes,omitempty"`             // Individual like records
	Replies         []Comment     `json:"replies,omitempty"`           // Backend-grouped direct replies
}

// LikedBy reports whether userName appears in the comment's like records.
func (c Comment) LikedBy(userName string) bool {
	for _, l := range c.Likes {
		if l.UserName == userName {
			return true
		}
	}
	return false
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content         string `json:"content"`
	AuthorName      string `json:"author_name"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

// UpdateCommentRequest is the request body for editing a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}
