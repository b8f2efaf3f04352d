// internal/comments/thread.go
// Package comments assembles the flat (or backend-pre-grouped) comment list
// of a post into the two-level thread the rendering layer consumes. The
// thread is derived state: it is rebuilt from scratch on every load and
// never persisted or locally patched after a mutation.
package comments

import (
	"log/slog"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// Reply is one second-level comment. Replies carry no further replies; the
// two-level hierarchy is modeled in the types rather than enforced by
// convention.
type Reply struct {
	model.Comment
}

// TopLevel is one first-level comment together with its direct replies,
// in the order the backend returned them. The outer Replies field shadows
// the embedded wire field so an assembled entry always serializes its
// typed reply list.
type TopLevel struct {
	model.Comment
	Replies []Reply `json:"replies"`
}

// Thread is the materialized two-level view of a post's comments.
// Top-level entries keep the backend's ordering; the assembler never
// re-sorts locally, to avoid diverging from the backend's ordering contract.
type Thread struct {
	TopLevel []TopLevel `json:"topLevel"`
}

// TotalCount returns the literal number of comment rows a user would see
// with every reply list expanded: each top-level comment counts itself plus
// its direct replies.
func (t Thread) TotalCount() int {
	n := 0
	for _, top := range t.TopLevel {
		n += 1 + len(top.Replies)
	}
	return n
}

// Assembler builds threads from backend comment lists.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates a thread assembler. A nil logger falls back to the
// default logger.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Build assembles a thread from the list returned by the backend. Each
// input comment is either top-level (nil parent) or a reply; replies may
// arrive inline on their parent's Replies field, as flat entries referencing
// a parent, or both.
//
// The backend is expected never to nest deeper than two levels. Should a
// reply reference another reply anyway, it is attached to the nearest
// top-level ancestor when the backend's own grouping makes that
// determinable, and otherwise dropped with a logged warning. The assembler
// never nests further.
func (a *Assembler) Build(flat []model.Comment) Thread {
	thread := Thread{TopLevel: make([]TopLevel, 0, len(flat))}

	// byID maps every seen comment ID to the index of the top-level entry
	// it belongs to, letting flat replies find their parent and deep
	// replies find their nearest top-level ancestor.
	byID := make(map[int64]int)

	for _, c := range flat {
		if c.ParentCommentID == nil {
			idx := len(thread.TopLevel)
			top := TopLevel{Comment: c}
			top.Comment.Replies = nil
			byID[c.ID] = idx

			// Backend-grouped replies stay in the order given.
			for _, r := range c.Replies {
				if len(r.Replies) > 0 {
					a.logger.Warn("nested replies flattened under top-level ancestor",
						"comment_id", r.ID, "flattened", len(r.Replies))
				}
				reply := Reply{Comment: r}
				reply.Comment.Replies = nil
				top.Replies = append(top.Replies, reply)
				byID[r.ID] = idx
				for _, deep := range r.Replies {
					if len(deep.Replies) > 0 {
						a.logger.Warn("replies nested too deep dropped",
							"comment_id", deep.ID, "dropped", len(deep.Replies))
					}
					deepReply := Reply{Comment: deep}
					deepReply.Comment.Replies = nil
					top.Replies = append(top.Replies, deepReply)
					byID[deep.ID] = idx
				}
			}
			thread.TopLevel = append(thread.TopLevel, top)
			continue
		}

		// Flat reply: attach under the top-level entry its parent resolved
		// to. A parent that is itself a reply resolves to the same ancestor.
		idx, ok := byID[*c.ParentCommentID]
		if !ok {
			a.logger.Warn("reply with unknown parent dropped",
				"comment_id", c.ID, "parent_comment_id", *c.ParentCommentID)
			continue
		}
		reply := Reply{Comment: c}
		reply.Comment.Replies = nil
		thread.TopLevel[idx].Replies = append(thread.TopLevel[idx].Replies, reply)
		byID[c.ID] = idx
	}

	return thread
}
