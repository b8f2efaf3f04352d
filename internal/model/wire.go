// internal/model/wire.go
// Wire shapes for the backend media API. The emojis field travels as a
// JSON-encoded string inside the JSON body, matching the backend's storage
// of overlays as an opaque text column.
package model

import "encoding/json"

// MediaPost is one published media record as returned by the backend feed.
type MediaPost struct {
	ID         int64  `json:"id"`         // Backend-assigned identifier
	Filename   string `json:"filename"`   // Backend-side filename
	MediaType  string `json:"media_type"` // "photo" or "video"
	Caption    string `json:"caption"`    // Caption text
	Emojis     string `json:"emojis"`     // JSON-encoded []EmojiOverlay
	Timestamp  int64  `json:"timestamp"`  // Creation time, Unix milliseconds
	Published  bool   `json:"published"`  // Always true for feed entries
	URL        string `json:"url"`        // Served media location
	LikesCount int    `json:"likes_count"`
}

// Overlays decodes the JSON-encoded emojis column. A malformed or empty
// value decodes to no overlays rather than an error; the post still renders.
func (p MediaPost) Overlays() []EmojiOverlay {
	if p.Emojis == "" {
		return nil
	}
	var out []EmojiOverlay
	if err := json.Unmarshal([]byte(p.Emojis), &out); err != nil {
		return nil
	}
	return out
}

// EncodeOverlays produces the emojis form field value for an upload.
// An empty overlay list encodes as "[]" to match the backend default.
func EncodeOverlays(overlays []EmojiOverlay) string {
	if len(overlays) == 0 {
		return "[]"
	}
	b, err := json.Marshal(overlays)
	if err != nil {
		return "[]"
	}
	return string(b)
}
