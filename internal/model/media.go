// internal/model/media.go
// Package model defines the data structures used throughout the Glimpse client core.
// These structures represent the core domain objects for locally held media,
// their sidecar metadata, and the comment threads fetched from the backend.
package model

// MediaKind identifies the kind of a media asset.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo" // Still photo
	MediaVideo MediaKind = "video" // Video, possibly multi-segment
)

// Valid reports whether the kind is one of the known media kinds.
func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// MaxCaptionLength bounds caption text stored in a sidecar or sent to the backend.
const MaxCaptionLength = 2200

// EmojiOverlay is one emoji placed on top of a media asset.
// Placement is stored as fractions of the rendered media size so the overlay
// survives display-size changes between devices.
type EmojiOverlay struct {
	ID        string  `json:"id"`        // Unique overlay identifier (UUID)
	Glyph     string  `json:"glyph"`     // The emoji glyph itself
	XFraction float64 `json:"xFraction"` // Horizontal placement in [0,1]
	YFraction float64 `json:"yFraction"` // Vertical placement in [0,1]
	Scale     float64 `json:"scale"`     // Positive size multiplier
}

// Metadata is the sidecar record kept alongside each locally held media asset.
// It carries the authored presentation state (caption, emoji overlays), the
// publish state, and the backend linkage once the asset has been uploaded.
//
// A record with Published set must carry a BackendID once the publish
// round-trip completes; a failed upload leaves Published false.
type Metadata struct {
	URI         string         `json:"uri"`                   // Locator of the primary media file
	Filename    string         `json:"filename"`              // Base name derived from URI
	Timestamp   int64          `json:"timestamp"`             // Creation time, Unix milliseconds
	MediaKind   MediaKind      `json:"mediaKind"`             // photo or video
	Caption     string         `json:"caption,omitempty"`     // Optional caption text
	Emojis      []EmojiOverlay `json:"emojis,omitempty"`      // Ordered emoji overlays
	Published   bool           `json:"published"`             // True once uploaded and public
	BackendID   *int64         `json:"backendId,omitempty"`   // Backend identifier, set on publish
	Segments    []string       `json:"segments,omitempty"`    // Ordered segment URIs for multi-clip video
	OriginalURI string         `json:"originalUri,omitempty"` // Set when duplicated from another asset
}

// MetadataPatch is a field-level partial update applied to a sidecar record.
// Nil fields leave the stored value untouched; non-nil fields overwrite it.
// This is a merge, not a replace: saving a patch with only Caption set never
// clobbers stored emoji overlays or segments.
type MetadataPatch struct {
	Caption     *string         `json:"caption,omitempty"`
	Emojis      *[]EmojiOverlay `json:"emojis,omitempty"`
	Published   *bool           `json:"published,omitempty"`
	BackendID   *int64          `json:"backendId,omitempty"`
	Timestamp   *int64          `json:"timestamp,omitempty"`
	MediaKind   *MediaKind      `json:"mediaKind,omitempty"`
	Segments    *[]string       `json:"segments,omitempty"`
	OriginalURI *string         `json:"originalUri,omitempty"`
}

// Apply overlays the non-nil patch fields onto the record.
func (p MetadataPatch) Apply(m *Metadata) {
	if p.Caption != nil {
		m.Caption = *p.Caption
	}
	if p.Emojis != nil {
		m.Emojis = *p.Emojis
	}
	if p.Published != nil {
		m.Published = *p.Published
	}
	if p.BackendID != nil {
		m.BackendID = p.BackendID
	}
	if p.Timestamp != nil {
		m.Timestamp = *p.Timestamp
	}
	if p.MediaKind != nil {
		m.MediaKind = *p.MediaKind
	}
	if p.Segments != nil {
		m.Segments = *p.Segments
	}
	if p.OriginalURI != nil {
		m.OriginalURI = *p.OriginalURI
	}
}
