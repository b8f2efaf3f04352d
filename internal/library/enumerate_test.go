// internal/library/enumerate_test.go
package library

import (
	"testing"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
)

// TestEnumerateAreaSynthesizesMissingSidecars verifies that a listing never
// hides an asset just because it has no sidecar.
func TestEnumerateAreaSynthesizesMissingSidecars(t *testing.T) {
	store := newTestStore(t)

	annotated := writeTestMedia(t, store, AreaPhotos, "photo_2000.jpg")
	writeTestMedia(t, store, AreaPhotos, "photo_1000.jpg")
	if ok := store.Save(annotated, model.MetadataPatch{Caption: strPtr("captioned")}); !ok {
		t.Fatal("save failed")
	}

	listing := store.EnumerateArea(AreaPhotos)
	if len(listing) != 2 {
		t.Fatalf("listing length: got %d want 2", len(listing))
	}

	// Newest first: photo_2000 carries the later timestamp.
	if listing[0].Filename != "photo_2000.jpg" {
		t.Errorf("first entry: got %q want %q", listing[0].Filename, "photo_2000.jpg")
	}
	if listing[0].Caption != "captioned" {
		t.Errorf("annotated entry caption: got %q want %q", listing[0].Caption, "captioned")
	}

	// The sidecar-less file appears with a synthesized record.
	if listing[1].Filename != "photo_1000.jpg" {
		t.Errorf("second entry: got %q want %q", listing[1].Filename, "photo_1000.jpg")
	}
	if listing[1].Timestamp != 1000 {
		t.Errorf("synthesized timestamp: got %d want 1000", listing[1].Timestamp)
	}
	if listing[1].MediaKind != model.MediaPhoto {
		t.Errorf("synthesized kind: got %v want %v", listing[1].MediaKind, model.MediaPhoto)
	}
}

// TestEnumerateAreaSkipsSidecarFiles verifies that sidecar JSON files do not
// show up as media assets.
func TestEnumerateAreaSkipsSidecarFiles(t *testing.T) {
	store := newTestStore(t)

	uri := writeTestMedia(t, store, AreaVideos, "video_500.mp4")
	if ok := store.Save(uri, model.MetadataPatch{Caption: strPtr("clip")}); !ok {
		t.Fatal("save failed")
	}

	listing := store.EnumerateArea(AreaVideos)
	if len(listing) != 1 {
		t.Fatalf("listing length: got %d want 1", len(listing))
	}
	if listing[0].MediaKind != model.MediaVideo {
		t.Errorf("kind: got %v want %v", listing[0].MediaKind, model.MediaVideo)
	}
}

// TestEnumerateAreaTieBreak verifies the deterministic filename tie-break
// when timestamps collide.
func TestEnumerateAreaTieBreak(t *testing.T) {
	store := newTestStore(t)
	writeTestMedia(t, store, AreaPhotos, "b_100.jpg")
	writeTestMedia(t, store, AreaPhotos, "a_100.jpg")

	listing := store.EnumerateArea(AreaPhotos)
	if len(listing) != 2 {
		t.Fatalf("listing length: got %d want 2", len(listing))
	}
	if listing[0].Filename != "a_100.jpg" || listing[1].Filename != "b_100.jpg" {
		t.Errorf("tie-break order: got [%q %q]", listing[0].Filename, listing[1].Filename)
	}
}

func TestTimestampFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     int64
	}{
		{"photo_1712345678901.jpg", 1712345678901},
		{"video_1712345678901_2.mp4", 1712345678901}, // longest digit run wins
		{"nodigits.jpg", 0},
		{"IMG_0042.jpg", 42},
	}
	for _, tc := range cases {
		if got := timestampFromFilename(tc.filename); got != tc.want {
			t.Errorf("timestampFromFilename(%q): got %d want %d", tc.filename, got, tc.want)
		}
	}
}

func TestKindFromExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     model.MediaKind
	}{
		{"a.jpg", model.MediaPhoto},
		{"a.HEIC", model.MediaPhoto},
		{"a.mp4", model.MediaVideo},
		{"a.mov", model.MediaVideo},
		{"a.bin", model.MediaPhoto}, // unknown extensions default to photo
	}
	for _, tc := range cases {
		if got := kindFromExtension(tc.filename); got != tc.want {
			t.Errorf("kindFromExtension(%q): got %v want %v", tc.filename, got, tc.want)
		}
	}
}
