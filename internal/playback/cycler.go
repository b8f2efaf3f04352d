// internal/playback/cycler.go
// Package playback provides segment ordering for multi-segment video
// records: segments play back-to-back in order and loop back to the first
// after the last finishes.
package playback

// Cycler walks a fixed segment list in order, looping forever. The zero
// value is an empty cycler whose Current returns "".
type Cycler struct {
	segments []string
	index    int
}

// NewCycler creates a cycler over the given segments. The slice is copied;
// later mutation of the caller's slice does not affect playback order.
func NewCycler(segments []string) *Cycler {
	copied := make([]string, len(segments))
	copy(copied, segments)
	return &Cycler{segments: copied}
}

// Len returns the number of segments.
func (c *Cycler) Len() int {
	return len(c.segments)
}

// Current returns the segment that should be playing now, or "" for an
// empty cycler.
func (c *Cycler) Current() string {
	if len(c.segments) == 0 {
		return ""
	}
	return c.segments[c.index]
}

// Advance moves to the next segment in response to a "finished" event and
// returns it, wrapping to the first segment after the last.
func (c *Cycler) Advance() string {
	if len(c.segments) == 0 {
		return ""
	}
	c.index = (c.index + 1) % len(c.segments)
	return c.segments[c.index]
}
