// Package playback provides a time cursor over a decoded event track.
package playback

import (
	"fmt"

	"github.com/yagago/host/internal/evb"
)

// Cursor tracks elapsed playback time over a shared track. It does not own
// the track and never maps time to a record index; callers do that.
type Cursor struct {
	id      uint32
	track   *evb.Track
	elapsed float64
}

// Open creates a cursor at time zero.
func Open(track *evb.Track) *Cursor {
	return &Cursor{track: track}
}

// OpenWithID creates a cursor carrying an identifier used as the source
// device of stream envelopes.
func OpenWithID(id uint32, track *evb.Track) *Cursor {
	return &Cursor{id: id, track: track}
}

func (c *Cursor) ID() uint32 { return c.id }

func (c *Cursor) Track() *evb.Track { return c.track }

// Elapsed returns the accumulated playback time in milliseconds.
func (c *Cursor) Elapsed() float64 { return c.elapsed }

// Run restarts playback from the top.
func (c *Cursor) Run() {
	c.elapsed = 0
}

// Seek advances elapsed time by deltaMs. It is relative, not absolute.
func (c *Cursor) Seek(deltaMs float64) {
	c.elapsed += deltaMs
}

// FetchScripted returns the scripted payload stored at index i.
// A missing record or a mask record yields evb.ErrLookupMiss.
func (c *Cursor) FetchScripted(i int) (*evb.Scripted, error) {
	r, err := c.fetch(i, evb.KindScripted)
	if err != nil {
		return nil, err
	}
	return r.Scripted, nil
}

// FetchMask returns the mask payload stored at index i.
// A missing record or a scripted record yields evb.ErrLookupMiss.
func (c *Cursor) FetchMask(i int) (evb.Mask, error) {
	r, err := c.fetch(i, evb.KindMask)
	if err != nil {
		return evb.Mask{}, err
	}
	return r.Mask, nil
}

func (c *Cursor) fetch(i int, want evb.Kind) (evb.Record, error) {
	r, ok := c.track.Record(i)
	if !ok {
		return evb.Record{}, fmt.Errorf("record %d of %d: %w", i, c.track.Len(), evb.ErrLookupMiss)
	}
	if r.Kind != want {
		return evb.Record{}, fmt.Errorf("record %d is %v, want %v: %w", i, r.Kind, want, evb.ErrLookupMiss)
	}
	return r, nil
}
