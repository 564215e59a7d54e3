package asset

import (
	"fmt"
	"path"
	"strings"

	"github.com/yagago/host/internal/evb"
	"go.uber.org/zap"
)

// Resource is a loaded asset occupying one slot of the resource table.
// Event tracks are decoded on load and live as long as the resource.
type Resource struct {
	Handle int
	Path   string

	data  []byte
	track *evb.Track
	store *Store
}

// Bytes returns the raw asset contents. For event tracks it is nil.
func (r *Resource) Bytes() []byte { return r.data }

// Track returns the decoded event track, or nil for other assets.
func (r *Resource) Track() *evb.Track { return r.track }

// Release frees the resource slot. The track must not be used afterwards.
func (r *Resource) Release() {
	if r.store == nil {
		return
	}
	r.store.release(r)
	r.store = nil
	r.data = nil
	r.track = nil
}

// trackPath maps a script-facing ".evt" name to the binary ".evb" file.
func trackPath(name string) (string, bool) {
	if strings.EqualFold(path.Ext(name), ".evt") {
		return name[:len(name)-1] + "b", true
	}
	return name, strings.EqualFold(path.Ext(name), ".evb")
}

// Load reads the named asset into a new resource slot. Event tracks are
// decoded; a malformed track fails the load and no slot is used.
func (s *Store) Load(name string) (*Resource, error) {
	p, isTrack := trackPath(name)
	data, err := s.ReadAll(p)
	if err != nil {
		return nil, err
	}
	res := &Resource{Path: p, store: s}
	if isTrack {
		t, err := evb.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		res.track = t
		s.log.Debug("event track loaded", zap.String("path", p), zap.Int("records", t.Len()))
	} else {
		res.data = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.free) == 0 {
		return nil, fmt.Errorf("load %s: %w", p, ErrTooManyOpen)
	}
	res.Handle = s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.resources[res.Handle] = res
	return res, nil
}

// LoadTrack loads and decodes an event track. The returned track is not
// tied to a resource slot.
func (s *Store) LoadTrack(name string) (*evb.Track, error) {
	p, _ := trackPath(name)
	rc, err := s.Open(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := evb.DecodeFrom(rc)
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", p, err)
	}
	return t, nil
}

// Resource returns the live resource with the given handle.
func (s *Store) Resource(handle int) (*Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle < 0 || handle >= len(s.resources) || s.resources[handle] == nil {
		return nil, false
	}
	return s.resources[handle], true
}

// OpenResources returns the number of occupied slots.
func (s *Store) OpenResources() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources) - len(s.free)
}

func (s *Store) release(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resources[r.Handle] != r {
		return
	}
	s.resources[r.Handle] = nil
	s.free = append(s.free, r.Handle)
}
