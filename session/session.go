// Package session holds the per-session runtime state of the engine:
// the accumulating execution context, open-modal payload, summary popup
// state and the navigation stack.
package session

import (
	"sync"
	"time"

	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/nav"
	gocache "github.com/patrickmn/go-cache"
)

// Well-known context keys.
const (
	KeyFormData         = "formData"
	KeyFormGroupID      = "formGroupId"
	KeyUploadedFiles    = "uploadedFiles"
	KeyDropData         = "dropData"
	KeyPageID           = "pageId"
	KeyDBFindResult     = "dbFindResult"
	KeyLastUploadedFile = "lastUploadedFile"
)

// Session is the state of one runtime session. The execution context is
// owned and mutated by the execution engine only; concurrent
// invocations merge with last-write-wins semantics.
type Session struct {
	ID  string
	Nav *nav.Stack

	mu        sync.RWMutex
	data      map[string]any
	modal     map[string]any
	modalOpen bool
	summary   *model.Summary
}

func newSession(id string, pages *nav.Pages, startPage string) *Session {
	return &Session{
		ID:   id,
		Nav:  nav.NewStack(pages, startPage),
		data: make(map[string]any),
	}
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Snapshot returns a shallow copy of the accumulated context.
func (s *Session) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Merge folds the given values into the accumulated context.
func (s *Session) Merge(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = v
	}
}

// OpenModal merges the payload into any already-open modal rather than
// replacing it, so a later result can enrich what is on screen. It
// returns the merged payload.
func (s *Session) OpenModal(payload map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modalOpen || s.modal == nil {
		s.modal = make(map[string]any)
	}
	for k, v := range payload {
		s.modal[k] = v
	}
	s.modalOpen = true
	merged := make(map[string]any, len(s.modal))
	for k, v := range s.modal {
		merged[k] = v
	}
	return merged
}

// MergeOpenModal merges data into the modal only when one is open.
func (s *Session) MergeOpenModal(payload map[string]any) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modalOpen {
		return nil, false
	}
	for k, v := range payload {
		s.modal[k] = v
	}
	merged := make(map[string]any, len(s.modal))
	for k, v := range s.modal {
		merged[k] = v
	}
	return merged, true
}

func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalOpen = false
	s.modal = nil
}

func (s *Session) ModalOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modalOpen
}

func (s *Session) SetSummary(sum *model.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = sum
}

func (s *Session) Summary() *model.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Registry hands out sessions by id, creating them on first use and
// expiring idle ones after the configured TTL.
type Registry struct {
	mu        sync.Mutex
	cache     *gocache.Cache
	pages     *nav.Pages
	startPage string
}

func NewRegistry(pages *nav.Pages, startPage string, ttl time.Duration) *Registry {
	return &Registry{
		cache:     gocache.New(ttl, 10*time.Minute),
		pages:     pages,
		startPage: startPage,
	}
}

// Get returns the session for the id, creating it when absent. Each
// access refreshes the TTL.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, found := r.cache.Get(id); found {
		s := v.(*Session)
		r.cache.SetDefault(id, s)
		return s
	}
	s := newSession(id, r.pages, r.startPage)
	r.cache.SetDefault(id, s)
	return s
}
