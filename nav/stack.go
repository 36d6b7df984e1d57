// Package nav tracks per-session page navigation driven by redirect and
// goBack side effects.
package nav

import (
	"errors"
	"sync"
)

var (
	ErrUnknownPage = errors.New("unknown page")
	ErrEmptyStack  = errors.New("navigation stack empty")
)

// Pages is the set of page ids known to the runtime. The rendering
// layer owns the canvas document and syncs the set over the REST surface.
type Pages struct {
	mu    sync.RWMutex
	known map[string]bool
}

func NewPages(ids ...string) *Pages {
	p := &Pages{known: make(map[string]bool)}
	p.Replace(ids)
	return p
}

func (p *Pages) Replace(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known = make(map[string]bool, len(ids))
	for _, id := range ids {
		p.known[id] = true
	}
}

func (p *Pages) Has(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.known[id]
}

// Stack holds the previous pages of one session. The current page is
// tracked separately and is never stored in the stack itself.
type Stack struct {
	mu      sync.Mutex
	pages   *Pages
	current string
	prev    []string
}

func NewStack(pages *Pages, start string) *Stack {
	return &Stack{pages: pages, current: start}
}

func (s *Stack) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prev)
}

// NavigateTo validates the target, pushes the current page and switches.
// An unknown target leaves the stack and current page untouched.
func (s *Stack) NavigateTo(target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pages.Has(target) {
		return ErrUnknownPage
	}
	s.prev = append(s.prev, s.current)
	s.current = target
	return nil
}

// GoBack pops the most recent previous page and returns it. An empty
// stack returns ErrEmptyStack (a no-op for callers). A popped page that
// is no longer known is still discarded; the current page stays put.
func (s *Stack) GoBack() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prev) == 0 {
		return "", ErrEmptyStack
	}
	popped := s.prev[len(s.prev)-1]
	s.prev = s.prev[:len(s.prev)-1]
	if !s.pages.Has(popped) {
		return popped, ErrUnknownPage
	}
	s.current = popped
	return popped, nil
}
