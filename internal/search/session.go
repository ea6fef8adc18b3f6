package search

import (
	"sync"
	"time"

	"github.com/foxxcyber/deal-finder/internal/catalog"
	"github.com/foxxcyber/deal-finder/internal/models"
)

// Session is one browsing view: it owns a QueryState, debounces the search
// box, and re-runs the catalog query whenever the state settles.
type Session struct {
	products func() []models.Product
	sink     func(models.QueryResult, error)

	mu    sync.Mutex
	state models.QueryState

	debouncer *Debouncer
}

// NewSession creates a Session. products is called for a fresh snapshot on
// every query; sink receives each result.
func NewSession(state models.QueryState, quiet time.Duration, products func() []models.Product, sink func(models.QueryResult, error)) *Session {
	s := &Session{products: products, sink: sink, state: state}
	s.debouncer = NewDebouncer(quiet, s.commitSearch)
	return s
}

// Type records a keystroke-level change of the search text.
func (s *Session) Type(text string) {
	s.debouncer.Push(text)
}

// Submit commits the typed text immediately.
func (s *Session) Submit() {
	s.debouncer.Flush()
}

// Update changes non-search fields of the state and queries right away.
// Page is set to 1 before mutate runs, so filter changes go back to the
// first page unless mutate picks a page itself.
func (s *Session) Update(mutate func(*models.QueryState)) {
	s.mu.Lock()
	s.state.Page = 1
	mutate(&s.state)
	st := s.state
	s.mu.Unlock()

	s.run(st)
}

// GoToPage moves to page without touching the filters.
func (s *Session) GoToPage(page int) {
	s.mu.Lock()
	s.state.Page = page
	st := s.state
	s.mu.Unlock()

	s.run(st)
}

// State returns a copy of the current state.
func (s *Session) State() models.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Brands = append([]string(nil), s.state.Brands...)
	return st
}

// Close discards pending search input.
func (s *Session) Close() {
	s.debouncer.Close()
}

func (s *Session) commitSearch(text string) {
	s.mu.Lock()
	s.state.SearchText = text
	s.state.Page = 1
	st := s.state
	s.mu.Unlock()

	s.run(st)
}

func (s *Session) run(st models.QueryState) {
	res, err := catalog.Query(s.products(), st)
	s.sink(res, err)
}
