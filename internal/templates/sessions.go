package templates

import (
	"context"
	"sync"
)

// Sessions hands out session catalogs and serializes work per session.
type Sessions struct {
	store Store
	seed  *Seed
	opts  Options

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessions builds a session manager over store.
func NewSessions(store Store, seed *Seed, opts Options) *Sessions {
	return &Sessions{store: store, seed: seed, opts: opts, locks: make(map[string]*sessionLock)}
}

// View runs fn against the session catalog without persisting changes.
// Sessions without saved state see the seed catalog.
func (s *Sessions) View(ctx context.Context, sessionID string, fn func(*Catalog) error) error {
	return s.run(ctx, sessionID, false, fn)
}

// Update runs fn against the session catalog and saves the result when fn
// succeeds.
func (s *Sessions) Update(ctx context.Context, sessionID string, fn func(*Catalog) error) error {
	return s.run(ctx, sessionID, true, fn)
}

func (s *Sessions) run(ctx context.Context, sessionID string, persist bool, fn func(*Catalog) error) error {
	unlock := s.lock(sessionID)
	defer unlock()

	saved, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	var catalog *Catalog
	if ok {
		catalog = RestoreCatalog(s.seed, s.opts, saved)
	} else {
		catalog = NewCatalog(s.seed, s.opts)
	}

	if err := fn(catalog); err != nil {
		return err
	}
	if !persist {
		return nil
	}
	return s.store.Save(ctx, sessionID, catalog.templates)
}

func (s *Sessions) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
