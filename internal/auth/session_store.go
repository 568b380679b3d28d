package auth

import (
	"context"
	"log"
	"sync"

	"libras-quiz-service/internal/domain"
)

// Snapshot is the observable state of the session store.
type Snapshot struct {
	Identity  *domain.Identity
	Resolving bool
}

// SessionStore holds the currently authenticated identity for the process. It
// resolves any existing provider session asynchronously on construction and
// then follows provider change events until Close. There is one store per
// process, injected into consumers rather than reached for as a global.
type SessionStore struct {
	provider Provider

	mu        sync.RWMutex
	identity  *domain.Identity
	resolving bool
	closed    bool
	subs      map[chan Snapshot]struct{}

	unsubscribe func()
}

func NewSessionStore(provider Provider) *SessionStore {
	s := &SessionStore{
		provider:  provider,
		resolving: true,
		subs:      make(map[chan Snapshot]struct{}),
	}
	changes, cancel := provider.Changes()
	s.unsubscribe = cancel
	go s.watch(changes)
	go s.resolve()
	return s
}

// Current returns the identity (nil when signed out) and whether the initial
// resolution is still pending. While resolving, absence of an identity must
// not be read as "signed out".
func (s *SessionStore) Current() (*domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, s.resolving
	}
	identity := *s.identity
	return &identity, s.resolving
}

// Login sets the identity synchronously, ahead of the provider's own change
// push, so a successful sign-in is visible immediately.
func (s *SessionStore) Login(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.identity = &identity
	s.broadcastLocked()
}

// Logout clears the identity immediately and requests provider sign-out in the
// background; it does not wait for confirmation.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.identity = nil
	s.broadcastLocked()
	s.mu.Unlock()

	go func() {
		if err := s.provider.SignOut(context.Background()); err != nil {
			log.Printf("auth: provider sign-out: %v", err)
		}
	}()
}

// Subscribe delivers a snapshot immediately and then on every change. The
// cancel function must be called to avoid leaks.
func (s *SessionStore) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close detaches from the provider and drops all subscribers.
func (s *SessionStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
	s.unsubscribe()
}

func (s *SessionStore) resolve() {
	session, err := s.provider.CurrentSession(context.Background())
	if err != nil {
		log.Printf("auth: resolve session: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if session != nil && s.identity == nil {
		identity := session.Identity
		s.identity = &identity
	}
	s.resolving = false
	s.broadcastLocked()
}

func (s *SessionStore) watch(changes <-chan Change) {
	for change := range changes {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		switch change.Kind {
		case SignedIn:
			if change.Session != nil {
				identity := change.Session.Identity
				s.identity = &identity
			}
		case SignedOut:
			s.identity = nil
		}
		s.broadcastLocked()
		s.mu.Unlock()
	}
}

func (s *SessionStore) snapshotLocked() Snapshot {
	snap := Snapshot{Resolving: s.resolving}
	if s.identity != nil {
		identity := *s.identity
		snap.Identity = &identity
	}
	return snap
}

func (s *SessionStore) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
