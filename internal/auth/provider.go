// Package auth owns the identity boundary: the provider that issues sessions,
// the process-wide session store fed by provider change events, and the access
// gate in front of protected surfaces.
package auth

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"libras-quiz-service/internal/domain"
)

// Session is an issued credential plus the identity it belongs to.
type Session struct {
	Token     string          `json:"token"`
	Identity  domain.Identity `json:"identity"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ChangeKind tags provider change events.
type ChangeKind string

const (
	SignedIn  ChangeKind = "signed_in"
	SignedOut ChangeKind = "signed_out"
)

// Change is a provider-pushed session change.
type Change struct {
	Kind    ChangeKind
	Session *Session // nil on sign-out
}

// Provider is the identity collaborator. Only these five operations are
// consumed by the rest of the system.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password, name string) (Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	Changes() (<-chan Change, func())
}

// UserRepository stores credential records.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

// ProfileWriter creates the profile row that accompanies a new account.
type ProfileWriter interface {
	CreateProfile(ctx context.Context, p domain.Profile) error
}

// LocalProvider implements Provider against the local user store with bcrypt
// passwords and JWT sessions.
type LocalProvider struct {
	users    UserRepository
	profiles ProfileWriter
	hasher   *PasswordHasher
	tokens   *TokenManager

	mu      sync.RWMutex
	current *Session
	subs    map[chan Change]struct{}
}

func NewLocalProvider(users UserRepository, profiles ProfileWriter, hasher *PasswordHasher, tokens *TokenManager) *LocalProvider {
	return &LocalProvider{
		users:    users,
		profiles: profiles,
		hasher:   hasher,
		tokens:   tokens,
		subs:     make(map[chan Change]struct{}),
	}
}

// SignIn validates the password and issues a session. Unknown accounts and
// wrong passwords both collapse to domain.ErrInvalidCredentials.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := p.users.UserByEmail(ctx, email)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err := p.hasher.Compare(user.PasswordHash, password); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return p.issue(user)
}

// SignUp creates the credential record plus its profile row (total score 0)
// and signs the new account in. A failed profile insert is logged but does not
// roll back the account.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if err := p.profiles.CreateProfile(ctx, domain.Profile{ID: user.ID, Name: name, TotalScore: 0}); err != nil {
		log.Printf("auth: create profile for %s: %v", user.ID, err)
	}

	return p.issue(user)
}

// SignOut clears the current session and notifies subscribers.
func (p *LocalProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.broadcastLocked(Change{Kind: SignedOut})
	p.mu.Unlock()
	return nil
}

// CurrentSession returns the live session, or nil when there is none or it has
// expired.
func (p *LocalProvider) CurrentSession(_ context.Context) (*Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil || time.Now().After(p.current.ExpiresAt) {
		return nil, nil
	}
	session := *p.current
	return &session, nil
}

// Changes subscribes to session change events. The cancel function must be
// called to avoid leaks.
func (p *LocalProvider) Changes() (<-chan Change, func()) {
	ch := make(chan Change, 8)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

// Verify resolves a bearer token to the identity it was issued for.
func (p *LocalProvider) Verify(ctx context.Context, token string) (domain.Identity, error) {
	userID, err := p.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{ID: userID}, nil
}

func (p *LocalProvider) issue(user domain.User) (Session, error) {
	token, expiresAt, err := p.tokens.Generate(user.ID)
	if err != nil {
		return Session{}, err
	}
	session := Session{
		Token:     token,
		Identity:  domain.Identity{ID: user.ID, Email: user.Email},
		ExpiresAt: expiresAt,
	}
	p.mu.Lock()
	p.current = &session
	p.broadcastLocked(Change{Kind: SignedIn, Session: &session})
	p.mu.Unlock()
	return session, nil
}

func (p *LocalProvider) broadcastLocked(change Change) {
	for ch := range p.subs {
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- change
		}
	}
}
