package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"libras-quiz-service/internal/domain"
)

// Store is an in-memory implementation of every repository the app consumes.
// It backs tests and the no-Postgres demo mode.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.User // keyed by email
	profiles   map[string]domain.Profile
	challenges map[string]domain.Challenge
	questions  map[string][]domain.Question // keyed by challenge id
	progress   map[string]domain.Progress   // keyed by user|challenge
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		profiles:   make(map[string]domain.Profile),
		challenges: make(map[string]domain.Challenge),
		questions:  make(map[string][]domain.Question),
		progress:   make(map[string]domain.Progress),
	}
}

// Seed loads catalog content.
func (s *Store) Seed(challenges []domain.Challenge, questions map[string][]domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range challenges {
		s.challenges[c.ID] = c
	}
	for id, qs := range questions {
		s.questions[id] = append([]domain.Question(nil), qs...)
	}
}

// SeedProfile inserts a profile directly, bypassing sign-up.
func (s *Store) SeedProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Store) ChallengeByID(_ context.Context, id string) (domain.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	c.HasQuestions = len(s.questions[id]) > 0
	return c, nil
}

func (s *Store) ListChallenges(_ context.Context) ([]domain.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.Challenge, 0, len(s.challenges))
	for id, c := range s.challenges {
		c.HasQuestions = len(s.questions[id]) > 0
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].RequiredScore != list[j].RequiredScore {
			return list[i].RequiredScore < list[j].RequiredScore
		}
		return list[i].Title < list[j].Title
	})
	return list, nil
}

func (s *Store) QuestionsByChallenge(_ context.Context, challengeID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Question(nil), s.questions[challengeID]...), nil
}

func (s *Store) ProgressFor(_ context.Context, userID, challengeID string) (domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[userID+"|"+challengeID]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return p, nil
}

// UpsertProgress writes the outcome keyed on (user, challenge). A recorded
// score is never lowered, mirroring the conditional write in the Postgres
// store.
func (s *Store) UpsertProgress(_ context.Context, p domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.UserID + "|" + p.ChallengeID
	if existing, ok := s.progress[key]; ok && existing.Score >= p.Score {
		return nil
	}
	s.progress[key] = p
	return nil
}

func (s *Store) ProfileByID(_ context.Context, id string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

// CreateProfile refuses duplicates, matching the primary-key constraint the
// Postgres store runs into.
func (s *Store) CreateProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) AddPoints(_ context.Context, id string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.TotalScore += points
	s.profiles[id] = p
	return nil
}

func (s *Store) CreateUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[u.Email] = u
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}
