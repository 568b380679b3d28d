package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"libras-quiz-service/internal/domain"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	pool  []domain.Question
}

func (s *countingSource) QuestionsByChallenge(context.Context, string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.pool, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestQuestionCacheServesFromCache(t *testing.T) {
	source := &countingSource{pool: []domain.Question{{ID: "q1", Word: "A"}}}
	cache := NewQuestionCache(source, time.Minute)

	for i := 0; i < 3; i++ {
		questions, err := cache.QuestionsByChallenge(context.Background(), "letra-a")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(questions) != 1 || questions[0].ID != "q1" {
			t.Fatalf("fetch %d returned %+v", i, questions)
		}
	}
	if got := source.callCount(); got != 1 {
		t.Fatalf("source hit %d times, want 1", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	source := &countingSource{pool: []domain.Question{{ID: "q1"}}}
	cache := NewQuestionCache(source, time.Minute)

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.QuestionsByChallenge(context.Background(), "letra-a"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Jitter stretches the TTL by at most 10%, so two minutes is safely past.
	now = now.Add(2 * time.Minute)
	if _, err := cache.QuestionsByChallenge(context.Background(), "letra-a"); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if got := source.callCount(); got != 2 {
		t.Fatalf("source hit %d times, want 2", got)
	}
}

func TestQuestionCacheReturnsCopies(t *testing.T) {
	source := &countingSource{pool: []domain.Question{{ID: "q1"}, {ID: "q2"}}}
	cache := NewQuestionCache(source, time.Minute)

	first, err := cache.QuestionsByChallenge(context.Background(), "letra-a")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Sessions shuffle their slice in place; the cached pool must not move.
	first[0], first[1] = first[1], first[0]

	second, err := cache.QuestionsByChallenge(context.Background(), "letra-a")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if second[0].ID != "q1" {
		t.Fatal("cached pool was mutated through a returned slice")
	}
}
