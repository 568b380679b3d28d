package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"libras-quiz-service/internal/domain"
)

// QuestionSource loads the question pool from a backing store.
type QuestionSource interface {
	QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error)
}

// QuestionCache caches question pools with TTL to avoid refetching the same
// challenge on every session and retake.
type QuestionCache struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

// QuestionsByChallenge returns a copy of the pool; sessions shuffle their copy
// in place and must not disturb the cached one.
func (c *QuestionCache) QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[challengeID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return append([]domain.Question(nil), entry.questions...), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(challengeID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[challengeID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.source.QuestionsByChallenge(ctx, challengeID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[challengeID] = cachedPool{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
