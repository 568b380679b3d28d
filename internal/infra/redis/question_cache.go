package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"libras-quiz-service/internal/domain"
)

// QuestionSource loads the question pool from a backing store.
type QuestionSource interface {
	QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error)
}

// QuestionCache keeps each challenge's question pool as a JSON blob in Redis
// (key challenge:{id}:questions) and falls back to the source on a miss.
type QuestionCache struct {
	client *goredis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *goredis.Client, source QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error) {
	key := c.key(challengeID)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return decodePool(raw)
	}

	result, err, _ := c.sf.Do(challengeID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return decodePool(raw)
		}

		questions, err := c.source.QuestionsByChallenge(ctx, challengeID)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode questions: %w", err)
		}
		// best-effort: a failed SET only costs the next caller a reload
		_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (c *QuestionCache) key(challengeID string) string {
	return "challenge:" + challengeID + ":questions"
}

func decodePool(raw []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
