package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"libras-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// Store implements the repositories against Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ChallengeByID(ctx context.Context, id string) (domain.Challenge, error) {
	var c domain.Challenge
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.title, c.description, c.required_score,
		       EXISTS (SELECT 1 FROM questions q WHERE q.challenge_id = c.id)
		FROM challenges c WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.RequiredScore, &c.HasQuestions)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return c, nil
}

func (s *Store) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.title, c.description, c.required_score, COUNT(q.id) > 0
		FROM challenges c
		LEFT JOIN questions q ON q.challenge_id = c.id
		GROUP BY c.id
		ORDER BY c.required_score ASC, c.title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	var list []domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.RequiredScore, &c.HasQuestions); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, challenge_id, word, COALESCE(image, ''), options
		FROM questions WHERE challenge_id = $1`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			rawOpts []byte
		)
		if err := rows.Scan(&q.ID, &q.ChallengeID, &q.Word, &q.Image, &rawOpts); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) ProgressFor(ctx context.Context, userID, challengeID string) (domain.Progress, error) {
	var p domain.Progress
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, challenge_id, completed, score
		FROM progress WHERE user_id = $1 AND challenge_id = $2`, userID, challengeID).
		Scan(&p.UserID, &p.ChallengeID, &p.Completed, &p.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	return p, nil
}

// UpsertProgress writes the outcome keyed on (user, challenge). The conflict
// clause refuses to lower a recorded score, which closes the read-then-write
// race between concurrent sessions.
func (s *Store) UpsertProgress(ctx context.Context, p domain.Progress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO progress (user_id, challenge_id, completed, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, challenge_id) DO UPDATE
		SET completed = EXCLUDED.completed, score = EXCLUDED.score
		WHERE progress.score < EXCLUDED.score`,
		p.UserID, p.ChallengeID, p.Completed, p.Score)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (s *Store) ProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, total_score FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, name, total_score) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.TotalScore)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *Store) AddPoints(ctx context.Context, id string, points int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET total_score = total_score + $2 WHERE id = $1`, id, points)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
