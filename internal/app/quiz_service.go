package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"libras-quiz-service/internal/domain"
)

const (
	// maxSequenceLength caps the active question sequence per session.
	maxSequenceLength = 20
	// pointsPerCorrect is added to the running score for each correct answer.
	pointsPerCorrect = 10
	// passThreshold is the minimum percentage to pass a challenge.
	passThreshold = 70
	// feedbackWindow is how long input stays frozen after an answer.
	feedbackWindow = 1000 * time.Millisecond

	eventBuffer = 32
)

// ChallengeRepository loads catalog rows (from Postgres, memory, etc).
type ChallengeRepository interface {
	ChallengeByID(ctx context.Context, id string) (domain.Challenge, error)
	ListChallenges(ctx context.Context) ([]domain.Challenge, error)
}

// QuestionRepository loads the question pool for a challenge.
type QuestionRepository interface {
	QuestionsByChallenge(ctx context.Context, challengeID string) ([]domain.Question, error)
}

// ProgressRepository stores per-user best outcomes.
type ProgressRepository interface {
	ProgressFor(ctx context.Context, userID, challengeID string) (domain.Progress, error)
	UpsertProgress(ctx context.Context, p domain.Progress) error
}

// ProfileRepository reads and mutates learner profiles.
type ProfileRepository interface {
	ProfileByID(ctx context.Context, id string) (domain.Profile, error)
	CreateProfile(ctx context.Context, p domain.Profile) error
	AddPoints(ctx context.Context, id string, points int) error
}

// scheduleFunc arms a one-shot timer and returns its stop function.
type scheduleFunc func(d time.Duration, fn func()) (stop func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// QuizService drives challenge-taking sessions and their persistence.
type QuizService struct {
	challenges ChallengeRepository
	questions  QuestionRepository
	progress   ProgressRepository
	profiles   ProfileRepository

	window   time.Duration
	schedule scheduleFunc
	newRand  func() *rand.Rand
}

// Option customizes a QuizService; used by tests to pin timing and shuffling.
type Option func(*QuizService)

// WithFeedbackWindow overrides the post-answer freeze duration.
func WithFeedbackWindow(d time.Duration) Option {
	return func(s *QuizService) { s.window = d }
}

// WithScheduler replaces the timer used for the feedback window.
func WithScheduler(f scheduleFunc) Option {
	return func(s *QuizService) { s.schedule = f }
}

// WithRand makes every session shuffle with the given source.
func WithRand(r *rand.Rand) Option {
	return func(s *QuizService) { s.newRand = func() *rand.Rand { return r } }
}

func NewQuizService(challenges ChallengeRepository, questions QuestionRepository, progress ProgressRepository, profiles ProfileRepository, opts ...Option) *QuizService {
	s := &QuizService{
		challenges: challenges,
		questions:  questions,
		progress:   progress,
		profiles:   profiles,
		window:     feedbackWindow,
		schedule:   afterFunc,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession loads the question pool for the challenge and opens an answering
// session. The challenge title is fetched independently and may land after
// answering has begun; consumers render a loading label until the title event
// arrives. An empty pool is refused with domain.ErrNoQuestions.
func (s *QuizService) StartSession(ctx context.Context, challengeID string, profile domain.Profile) (*Session, error) {
	pool, err := s.questions.QuestionsByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestions
	}

	sess := &Session{
		svc:         s,
		challengeID: challengeID,
		profile:     profile,
		pool:        pool,
		state:       StateAnswering,
		window:      s.window,
		schedule:    s.schedule,
		rnd:         s.newRand(),
		events:      make(chan Event, eventBuffer),
	}
	sess.mu.Lock()
	sess.reshuffleLocked()
	sess.emitLocked(sess.questionEventLocked())
	sess.mu.Unlock()

	go sess.loadTitle(ctx)

	return sess, nil
}

// State of a session once it exists; loading happens inside StartSession.
type State int

const (
	StateAnswering State = iota + 1
	StateFinished
)

// EventType tags the async notifications a session emits.
type EventType string

const (
	EventQuestion EventType = "question"
	EventTitle    EventType = "title"
	EventFinished EventType = "finished"
)

// QuestionView is the renderable form of the current question.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Word    string   `json:"word"`
	Image   string   `json:"image,omitempty"`
	Options []string `json:"options"`
	Score   int      `json:"score"`
	Title   string   `json:"title,omitempty"`
}

// Feedback is the immediate result of one answered question.
type Feedback struct {
	Option  string `json:"option"`
	Correct bool   `json:"correct"`
	Score   int    `json:"score"`
}

// Summary is the end-of-session result.
type Summary struct {
	Score      int  `json:"score"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

// Event is pushed on the session's event channel.
type Event struct {
	Type     EventType
	Title    string
	Question *QuestionView
	Summary  *Summary
}

// Session is one user's run through one challenge.
type Session struct {
	svc         *QuizService
	challengeID string
	profile     domain.Profile
	window      time.Duration
	schedule    scheduleFunc

	mu             sync.Mutex
	title          string
	pool           []domain.Question
	sequence       []domain.Question
	current        int
	score          int
	state          State
	percentage     int
	passed         bool
	saved          bool
	feedbackActive bool
	stopTimer      func() bool
	closed         bool
	rnd            *rand.Rand
	events         chan Event
}

// Events delivers question, title, and finish notifications. The channel is
// closed by Close.
func (sess *Session) Events() <-chan Event {
	return sess.events
}

// Answer scores the selected option against the canonical answer and freezes
// input for the feedback window. The advance to the next question (or to the
// summary) happens when the window elapses.
func (sess *Session) Answer(option string) (Feedback, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch {
	case sess.closed:
		return Feedback{}, domain.ErrSessionClosed
	case sess.state == StateFinished:
		return Feedback{}, domain.ErrSessionFinished
	case sess.feedbackActive:
		return Feedback{}, domain.ErrFeedbackActive
	}

	question := sess.sequence[sess.current]
	correct := option == question.CanonicalAnswer(sess.title)
	if correct {
		sess.score += pointsPerCorrect
	}
	sess.feedbackActive = true
	sess.stopTimer = sess.schedule(sess.window, sess.advance)
	return Feedback{Option: option, Correct: correct, Score: sess.score}, nil
}

// Retake resets score, position, and outcome, reshuffles the already loaded
// pool, and returns to answering. The save latch survives retakes; it resets
// only with a fresh session.
func (sess *Session) Retake() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.ErrSessionClosed
	}
	if sess.state != StateFinished {
		return domain.ErrNotFinished
	}
	sess.current = 0
	sess.score = 0
	sess.percentage = 0
	sess.passed = false
	sess.feedbackActive = false
	sess.reshuffleLocked()
	sess.state = StateAnswering
	sess.emitLocked(sess.questionEventLocked())
	return nil
}

// Close tears the session down. A feedback timer still pending is cancelled so
// it cannot act on a defunct session.
func (sess *Session) Close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true
	if sess.stopTimer != nil {
		sess.stopTimer()
		sess.stopTimer = nil
	}
	close(sess.events)
}

// State returns the current phase of the session.
func (sess *Session) State() State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Score returns the accumulated score.
func (sess *Session) Score() int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.score
}

// Title returns the challenge title, empty until its fetch lands.
func (sess *Session) Title() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.title
}

// SequenceLength returns the active sequence size, min(20, pool size).
func (sess *Session) SequenceLength() int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.sequence)
}

// Summary returns the finished-state result.
func (sess *Session) Summary() Summary {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return Summary{Score: sess.score, Total: len(sess.sequence), Percentage: sess.percentage, Passed: sess.passed}
}

func (sess *Session) loadTitle(ctx context.Context) {
	challenge, err := sess.svc.challenges.ChallengeByID(ctx, sess.challengeID)
	if err != nil {
		log.Printf("quiz: load challenge title: %v", err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.title = challenge.Title
	sess.emitLocked(Event{Type: EventTitle, Title: challenge.Title})
}

// advance runs when the feedback window elapses.
func (sess *Session) advance() {
	sess.mu.Lock()
	if sess.closed || !sess.feedbackActive {
		sess.mu.Unlock()
		return
	}
	sess.feedbackActive = false
	sess.stopTimer = nil

	if sess.current+1 < len(sess.sequence) {
		sess.current++
		sess.emitLocked(sess.questionEventLocked())
		sess.mu.Unlock()
		return
	}

	total := len(sess.sequence)
	sess.state = StateFinished
	// Each correct answer is worth 10, so score/total*10 already lands on the
	// 0-100 scale the pass threshold expects.
	sess.percentage = int(math.Round(float64(sess.score) / float64(total) * 10))
	sess.passed = sess.percentage >= passThreshold
	sess.emitLocked(Event{Type: EventFinished, Summary: &Summary{
		Score:      sess.score,
		Total:      total,
		Percentage: sess.percentage,
		Passed:     sess.passed,
	}})
	run := sess.passed && !sess.saved
	sess.mu.Unlock()

	if run {
		sess.persist(context.Background())
	}
}

// persist records a passing outcome, at most once per session. A lower or equal
// result is never written over a better one; the store enforces the same rule
// again for the cross-session race. Failures are logged and the save abandoned
// without retry; the user is not told.
func (sess *Session) persist(ctx context.Context) {
	sess.mu.Lock()
	pct := sess.percentage
	profile := sess.profile
	sess.mu.Unlock()

	previous := 0
	existing, err := sess.svc.progress.ProgressFor(ctx, profile.ID, sess.challengeID)
	switch {
	case err == nil:
		previous = existing.Score
	case errors.Is(err, domain.ErrProgressNotFound):
		// first completion, nothing recorded yet
	default:
		log.Printf("quiz: read progress: %v", err)
		return
	}

	if pct <= previous {
		sess.mu.Lock()
		sess.saved = true
		sess.mu.Unlock()
		return
	}

	if err := sess.svc.progress.UpsertProgress(ctx, domain.Progress{
		UserID:      profile.ID,
		ChallengeID: sess.challengeID,
		Completed:   true,
		Score:       pct,
	}); err != nil {
		log.Printf("quiz: save progress: %v", err)
		return
	}

	// Credit the exact improvement so total_score stays the sum of recorded
	// progress gains.
	pointsEarned := pct - previous
	if err := sess.svc.profiles.AddPoints(ctx, profile.ID, pointsEarned); err != nil {
		log.Printf("quiz: update total score: %v", err)
	}

	sess.mu.Lock()
	sess.saved = true
	sess.mu.Unlock()
}

func (sess *Session) reshuffleLocked() {
	sess.rnd.Shuffle(len(sess.pool), func(i, j int) {
		sess.pool[i], sess.pool[j] = sess.pool[j], sess.pool[i]
	})
	n := len(sess.pool)
	if n > maxSequenceLength {
		n = maxSequenceLength
	}
	sess.sequence = sess.pool[:n]
}

func (sess *Session) questionEventLocked() Event {
	q := sess.sequence[sess.current]
	return Event{Type: EventQuestion, Question: &QuestionView{
		Index:   sess.current,
		Total:   len(sess.sequence),
		Word:    q.Word,
		Image:   q.Image,
		Options: q.Options,
		Score:   sess.score,
		Title:   sess.title,
	}}
}

func (sess *Session) emitLocked(ev Event) {
	select {
	case sess.events <- ev:
	default:
		// Drop the oldest pending event rather than block the state machine.
		select {
		case <-sess.events:
		default:
		}
		sess.events <- ev
	}
}
