package domain

import "errors"

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords;
	// callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound indicates no credential record for the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrProfileNotFound indicates no profile row for the given identity.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrChallengeNotFound indicates the challenge id is not in the catalog.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrProgressNotFound is the expected miss when a user has no recorded
	// outcome for a challenge yet.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrNoQuestions is returned for challenges with no playable content.
	ErrNoQuestions = errors.New("challenge has no questions")
	// ErrChallengeLocked is returned when the profile score is below the
	// challenge threshold.
	ErrChallengeLocked = errors.New("challenge locked")
	// ErrFeedbackActive rejects answers submitted during the feedback window.
	ErrFeedbackActive = errors.New("feedback window active")
	// ErrSessionFinished rejects answers after the last question.
	ErrSessionFinished = errors.New("quiz session finished")
	// ErrSessionClosed is returned once a session has been torn down.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrNotFinished rejects a retake before the summary screen.
	ErrNotFinished = errors.New("quiz session not finished")
)
