package domain

import "time"

// Identity is the authenticated user as the identity provider reports it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the credential record behind an identity.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile holds the learner-facing data for one identity.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"` // cumulative points, gates catalog unlocks
}

// Challenge is a named quiz unit with an unlock threshold.
type Challenge struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	RequiredScore int    `json:"requiredScore"`
	HasQuestions  bool   `json:"hasQuestions"` // derived: at least one question exists
}

// Unlocked reports whether the profile's total score meets the challenge threshold.
func (c Challenge) Unlocked(p Profile) bool {
	return p.TotalScore >= c.RequiredScore
}

// Question is a single prompt inside a challenge. Image-based questions show the
// image and expect the word as the answer; letter-based questions show the word
// and expect the matching image asset path.
type Question struct {
	ID          string   `json:"id"`
	ChallengeID string   `json:"challengeId"`
	Word        string   `json:"word"`
	Image       string   `json:"image,omitempty"` // empty means letter prompt
	Options     []string `json:"options"`
}

// Progress is a user's best recorded outcome for a challenge. The score never
// decreases once written.
type Progress struct {
	UserID      string `json:"userId"`
	ChallengeID string `json:"challengeId"`
	Completed   bool   `json:"completed"`
	Score       int    `json:"score"`
}
