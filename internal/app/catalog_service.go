package app

import (
	"context"
	"fmt"

	"libras-quiz-service/internal/domain"
)

// ChallengeView is a catalog row decorated with the viewer's lock state.
type ChallengeView struct {
	domain.Challenge
	Unlocked bool `json:"unlocked"`
}

// CatalogService lists challenges and enforces the unlock/playability gates.
type CatalogService struct {
	challenges ChallengeRepository
}

func NewCatalogService(challenges ChallengeRepository) *CatalogService {
	return &CatalogService{challenges: challenges}
}

// List returns the catalog ordered ascending by required score, each row
// marked unlocked for the given profile. The list is fetched fresh on every
// call; there is no cache and no pagination.
func (s *CatalogService) List(ctx context.Context, profile domain.Profile) ([]ChallengeView, error) {
	challenges, err := s.challenges.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	views := make([]ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		views = append(views, ChallengeView{Challenge: c, Unlocked: c.Unlocked(profile)})
	}
	return views, nil
}

// CanStart checks both gates for entering a challenge session: the profile must
// meet the score threshold, and the challenge must have playable content. A
// challenge without questions is blocked regardless of score.
func (s *CatalogService) CanStart(ctx context.Context, challengeID string, profile domain.Profile) error {
	challenge, err := s.challenges.ChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if !challenge.HasQuestions {
		return domain.ErrNoQuestions
	}
	if !challenge.Unlocked(profile) {
		return domain.ErrChallengeLocked
	}
	return nil
}
