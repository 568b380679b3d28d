package app

import (
	"context"

	"libras-quiz-service/internal/domain"
)

// ProfileService resolves the profile behind an identity. Profiles are fetched
// fresh per request; score changes made by a quiz session show up on the next
// fetch, there is no live push.
type ProfileService struct {
	profiles ProfileRepository
}

func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, identity domain.Identity) (domain.Profile, error) {
	return s.profiles.ProfileByID(ctx, identity.ID)
}
