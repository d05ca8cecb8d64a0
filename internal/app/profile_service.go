package app

import (
	"context"
	"fmt"

	"healthhub/internal/cache"
	"healthhub/internal/model"
	"healthhub/internal/repository"
)

type ProfileAPI interface {
	GetProfile(ctx context.Context) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile model.Profile) (*model.Profile, error)
}

type ProfileView struct {
	Profile   model.Profile `json:"profile"`
	Completed bool          `json:"profile_completed"`
}

// ProfileService serves the profile from durable storage while it is fresh
// and refetches it once the TTL has passed.
type ProfileService struct {
	api     ProfileAPI
	storage ClientStorage
	cache   *cache.TTL[model.Profile]
	alerts  *Alerts
}

func NewProfileService(api ProfileAPI, storage ClientStorage, cache *cache.TTL[model.Profile], alerts *Alerts) *ProfileService {
	return &ProfileService{api: api, storage: storage, cache: cache, alerts: alerts}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*ProfileView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	profile, err := s.cache.GetOrFetch(ctx, userID, func(ctx context.Context) (model.Profile, error) {
		p, err := s.api.GetProfile(ctx)
		if err != nil {
			return model.Profile{}, err
		}
		return *p, nil
	})
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("load profile: %w", err))
		return nil, err
	}
	completed, err := s.Completed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: profile, Completed: completed}, nil
}

// Refresh drops the cached copy and fetches again.
func (s *ProfileService) Refresh(ctx context.Context, userID uint) (*ProfileView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID uint, profile model.Profile) (*model.Profile, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	updated, err := s.api.UpdateProfile(ctx, profile)
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("update profile: %w", err))
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProfileService) Completed(ctx context.Context, userID uint) (bool, error) {
	v, ok, err := s.storage.Get(ctx, userID, repository.KeyProfileCompleted)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}

func (s *ProfileService) MarkCompleted(ctx context.Context, userID uint) error {
	return s.storage.Set(ctx, userID, repository.KeyProfileCompleted, "true")
}
