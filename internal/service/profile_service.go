package service

import (
	"context"
	"errors"
	"time"

	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/models"
	"vyapari-genie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileService struct {
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewProfileService(profileRepo *repository.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return toProfileResponse(profile), nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	profile.DisplayName = req.DisplayName
	profile.BusinessName = req.BusinessName
	profile.Phone = req.Phone
	profile.UpdatedAt = time.Now()

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	return toProfileResponse(profile), nil
}

func toProfileResponse(profile *models.Profile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:           profile.ID.String(),
		DisplayName:  profile.DisplayName,
		BusinessName: profile.BusinessName,
		Phone:        profile.Phone,
		UpdatedAt:    profile.UpdatedAt.Format(time.RFC3339),
	}
}
