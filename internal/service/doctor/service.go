package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

const directoryCacheKey = "doctor_directory"

// Service manages doctor professional profiles and the public directory.
// The unfiltered directory is cached; authorization data never is.
type Service struct {
	profiles repository.DoctorProfileRepository
	users    repository.UserRepository
	cache    *gocache.Cache
}

func NewService(profiles repository.DoctorProfileRepository, users repository.UserRepository, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		profiles: profiles,
		users:    users,
		cache:    gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// UpsertProfile creates the profile on first save and updates it afterwards.
func (s *Service) UpsertProfile(ctx context.Context, actor *model.User, req *model.UpsertDoctorProfileRequest) (*model.DoctorProfile, error) {
	if !actor.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors have professional profiles")
	}

	profile, err := s.profiles.GetByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		applyRequest(profile, req)
		if err := s.profiles.Update(ctx, profile); err != nil {
			return nil, err
		}
	case apperrors.Is(err, apperrors.ErrNotFound):
		profile = &model.DoctorProfile{UserID: actor.ID}
		applyRequest(profile, req)
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		profile.FirstName = actor.FirstName
		profile.LastName = actor.LastName
	default:
		return nil, err
	}

	s.cache.Delete(directoryCacheKey)
	return profile, nil
}

func applyRequest(profile *model.DoctorProfile, req *model.UpsertDoctorProfileRequest) {
	profile.Specialization = req.Specialization
	profile.LicenseNumber = req.LicenseNumber
	profile.Qualification = req.Qualification
	profile.ExperienceYears = req.ExperienceYears
	profile.OfficeAddress = req.OfficeAddress
	profile.ConsultationFee = req.ConsultationFee
	profile.Bio = req.Bio
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsDoctor() {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return s.profiles.GetByUserID(ctx, userID)
}

// Directory lists doctor profiles for patients to browse. The unfiltered
// listing is served from cache; filtered searches always hit the store.
func (s *Service) Directory(ctx context.Context, filters *model.DoctorSearchFilters) ([]*model.DoctorProfile, error) {
	unfiltered := filters == nil || (filters.Specialization == "" && filters.Name == "")
	if unfiltered {
		if cached, ok := s.cache.Get(directoryCacheKey); ok {
			return cached.([]*model.DoctorProfile), nil
		}
	}

	profiles, err := s.profiles.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if unfiltered {
		s.cache.SetDefault(directoryCacheKey, profiles)
	}
	return profiles, nil
}
