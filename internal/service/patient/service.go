package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

// Service manages patient demographic profiles. The profile is readable by
// the patient and by doctors with an active assignment, writable only by
// the patient.
type Service struct {
	profiles repository.PatientProfileRepository
	engine   *access.Engine
}

func NewService(profiles repository.PatientProfileRepository, engine *access.Engine) *Service {
	return &Service{profiles: profiles, engine: engine}
}

// UpsertProfile creates the profile on first save and updates it afterwards.
func (s *Service) UpsertProfile(ctx context.Context, actor *model.User, req *model.UpsertPatientProfileRequest) (*model.PatientProfile, error) {
	if !actor.IsPatient() {
		return nil, apperrors.Forbidden("only patients have patient profiles")
	}

	profile, err := s.profiles.GetByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		applyRequest(profile, req)
		return profile, s.profiles.Update(ctx, profile)
	case apperrors.Is(err, apperrors.ErrNotFound):
		profile = &model.PatientProfile{UserID: actor.ID}
		applyRequest(profile, req)
		return profile, s.profiles.Create(ctx, profile)
	default:
		return nil, err
	}
}

func applyRequest(profile *model.PatientProfile, req *model.UpsertPatientProfileRequest) {
	profile.Gender = req.Gender
	profile.BloodGroup = req.BloodGroup
	profile.HeightCM = req.HeightCM
	profile.WeightKG = req.WeightKG
	profile.Address = req.Address
	profile.EmergencyContact = req.EmergencyContact
	profile.EmergencyContactName = req.EmergencyContactName
	profile.Allergies = req.Allergies
	profile.ChronicConditions = req.ChronicConditions
	profile.CurrentMedications = req.CurrentMedications
}

// Profile loads one patient's demographic profile under the standard read
// rules.
func (s *Service) Profile(ctx context.Context, actor *model.User, patientID uuid.UUID) (*model.PatientProfile, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.profiles.GetByUserID(ctx, patientID)
}
