package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

// Service manages the patient's clinical timeline. Entries are append-only.
type Service struct {
	repo   repository.MedicalHistoryRepository
	engine *access.Engine
}

func NewService(repo repository.MedicalHistoryRepository, engine *access.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) Create(ctx context.Context, doctor *model.User, req *model.CreateMedicalHistoryRequest) (*model.MedicalHistory, error) {
	if err := s.engine.CanCreateClinical(ctx, doctor, req.PatientID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.Validation("invalid entry date", err)
	}

	entry := &model.MedicalHistory{
		PatientID:   req.PatientID,
		DoctorID:    &doctor.ID,
		EntryType:   req.EntryType,
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.MedicalHistory, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) ListByPatient(ctx context.Context, actor *model.User, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}
