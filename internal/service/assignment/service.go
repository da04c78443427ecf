package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/metrics"
)

// Service is the assignment registry: it owns the doctor-patient consent
// lifecycle. Revoking an assignment does not cascade to clinical records;
// they simply become unreachable for the doctor once IsActive turns false.
type Service struct {
	repo     repository.AssignmentRepository
	userRepo repository.UserRepository
	metrics  *metrics.Metrics
}

func NewService(repo repository.AssignmentRepository, userRepo repository.UserRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, userRepo: userRepo, metrics: m}
}

// Assign grants the doctor access to the patient's record set. A request
// against an inactive row reactivates it in place, so the (doctor, patient)
// pair never grows a second row.
func (s *Service) Assign(ctx context.Context, doctor *model.User, req *model.AssignPatientRequest) (*model.Assignment, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors can assign patients")
	}

	patient, err := s.userRepo.Get(ctx, req.PatientID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}
	if !patient.IsPatient() {
		return nil, apperrors.Validation("target user is not a patient", nil)
	}

	existing, err := s.repo.Find(ctx, doctor.ID, req.PatientID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up assignment: %w", err)
	}

	if existing != nil {
		if existing.IsActive {
			return nil, apperrors.Conflict("patient is already assigned to you", nil)
		}
		reactivated, err := s.repo.Reactivate(ctx, existing.ID, req.Notes)
		if err != nil {
			return nil, err
		}
		s.count("reactivate")
		s.gauge(1)
		return reactivated, nil
	}

	assignment := &model.Assignment{
		DoctorID:  doctor.ID,
		PatientID: req.PatientID,
		Notes:     req.Notes,
	}
	// The unique (doctor, patient) constraint turns a create race into a
	// Conflict instead of a duplicate row.
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	s.count("create")
	s.gauge(1)
	return assignment, nil
}

// Unassign revokes access by flipping is_active. The row survives for the
// audit trail and for later reactivation.
func (s *Service) Unassign(ctx context.Context, doctor *model.User, patientID uuid.UUID) error {
	if !doctor.IsDoctor() {
		return apperrors.Forbidden("only doctors can unassign patients")
	}

	if err := s.repo.Deactivate(ctx, doctor.ID, patientID); err != nil {
		return err
	}
	s.count("deactivate")
	s.gauge(-1)
	return nil
}

// IsActive is the predicate every downstream authorization check calls.
func (s *Service) IsActive(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return s.repo.IsActive(ctx, doctorID, patientID)
}

// ListPatients returns the doctor's active roster.
func (s *Service) ListPatients(ctx context.Context, doctor *model.User) ([]*model.AssignedPatient, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors have assigned patients")
	}
	return s.repo.ListActivePatients(ctx, doctor.ID)
}

func (s *Service) count(operation string) {
	if s.metrics != nil {
		s.metrics.AssignmentOps.WithLabelValues(operation).Inc()
	}
}

func (s *Service) gauge(delta float64) {
	if s.metrics != nil {
		s.metrics.AssignmentsActive.Add(delta)
	}
}
