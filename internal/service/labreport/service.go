package labreport

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

// Service manages lab reports, their parameters and the per-parameter
// trend and summary views.
type Service struct {
	repo   repository.LabReportRepository
	engine *access.Engine
}

func NewService(repo repository.LabReportRepository, engine *access.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) Create(ctx context.Context, doctor *model.User, req *model.CreateLabReportRequest) (*model.LabReport, error) {
	if err := s.engine.CanCreateClinical(ctx, doctor, req.PatientID); err != nil {
		return nil, err
	}

	testDate, err := time.Parse("2006-01-02", req.TestDate)
	if err != nil {
		return nil, apperrors.Validation("invalid test date", err)
	}

	report := &model.LabReport{
		PatientID: req.PatientID,
		DoctorID:  &doctor.ID,
		TestType:  req.TestType,
		TestName:  req.TestName,
		TestDate:  testDate,
		Summary:   req.Summary,
		Remarks:   req.Remarks,
		IsNormal:  true,
	}
	for _, in := range req.Parameters {
		p := &model.LabTestParameter{
			Name:      in.Name,
			Value:     in.Value,
			Unit:      in.Unit,
			NormalMin: in.NormalMin,
			NormalMax: in.NormalMax,
		}
		if p.CheckAbnormal() {
			report.IsNormal = false
		}
		report.Parameters = append(report.Parameters, p)
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.LabReport, error) {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListMine returns the actor's own reports: ordered ones for a doctor,
// owned ones for a patient.
func (s *Service) ListMine(ctx context.Context, actor *model.User) ([]*model.LabReport, error) {
	switch {
	case actor.IsPatient():
		return s.repo.ListByPatient(ctx, actor.ID)
	case actor.IsDoctor():
		return s.repo.ListByDoctor(ctx, actor.ID)
	default:
		return nil, apperrors.Forbidden("")
	}
}

func (s *Service) ListByPatient(ctx context.Context, actor *model.User, patientID uuid.UUID) ([]*model.LabReport, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// Trend returns the chronological history of one parameter across all of a
// patient's reports.
func (s *Service) Trend(ctx context.Context, actor *model.User, patientID uuid.UUID, parameterName string) ([]*model.TrendPoint, string, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, "", err
	}
	points, unit, err := s.repo.ParameterTrend(ctx, patientID, parameterName)
	if err != nil {
		return nil, "", err
	}
	if len(points) == 0 {
		return nil, "", apperrors.NotFound("parameter "+parameterName, nil)
	}
	return points, unit, nil
}

// Stats folds the trend into min, max, average and latest.
func (s *Service) Stats(ctx context.Context, actor *model.User, patientID uuid.UUID, parameterName string) (*model.ParameterStats, error) {
	points, unit, err := s.Trend(ctx, actor, patientID, parameterName)
	if err != nil {
		return nil, err
	}

	stats := &model.ParameterStats{
		Name:  parameterName,
		Unit:  unit,
		Count: len(points),
		Min:   points[0].Value,
		Max:   points[0].Value,
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
		if p.Value < stats.Min {
			stats.Min = p.Value
		}
		if p.Value > stats.Max {
			stats.Max = p.Value
		}
	}
	stats.Avg = sum / float64(len(points))
	// Trend rows come back ordered by test date ascending.
	stats.Latest = points[len(points)-1].Value
	return stats, nil
}

// ParameterNames lists the distinct parameters observed for a patient.
func (s *Service) ParameterNames(ctx context.Context, actor *model.User, patientID uuid.UUID) ([]string, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListParameterNames(ctx, patientID)
}
