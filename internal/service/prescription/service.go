package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

// reminderWindowDays bounds the lookback for active medicine reminders. A
// prescription older than this cannot still have a running course.
const reminderWindowDays = 30

// Service manages prescriptions and their medicines. Creation and medicine
// edits are clinician writes; reminder toggles are patient writes.
type Service struct {
	repo   repository.PrescriptionRepository
	engine *access.Engine
}

func NewService(repo repository.PrescriptionRepository, engine *access.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) Create(ctx context.Context, doctor *model.User, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if err := s.engine.CanCreateClinical(ctx, doctor, req.PatientID); err != nil {
		return nil, err
	}

	prescription := &model.Prescription{
		PatientID:        req.PatientID,
		DoctorID:         doctor.ID,
		Diagnosis:        req.Diagnosis,
		Notes:            req.Notes,
		PrescriptionDate: time.Now(),
	}
	for _, in := range req.Medicines {
		prescription.Medicines = append(prescription.Medicines, medicineFromInput(in))
	}

	if err := s.repo.Create(ctx, prescription); err != nil {
		return nil, err
	}
	return prescription, nil
}

func medicineFromInput(in *model.MedicineInput) *model.Medicine {
	m := &model.Medicine{
		Name:          in.Name,
		Dosage:        in.Dosage,
		DosageForm:    in.DosageForm,
		Frequency:     in.Frequency,
		DurationDays:  in.DurationDays,
		Instructions:  in.Instructions,
		ReminderTimes: in.ReminderTimes,
	}
	if in.DosageForm == "" {
		m.DosageForm = model.DosageFormTablet
	}
	if in.ReminderEnabled != nil {
		m.ReminderEnabled = *in.ReminderEnabled
	}
	return m
}

func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Prescription, error) {
	prescription, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, prescription); err != nil {
		return nil, err
	}
	return prescription, nil
}

// ListMine returns the actor's own prescriptions: authored ones for a
// doctor, owned ones for a patient.
func (s *Service) ListMine(ctx context.Context, actor *model.User) ([]*model.Prescription, error) {
	switch {
	case actor.IsPatient():
		return s.repo.ListByPatient(ctx, actor.ID)
	case actor.IsDoctor():
		return s.repo.ListByDoctor(ctx, actor.ID)
	default:
		return nil, apperrors.Forbidden("")
	}
}

func (s *Service) ListByPatient(ctx context.Context, actor *model.User, patientID uuid.UUID) ([]*model.Prescription, error) {
	if err := s.engine.CanReadPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// AddMedicine appends a medicine to an existing prescription. Extending the
// course is a clinician write reserved to the prescribing doctor; assignment
// grants other doctors read access only.
func (s *Service) AddMedicine(ctx context.Context, actor *model.User, prescriptionID uuid.UUID, in *model.MedicineInput) (*model.Medicine, error) {
	prescription, err := s.repo.Get(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionWriteClinician, prescription); err != nil {
		return nil, err
	}

	medicine := medicineFromInput(in)
	medicine.PrescriptionID = prescriptionID
	if err := s.repo.AddMedicine(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// GetMedicine returns one medicine; read access follows the parent
// prescription.
func (s *Service) GetMedicine(ctx context.Context, actor *model.User, medicineID uuid.UUID) (*model.Medicine, error) {
	medicine, err := s.repo.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	prescription, err := s.repo.Get(ctx, medicine.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, prescription); err != nil {
		return nil, err
	}
	return medicine, nil
}

// UpdateReminder toggles reminder settings on one medicine. This is a
// patient-reserved write on the parent prescription.
func (s *Service) UpdateReminder(ctx context.Context, actor *model.User, medicineID uuid.UUID, req *model.UpdateReminderRequest) (*model.Medicine, error) {
	if req.ReminderEnabled == nil && req.ReminderTimes == nil {
		return nil, apperrors.Validation("nothing to update", nil)
	}

	medicine, err := s.repo.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	prescription, err := s.repo.Get(ctx, medicine.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionWritePatient, prescription); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMedicineReminder(ctx, medicineID, req.ReminderEnabled, req.ReminderTimes); err != nil {
		return nil, err
	}
	return s.repo.GetMedicine(ctx, medicineID)
}

// Reminders returns the patient's enabled reminders whose medicine course is
// still running today.
func (s *Service) Reminders(ctx context.Context, actor *model.User) ([]*model.MedicineReminder, error) {
	if !actor.IsPatient() {
		return nil, apperrors.Forbidden("only patients have medicine reminders")
	}

	since := time.Now().AddDate(0, 0, -reminderWindowDays)
	candidates, err := s.repo.ListRemindersSince(ctx, actor.ID, since)
	if err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	active := make([]*model.MedicineReminder, 0, len(candidates))
	for _, r := range candidates {
		if !r.EndDate.Before(today) {
			active = append(active, r)
		}
	}
	return active, nil
}
