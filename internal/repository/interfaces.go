package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles actor accounts
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	}

	// AssignmentRepository owns the doctor-patient consent rows
	AssignmentRepository interface {
		Find(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Assignment, error)
		Create(ctx context.Context, assignment *model.Assignment) error
		Reactivate(ctx context.Context, id uuid.UUID, notes string) (*model.Assignment, error)
		Deactivate(ctx context.Context, doctorID, patientID uuid.UUID) error
		IsActive(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
		ListActivePatients(ctx context.Context, doctorID uuid.UUID) ([]*model.AssignedPatient, error)
	}

	AppointmentRepository interface {
		// Book inserts the appointment after an in-transaction conflict
		// check; the partial unique index on active slots is the final
		// guard under concurrency.
		Book(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListUpcoming(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*model.Appointment, error)
		ListPending(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error)
		AddMedicine(ctx context.Context, medicine *model.Medicine) error
		GetMedicine(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
		UpdateMedicineReminder(ctx context.Context, id uuid.UUID, enabled *bool, times *string) error
		ListRemindersSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicineReminder, error)
	}

	LabReportRepository interface {
		Create(ctx context.Context, report *model.LabReport) error
		Get(ctx context.Context, id uuid.UUID) (*model.LabReport, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.LabReport, error)
		ParameterTrend(ctx context.Context, patientID uuid.UUID, parameterName string) ([]*model.TrendPoint, string, error)
		ListParameterNames(ctx context.Context, patientID uuid.UUID) ([]string, error)
	}

	MedicalHistoryRepository interface {
		Create(ctx context.Context, entry *model.MedicalHistory) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error)
	}

	DoctorProfileRepository interface {
		Create(ctx context.Context, profile *model.DoctorProfile) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		Update(ctx context.Context, profile *model.DoctorProfile) error
		List(ctx context.Context, filters *model.DoctorSearchFilters) ([]*model.DoctorProfile, error)
	}

	PatientProfileRepository interface {
		Create(ctx context.Context, profile *model.PatientProfile) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
		Update(ctx context.Context, profile *model.PatientProfile) error
	}

	// TokenRevoker invalidates issued tokens ahead of their expiry
	TokenRevoker interface {
		Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)
