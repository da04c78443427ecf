package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts the prescription and its medicines in one transaction.
func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	prescription.ID = uuid.New()
	prescription.CreatedAt = time.Now()
	prescription.UpdatedAt = prescription.CreatedAt
	if prescription.PrescriptionDate.IsZero() {
		prescription.PrescriptionDate = prescription.CreatedAt
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO prescriptions (
				id, patient_id, doctor_id, diagnosis, notes,
				prescription_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, insert,
			prescription.ID,
			prescription.PatientID,
			prescription.DoctorID,
			prescription.Diagnosis,
			prescription.Notes,
			prescription.PrescriptionDate,
			prescription.CreatedAt,
			prescription.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		for _, medicine := range prescription.Medicines {
			medicine.PrescriptionID = prescription.ID
			if err := insertMedicine(ctx, tx, medicine); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertMedicine(ctx context.Context, tx *sqlx.Tx, medicine *model.Medicine) error {
	query := `
		INSERT INTO medicines (
			id, prescription_id, medicine_name, dosage, dosage_form,
			frequency, duration_days, instructions,
			reminder_enabled, reminder_times, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	medicine.ID = uuid.New()
	medicine.CreatedAt = time.Now()
	if medicine.DosageForm == "" {
		medicine.DosageForm = model.DosageFormTablet
	}

	_, err := tx.ExecContext(ctx, query,
		medicine.ID,
		medicine.PrescriptionID,
		medicine.Name,
		medicine.Dosage,
		medicine.DosageForm,
		medicine.Frequency,
		medicine.DurationDays,
		medicine.Instructions,
		medicine.ReminderEnabled,
		medicine.ReminderTimes,
		medicine.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert medicine: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT id, patient_id, doctor_id, diagnosis, notes,
		       prescription_date, created_at, updated_at
		FROM prescriptions
		WHERE id = $1
	`
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	medicines := `
		SELECT id, prescription_id, medicine_name, dosage, dosage_form,
		       frequency, duration_days, instructions,
		       reminder_enabled, reminder_times, created_at
		FROM medicines
		WHERE prescription_id = $1
		ORDER BY medicine_name ASC
	`
	if err := r.db.SelectContext(ctx, &prescription.Medicines, medicines, id); err != nil {
		return nil, fmt.Errorf("failed to get medicines: %w", err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	return r.list(ctx, "patient_id", patientID)
}

func (r *prescriptionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	return r.list(ctx, "doctor_id", doctorID)
}

func (r *prescriptionRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT id, patient_id, doctor_id, diagnosis, notes,
		       prescription_date, created_at, updated_at
		FROM prescriptions
		WHERE ` + column + ` = $1
		ORDER BY prescription_date DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, id); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) AddMedicine(ctx context.Context, medicine *model.Medicine) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertMedicine(ctx, tx, medicine)
	})
}

func (r *prescriptionRepository) GetMedicine(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	query := `
		SELECT id, prescription_id, medicine_name, dosage, dosage_form,
		       frequency, duration_days, instructions,
		       reminder_enabled, reminder_times, created_at
		FROM medicines
		WHERE id = $1
	`
	var medicine model.Medicine
	if err := r.db.GetContext(ctx, &medicine, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("medicine", err)
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return &medicine, nil
}

func (r *prescriptionRepository) UpdateMedicineReminder(ctx context.Context, id uuid.UUID, enabled *bool, times *string) error {
	query := `
		UPDATE medicines
		SET reminder_enabled = COALESCE($1, reminder_enabled),
		    reminder_times = COALESCE($2, reminder_times)
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, enabled, times, id)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("medicine", nil)
	}
	return nil
}

func (r *prescriptionRepository) ListRemindersSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicineReminder, error) {
	query := `
		SELECT m.id, m.prescription_id, m.medicine_name, m.dosage, m.dosage_form,
		       m.frequency, m.duration_days, m.instructions,
		       m.reminder_enabled, m.reminder_times, m.created_at,
		       p.diagnosis, p.prescription_date
		FROM medicines m
		JOIN prescriptions p ON p.id = m.prescription_id
		WHERE p.patient_id = $1
		AND p.prescription_date >= $2
		AND m.reminder_enabled = TRUE
		ORDER BY p.prescription_date DESC, m.medicine_name ASC
	`
	rows, err := r.db.QueryxContext(ctx, query, patientID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*model.MedicineReminder
	for rows.Next() {
		var (
			medicine  model.Medicine
			diagnosis string
			startDate time.Time
		)
		if err := rows.Scan(
			&medicine.ID, &medicine.PrescriptionID, &medicine.Name,
			&medicine.Dosage, &medicine.DosageForm, &medicine.Frequency,
			&medicine.DurationDays, &medicine.Instructions,
			&medicine.ReminderEnabled, &medicine.ReminderTimes, &medicine.CreatedAt,
			&diagnosis, &startDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, &model.MedicineReminder{
			Medicine:  &medicine,
			Diagnosis: diagnosis,
			StartDate: startDate,
			EndDate:   startDate.AddDate(0, 0, medicine.DurationDays),
		})
	}
	return reminders, rows.Err()
}
