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

const appointmentColumns = `
	id, patient_id, doctor_id, appointment_date,
	to_char(appointment_time, 'HH24:MI') AS appointment_time,
	duration_minutes, status, reason, symptoms, doctor_notes,
	created_at, updated_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

// Book runs the conflict check and insert in one transaction. The partial
// unique index on active (doctor, date, time) slots remains the final
// arbiter when two bookings race past the check.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusPending
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existing uuid.UUID
		check := `
			SELECT id FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status IN ('PENDING', 'CONFIRMED')
			FOR UPDATE
		`
		err := tx.GetContext(ctx, &existing, check,
			appointment.DoctorID, appointment.Date, appointment.Time)
		if err == nil {
			return apperrors.Conflict("time slot is already booked", nil)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check slot: %w", err)
		}

		insert := `
			INSERT INTO appointments (
				id, patient_id, doctor_id, appointment_date, appointment_time,
				duration_minutes, status, reason, symptoms, doctor_notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		_, err = tx.ExecContext(ctx, insert,
			appointment.ID,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.Date,
			appointment.Time,
			appointment.DurationMinutes,
			appointment.Status,
			appointment.Reason,
			appointment.Symptoms,
			appointment.DoctorNotes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err, "appointments_active_slot_idx") {
			return apperrors.Conflict("time slot is already booked", err)
		}
		return err
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, doctor_notes = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.DoctorNotes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return r.list(ctx, "patient_id", patientID, filters)
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return r.list(ctx, "doctor_id", doctorID, filters)
}

func (r *appointmentRepository) list(ctx context.Context, column string, id uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + column + ` = $1`
	args := []interface{}{id}
	argCount := 2

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.DateFrom != nil {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, *filters.DateFrom)
			argCount++
		}
		if filters.DateTo != nil {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, *filters.DateTo)
			argCount++
		}
	}

	query += " ORDER BY appointment_date DESC, appointment_time DESC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUpcoming(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date >= $2
		AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY appointment_date ASC, appointment_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, from); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPending(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND status = 'PENDING'
		ORDER BY appointment_date ASC, appointment_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list pending appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT to_char(appointment_time, 'HH24:MI')
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date = $2
		AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY appointment_time ASC
	`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	return times, nil
}
