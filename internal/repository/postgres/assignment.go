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

type assignmentRepository struct {
	BaseRepository
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *assignmentRepository) Find(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Assignment, error) {
	query := `
		SELECT id, doctor_id, patient_id, is_active, notes, assigned_date, updated_at
		FROM assignments
		WHERE doctor_id = $1 AND patient_id = $2
	`
	var assignment model.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, doctorID, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("assignment", err)
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	query := `
		INSERT INTO assignments (
			id, doctor_id, patient_id, is_active, notes, assigned_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	assignment.ID = uuid.New()
	assignment.IsActive = true
	assignment.AssignedDate = time.Now()
	assignment.UpdatedAt = assignment.AssignedDate

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.DoctorID,
		assignment.PatientID,
		assignment.IsActive,
		assignment.Notes,
		assignment.AssignedDate,
		assignment.UpdatedAt,
	)
	if err != nil {
		// The unique constraint on (doctor_id, patient_id) absorbs the
		// check-then-create race between concurrent assign calls.
		if isUniqueViolation(err, "assignments_doctor_id_patient_id_key") {
			return apperrors.Conflict("patient is already assigned to you", err)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepository) Reactivate(ctx context.Context, id uuid.UUID, notes string) (*model.Assignment, error) {
	query := `
		UPDATE assignments
		SET is_active = TRUE, notes = $1, updated_at = $2
		WHERE id = $3 AND is_active = FALSE
		RETURNING id, doctor_id, patient_id, is_active, notes, assigned_date, updated_at
	`
	var assignment model.Assignment
	err := r.db.GetContext(ctx, &assignment, query, notes, time.Now(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Raced with another assign that reactivated first.
			return nil, apperrors.Conflict("patient is already assigned to you", err)
		}
		return nil, fmt.Errorf("failed to reactivate assignment: %w", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) Deactivate(ctx context.Context, doctorID, patientID uuid.UUID) error {
	query := `
		UPDATE assignments
		SET is_active = FALSE, updated_at = $1
		WHERE doctor_id = $2 AND patient_id = $3 AND is_active = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), doctorID, patientID)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("assignment", nil)
	}
	return nil
}

func (r *assignmentRepository) IsActive(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	// Single indexed lookup; this is the hot path of every authorization
	// decision for non-attributed doctors.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE doctor_id = $1 AND patient_id = $2 AND is_active = TRUE
		)
	`
	var active bool
	if err := r.db.GetContext(ctx, &active, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return active, nil
}

func (r *assignmentRepository) ListActivePatients(ctx context.Context, doctorID uuid.UUID) ([]*model.AssignedPatient, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.phone, a.assigned_date
		FROM assignments a
		JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.is_active = TRUE
		ORDER BY a.assigned_date DESC
	`
	var patients []*model.AssignedPatient
	if err := r.db.SelectContext(ctx, &patients, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}
	return patients, nil
}
