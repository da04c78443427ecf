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

type medicalHistoryRepository struct {
	BaseRepository
}

func NewMedicalHistoryRepository(db *sqlx.DB) repository.MedicalHistoryRepository {
	return &medicalHistoryRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *medicalHistoryRepository) Create(ctx context.Context, entry *model.MedicalHistory) error {
	query := `
		INSERT INTO medical_history (
			id, patient_id, doctor_id, entry_type, title,
			description, entry_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.DoctorID,
		entry.EntryType,
		entry.Title,
		entry.Description,
		entry.Date,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *medicalHistoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	query := `
		SELECT id, patient_id, doctor_id, entry_type, title,
		       description, entry_date, created_at
		FROM medical_history
		WHERE id = $1
	`
	var entry model.MedicalHistory
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("history entry", err)
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &entry, nil
}

func (r *medicalHistoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	query := `
		SELECT id, patient_id, doctor_id, entry_type, title,
		       description, entry_date, created_at
		FROM medical_history
		WHERE patient_id = $1
		ORDER BY entry_date DESC
	`
	var entries []*model.MedicalHistory
	if err := r.db.SelectContext(ctx, &entries, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	return entries, nil
}
