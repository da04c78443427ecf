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

type doctorProfileRepository struct {
	BaseRepository
}

func NewDoctorProfileRepository(db *sqlx.DB) repository.DoctorProfileRepository {
	return &doctorProfileRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *doctorProfileRepository) Create(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (
			id, user_id, specialization, license_number, qualification,
			experience_years, office_address, consultation_fee, bio,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Specialization,
		profile.LicenseNumber,
		profile.Qualification,
		profile.ExperienceYears,
		profile.OfficeAddress,
		profile.ConsultationFee,
		profile.Bio,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "doctor_profiles_user_id_key") {
			return apperrors.Conflict("profile already exists", err)
		}
		if isUniqueViolation(err, "doctor_profiles_license_number_key") {
			return apperrors.Conflict("license number already registered", err)
		}
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}
	return nil
}

const doctorProfileColumns = `
	dp.id, dp.user_id, dp.specialization, dp.license_number, dp.qualification,
	dp.experience_years, dp.office_address, dp.consultation_fee, dp.bio,
	dp.created_at, dp.updated_at, u.first_name, u.last_name
`

func (r *doctorProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT ` + doctorProfileColumns + `
		FROM doctor_profiles dp
		JOIN users u ON u.id = dp.user_id
		WHERE dp.user_id = $1
	`
	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor profile", err)
		}
		return nil, fmt.Errorf("failed to get doctor profile: %w", err)
	}
	return &profile, nil
}

func (r *doctorProfileRepository) Update(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		UPDATE doctor_profiles
		SET specialization = $1, license_number = $2, qualification = $3,
		    experience_years = $4, office_address = $5, consultation_fee = $6,
		    bio = $7, updated_at = $8
		WHERE user_id = $9
	`
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		profile.Specialization,
		profile.LicenseNumber,
		profile.Qualification,
		profile.ExperienceYears,
		profile.OfficeAddress,
		profile.ConsultationFee,
		profile.Bio,
		profile.UpdatedAt,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("doctor profile", nil)
	}
	return nil
}

func (r *doctorProfileRepository) List(ctx context.Context, filters *model.DoctorSearchFilters) ([]*model.DoctorProfile, error) {
	query := `
		SELECT ` + doctorProfileColumns + `
		FROM doctor_profiles dp
		JOIN users u ON u.id = dp.user_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Specialization != "" {
			query += fmt.Sprintf(" AND dp.specialization ILIKE $%d", argCount)
			args = append(args, "%"+filters.Specialization+"%")
			argCount++
		}
		if filters.Name != "" {
			query += fmt.Sprintf(" AND (u.first_name ILIKE $%d OR u.last_name ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.Name+"%")
			argCount++
		}
	}

	query += " ORDER BY u.last_name ASC, u.first_name ASC"

	var profiles []*model.DoctorProfile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctor profiles: %w", err)
	}
	return profiles, nil
}

type patientProfileRepository struct {
	BaseRepository
}

func NewPatientProfileRepository(db *sqlx.DB) repository.PatientProfileRepository {
	return &patientProfileRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *patientProfileRepository) Create(ctx context.Context, profile *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (
			id, user_id, gender, blood_group, height_cm, weight_kg,
			address, emergency_contact, emergency_contact_name,
			allergies, chronic_conditions, current_medications,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Gender,
		profile.BloodGroup,
		profile.HeightCM,
		profile.WeightKG,
		profile.Address,
		profile.EmergencyContact,
		profile.EmergencyContactName,
		profile.Allergies,
		profile.ChronicConditions,
		profile.CurrentMedications,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "patient_profiles_user_id_key") {
			return apperrors.Conflict("profile already exists", err)
		}
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

func (r *patientProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT id, user_id, gender, blood_group, height_cm, weight_kg,
		       address, emergency_contact, emergency_contact_name,
		       allergies, chronic_conditions, current_medications,
		       created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient profile", err)
		}
		return nil, fmt.Errorf("failed to get patient profile: %w", err)
	}
	return &profile, nil
}

func (r *patientProfileRepository) Update(ctx context.Context, profile *model.PatientProfile) error {
	query := `
		UPDATE patient_profiles
		SET gender = $1, blood_group = $2, height_cm = $3, weight_kg = $4,
		    address = $5, emergency_contact = $6, emergency_contact_name = $7,
		    allergies = $8, chronic_conditions = $9, current_medications = $10,
		    updated_at = $11
		WHERE user_id = $12
	`
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		profile.Gender,
		profile.BloodGroup,
		profile.HeightCM,
		profile.WeightKG,
		profile.Address,
		profile.EmergencyContact,
		profile.EmergencyContactName,
		profile.Allergies,
		profile.ChronicConditions,
		profile.CurrentMedications,
		profile.UpdatedAt,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient profile", nil)
	}
	return nil
}
