package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is the consent relationship granting a doctor ongoing access
// to a patient's clinical data. At most one row exists per (doctor, patient)
// pair; deactivation flips IsActive instead of deleting the row, so the
// audit trail survives revocation.
type Assignment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DoctorID     uuid.UUID `json:"doctor_id" db:"doctor_id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Notes        string    `json:"notes" db:"notes"`
	AssignedDate time.Time `json:"assigned_date" db:"assigned_date"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AssignPatientRequest represents assignment creation parameters
type AssignPatientRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	Notes     string    `json:"notes"`
}

// AssignedPatient is the read model for a doctor's patient roster.
type AssignedPatient struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	AssignedDate time.Time `json:"assigned_date" db:"assigned_date"`
}
