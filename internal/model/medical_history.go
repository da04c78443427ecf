package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryEntryType string

const (
	EntryTypeAppointment  HistoryEntryType = "APPOINTMENT"
	EntryTypePrescription HistoryEntryType = "PRESCRIPTION"
	EntryTypeLabReport    HistoryEntryType = "LAB_REPORT"
	EntryTypeDiagnosis    HistoryEntryType = "DIAGNOSIS"
	EntryTypeProcedure    HistoryEntryType = "PROCEDURE"
	EntryTypeNote         HistoryEntryType = "NOTE"
)

// MedicalHistory is one entry in a patient's clinical timeline.
type MedicalHistory struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	PatientID   uuid.UUID        `json:"patient_id" db:"patient_id"`
	DoctorID    *uuid.UUID       `json:"doctor_id,omitempty" db:"doctor_id"`
	EntryType   HistoryEntryType `json:"entry_type" db:"entry_type"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Date        time.Time        `json:"date" db:"entry_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// CreateMedicalHistoryRequest represents history entry creation parameters
type CreateMedicalHistoryRequest struct {
	PatientID   uuid.UUID        `json:"patient_id" binding:"required"`
	EntryType   HistoryEntryType `json:"entry_type" binding:"required,oneof=APPOINTMENT PRESCRIPTION LAB_REPORT DIAGNOSIS PROCEDURE NOTE"`
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"required"`
	Date        string           `json:"date" binding:"required,datetime=2006-01-02"`
}
