package model

import (
	"time"

	"github.com/google/uuid"
)

type MedicineFrequency string

const (
	FrequencyOnceDaily   MedicineFrequency = "ONCE_DAILY"
	FrequencyTwiceDaily  MedicineFrequency = "TWICE_DAILY"
	FrequencyThreeTimes  MedicineFrequency = "THREE_TIMES"
	FrequencyFourTimes   MedicineFrequency = "FOUR_TIMES"
	FrequencyAsNeeded    MedicineFrequency = "AS_NEEDED"
	FrequencyBeforeMeals MedicineFrequency = "BEFORE_MEALS"
	FrequencyAfterMeals  MedicineFrequency = "AFTER_MEALS"
)

type DosageForm string

const (
	DosageFormTablet    DosageForm = "TABLET"
	DosageFormCapsule   DosageForm = "CAPSULE"
	DosageFormSyrup     DosageForm = "SYRUP"
	DosageFormInjection DosageForm = "INJECTION"
	DosageFormDrops     DosageForm = "DROPS"
	DosageFormCream     DosageForm = "CREAM"
	DosageFormOintment  DosageForm = "OINTMENT"
)

// Prescription is authored by a doctor for an owning patient. Medicines are
// child rows removed together with their parent.
type Prescription struct {
	Base
	PatientID        uuid.UUID   `json:"patient_id" db:"patient_id"`
	DoctorID         uuid.UUID   `json:"doctor_id" db:"doctor_id"`
	Diagnosis        string      `json:"diagnosis" db:"diagnosis"`
	Notes            string      `json:"notes" db:"notes"`
	PrescriptionDate time.Time   `json:"prescription_date" db:"prescription_date"`
	Medicines        []*Medicine `json:"medicines,omitempty" db:"-"`
}

type Medicine struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	PrescriptionID  uuid.UUID         `json:"prescription_id" db:"prescription_id"`
	Name            string            `json:"medicine_name" db:"medicine_name"`
	Dosage          string            `json:"dosage" db:"dosage"`
	DosageForm      DosageForm        `json:"dosage_form" db:"dosage_form"`
	Frequency       MedicineFrequency `json:"frequency" db:"frequency"`
	DurationDays    int               `json:"duration_days" db:"duration_days"`
	Instructions    string            `json:"instructions" db:"instructions"`
	ReminderEnabled bool              `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderTimes   string            `json:"reminder_times" db:"reminder_times"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// MedicineInput is the payload shape for medicines inside a prescription.
type MedicineInput struct {
	Name            string            `json:"medicine_name" binding:"required,max=200"`
	Dosage          string            `json:"dosage" binding:"required,max=100"`
	DosageForm      DosageForm        `json:"dosage_form" binding:"omitempty,oneof=TABLET CAPSULE SYRUP INJECTION DROPS CREAM OINTMENT"`
	Frequency       MedicineFrequency `json:"frequency" binding:"required,oneof=ONCE_DAILY TWICE_DAILY THREE_TIMES FOUR_TIMES AS_NEEDED BEFORE_MEALS AFTER_MEALS"`
	DurationDays    int               `json:"duration_days" binding:"required,min=1"`
	Instructions    string            `json:"instructions"`
	ReminderEnabled *bool             `json:"reminder_enabled"`
	ReminderTimes   string            `json:"reminder_times"`
}

// CreatePrescriptionRequest represents prescription creation parameters
type CreatePrescriptionRequest struct {
	PatientID uuid.UUID        `json:"patient_id" binding:"required"`
	Diagnosis string           `json:"diagnosis" binding:"required,max=200"`
	Notes     string           `json:"notes"`
	Medicines []*MedicineInput `json:"medicines" binding:"required,min=1,dive"`
}

// UpdateReminderRequest toggles reminder settings, a patient-reserved write.
type UpdateReminderRequest struct {
	ReminderEnabled *bool   `json:"reminder_enabled"`
	ReminderTimes   *string `json:"reminder_times"`
}

// MedicineReminder is the read model for a patient's active reminders.
type MedicineReminder struct {
	Medicine  *Medicine `json:"medicine"`
	Diagnosis string    `json:"diagnosis"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
