package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave this status.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Active reports whether the appointment still occupies its slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Appointment is owned by the patient who booked it and targeted at a
// doctor. A (doctor, date, time) slot holds at most one active appointment.
type Appointment struct {
	Base
	PatientID       uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID        uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	Date            time.Time         `json:"appointment_date" db:"appointment_date"`
	Time            string            `json:"appointment_time" db:"appointment_time"`
	DurationMinutes int               `json:"duration_minutes" db:"duration_minutes"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Reason          string            `json:"reason" db:"reason"`
	Symptoms        string            `json:"symptoms" db:"symptoms"`
	DoctorNotes     string            `json:"doctor_notes" db:"doctor_notes"`
}

// BookAppointmentRequest represents booking parameters
type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	Date            string    `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	Time            string    `json:"appointment_time" binding:"required,timeofday"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=15,max=240"`
	Reason          string    `json:"reason" binding:"required,max=255"`
	Symptoms        string    `json:"symptoms" binding:"max=2000"`
}

// UpdateAppointmentStatusRequest represents a status transition request
type UpdateAppointmentStatusRequest struct {
	Status      AppointmentStatus `json:"status" binding:"required"`
	DoctorNotes *string           `json:"doctor_notes"`
}

// AppointmentFilters narrows appointment listings.
type AppointmentFilters struct {
	Status   AppointmentStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// DaySchedule is the availability read model for one doctor and date.
type DaySchedule struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
}
