package model

import (
	"github.com/google/uuid"
)

type Specialization string

const (
	SpecializationGeneral       Specialization = "GENERAL"
	SpecializationCardiology    Specialization = "CARDIOLOGY"
	SpecializationNeurology     Specialization = "NEUROLOGY"
	SpecializationOrthopedics   Specialization = "ORTHOPEDICS"
	SpecializationPediatrics    Specialization = "PEDIATRICS"
	SpecializationDermatology   Specialization = "DERMATOLOGY"
	SpecializationPsychiatry    Specialization = "PSYCHIATRY"
	SpecializationGynecology    Specialization = "GYNECOLOGY"
	SpecializationENT           Specialization = "ENT"
	SpecializationOphthalmology Specialization = "OPHTHALMOLOGY"
)

// DoctorProfile holds the public professional record behind a doctor account.
type DoctorProfile struct {
	Base
	UserID          uuid.UUID      `json:"user_id" db:"user_id"`
	Specialization  Specialization `json:"specialization" db:"specialization"`
	LicenseNumber   string         `json:"license_number" db:"license_number"`
	Qualification   string         `json:"qualification" db:"qualification"`
	ExperienceYears int            `json:"experience_years" db:"experience_years"`
	OfficeAddress   string         `json:"office_address" db:"office_address"`
	ConsultationFee float64        `json:"consultation_fee" db:"consultation_fee"`
	Bio             string         `json:"bio" db:"bio"`
	FirstName       string         `json:"first_name" db:"first_name"`
	LastName        string         `json:"last_name" db:"last_name"`
}

// UpsertDoctorProfileRequest represents doctor profile parameters
type UpsertDoctorProfileRequest struct {
	Specialization  Specialization `json:"specialization" binding:"required,oneof=GENERAL CARDIOLOGY NEUROLOGY ORTHOPEDICS PEDIATRICS DERMATOLOGY PSYCHIATRY GYNECOLOGY ENT OPHTHALMOLOGY"`
	LicenseNumber   string         `json:"license_number" binding:"required,max=50"`
	Qualification   string         `json:"qualification" binding:"required,max=200"`
	ExperienceYears int            `json:"experience_years" binding:"min=0"`
	OfficeAddress   string         `json:"office_address"`
	ConsultationFee float64        `json:"consultation_fee" binding:"min=0"`
	Bio             string         `json:"bio"`
}

// DoctorSearchFilters narrows the public doctor directory.
type DoctorSearchFilters struct {
	Specialization string `form:"specialization"`
	Name           string `form:"name"`
}

// PatientProfile holds demographic and background data for a patient.
type PatientProfile struct {
	Base
	UserID               uuid.UUID `json:"user_id" db:"user_id"`
	Gender               string    `json:"gender" db:"gender"`
	BloodGroup           string    `json:"blood_group" db:"blood_group"`
	HeightCM             *float64  `json:"height_cm,omitempty" db:"height_cm"`
	WeightKG             *float64  `json:"weight_kg,omitempty" db:"weight_kg"`
	Address              string    `json:"address" db:"address"`
	EmergencyContact     string    `json:"emergency_contact" db:"emergency_contact"`
	EmergencyContactName string    `json:"emergency_contact_name" db:"emergency_contact_name"`
	Allergies            string    `json:"allergies" db:"allergies"`
	ChronicConditions    string    `json:"chronic_conditions" db:"chronic_conditions"`
	CurrentMedications   string    `json:"current_medications" db:"current_medications"`
}

// UpsertPatientProfileRequest represents patient profile parameters
type UpsertPatientProfileRequest struct {
	Gender               string   `json:"gender" binding:"required,oneof=M F O"`
	BloodGroup           string   `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	HeightCM             *float64 `json:"height_cm" binding:"omitempty,gt=0"`
	WeightKG             *float64 `json:"weight_kg" binding:"omitempty,gt=0"`
	Address              string   `json:"address"`
	EmergencyContact     string   `json:"emergency_contact" binding:"max=15"`
	EmergencyContactName string   `json:"emergency_contact_name" binding:"max=100"`
	Allergies            string   `json:"allergies"`
	ChronicConditions    string   `json:"chronic_conditions"`
	CurrentMedications   string   `json:"current_medications"`
}
