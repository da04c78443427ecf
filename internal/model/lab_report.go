package model

import (
	"time"

	"github.com/google/uuid"
)

type LabTestType string

const (
	TestTypeBlood      LabTestType = "BLOOD"
	TestTypeUrine      LabTestType = "URINE"
	TestTypeXRay       LabTestType = "XRAY"
	TestTypeMRI        LabTestType = "MRI"
	TestTypeCT         LabTestType = "CT"
	TestTypeECG        LabTestType = "ECG"
	TestTypeUltrasound LabTestType = "ULTRASOUND"
	TestTypeOther      LabTestType = "OTHER"
)

// LabReport belongs to a patient. DoctorID is the ordering doctor and may be
// absent for walk-in tests.
type LabReport struct {
	Base
	PatientID  uuid.UUID           `json:"patient_id" db:"patient_id"`
	DoctorID   *uuid.UUID          `json:"doctor_id,omitempty" db:"doctor_id"`
	TestType   LabTestType         `json:"test_type" db:"test_type"`
	TestName   string              `json:"test_name" db:"test_name"`
	TestDate   time.Time           `json:"test_date" db:"test_date"`
	Summary    string              `json:"summary" db:"summary"`
	IsNormal   bool                `json:"is_normal" db:"is_normal"`
	Remarks    string              `json:"remarks" db:"remarks"`
	Parameters []*LabTestParameter `json:"parameters,omitempty" db:"-"`
}

type LabTestParameter struct {
	ID          uuid.UUID `json:"id" db:"id"`
	LabReportID uuid.UUID `json:"lab_report_id" db:"lab_report_id"`
	Name        string    `json:"parameter_name" db:"parameter_name"`
	Value       float64   `json:"value" db:"value"`
	Unit        string    `json:"unit" db:"unit"`
	NormalMin   *float64  `json:"normal_min,omitempty" db:"normal_min"`
	NormalMax   *float64  `json:"normal_max,omitempty" db:"normal_max"`
	IsAbnormal  bool      `json:"is_abnormal" db:"is_abnormal"`
}

// CheckAbnormal recomputes the abnormal flag from the reference range.
// Parameters without a full range are never flagged.
func (p *LabTestParameter) CheckAbnormal() bool {
	if p.NormalMin != nil && p.NormalMax != nil {
		p.IsAbnormal = p.Value < *p.NormalMin || p.Value > *p.NormalMax
	}
	return p.IsAbnormal
}

// ParameterInput is the payload shape for parameters inside a report.
type ParameterInput struct {
	Name      string   `json:"parameter_name" binding:"required,max=100"`
	Value     float64  `json:"value" binding:"required"`
	Unit      string   `json:"unit" binding:"required,max=50"`
	NormalMin *float64 `json:"normal_min"`
	NormalMax *float64 `json:"normal_max"`
}

// CreateLabReportRequest represents lab report creation parameters
type CreateLabReportRequest struct {
	PatientID  uuid.UUID         `json:"patient_id" binding:"required"`
	TestType   LabTestType       `json:"test_type" binding:"required,oneof=BLOOD URINE XRAY MRI CT ECG ULTRASOUND OTHER"`
	TestName   string            `json:"test_name" binding:"required,max=200"`
	TestDate   string            `json:"test_date" binding:"required,datetime=2006-01-02"`
	Summary    string            `json:"summary"`
	Remarks    string            `json:"remarks"`
	Parameters []*ParameterInput `json:"parameters" binding:"omitempty,dive"`
}

// TrendPoint is one observation in a parameter's history.
type TrendPoint struct {
	TestDate time.Time `json:"test_date" db:"test_date"`
	Value    float64   `json:"value" db:"value"`
}

// ParameterStats summarizes a parameter's history for one patient.
type ParameterStats struct {
	Name   string  `json:"parameter_name"`
	Unit   string  `json:"unit"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Latest float64 `json:"latest"`
}
