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

type labReportRepository struct {
	BaseRepository
}

func NewLabReportRepository(db *sqlx.DB) repository.LabReportRepository {
	return &labReportRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts the report and its parameters in one transaction.
func (r *labReportRepository) Create(ctx context.Context, report *model.LabReport) error {
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO lab_reports (
				id, patient_id, doctor_id, test_type, test_name, test_date,
				summary, is_normal, remarks, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, insert,
			report.ID,
			report.PatientID,
			report.DoctorID,
			report.TestType,
			report.TestName,
			report.TestDate,
			report.Summary,
			report.IsNormal,
			report.Remarks,
			report.CreatedAt,
			report.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create lab report: %w", err)
		}

		paramInsert := `
			INSERT INTO lab_test_parameters (
				id, lab_report_id, parameter_name, value, unit,
				normal_min, normal_max, is_abnormal
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, param := range report.Parameters {
			param.ID = uuid.New()
			param.LabReportID = report.ID
			param.CheckAbnormal()
			_, err := tx.ExecContext(ctx, paramInsert,
				param.ID,
				param.LabReportID,
				param.Name,
				param.Value,
				param.Unit,
				param.NormalMin,
				param.NormalMax,
				param.IsAbnormal,
			)
			if err != nil {
				return fmt.Errorf("failed to insert parameter: %w", err)
			}
		}
		return nil
	})
}

func (r *labReportRepository) Get(ctx context.Context, id uuid.UUID) (*model.LabReport, error) {
	query := `
		SELECT id, patient_id, doctor_id, test_type, test_name, test_date,
		       summary, is_normal, remarks, created_at, updated_at
		FROM lab_reports
		WHERE id = $1
	`
	var report model.LabReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("lab report", err)
		}
		return nil, fmt.Errorf("failed to get lab report: %w", err)
	}

	params := `
		SELECT id, lab_report_id, parameter_name, value, unit,
		       normal_min, normal_max, is_abnormal
		FROM lab_test_parameters
		WHERE lab_report_id = $1
		ORDER BY parameter_name ASC
	`
	if err := r.db.SelectContext(ctx, &report.Parameters, params, id); err != nil {
		return nil, fmt.Errorf("failed to get parameters: %w", err)
	}
	return &report, nil
}

func (r *labReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error) {
	return r.list(ctx, "patient_id", patientID)
}

func (r *labReportRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.LabReport, error) {
	return r.list(ctx, "doctor_id", doctorID)
}

func (r *labReportRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*model.LabReport, error) {
	query := `
		SELECT id, patient_id, doctor_id, test_type, test_name, test_date,
		       summary, is_normal, remarks, created_at, updated_at
		FROM lab_reports
		WHERE ` + column + ` = $1
		ORDER BY test_date DESC
	`
	var reports []*model.LabReport
	if err := r.db.SelectContext(ctx, &reports, query, id); err != nil {
		return nil, fmt.Errorf("failed to list lab reports: %w", err)
	}
	return reports, nil
}

func (r *labReportRepository) ParameterTrend(ctx context.Context, patientID uuid.UUID, parameterName string) ([]*model.TrendPoint, string, error) {
	query := `
		SELECT lr.test_date, p.value, p.unit
		FROM lab_test_parameters p
		JOIN lab_reports lr ON lr.id = p.lab_report_id
		WHERE lr.patient_id = $1 AND p.parameter_name = $2
		ORDER BY lr.test_date ASC
	`
	rows, err := r.db.QueryxContext(ctx, query, patientID, parameterName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query parameter trend: %w", err)
	}
	defer rows.Close()

	var (
		points []*model.TrendPoint
		unit   string
	)
	for rows.Next() {
		var point model.TrendPoint
		if err := rows.Scan(&point.TestDate, &point.Value, &unit); err != nil {
			return nil, "", fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, &point)
	}
	return points, unit, rows.Err()
}

func (r *labReportRepository) ListParameterNames(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.parameter_name
		FROM lab_test_parameters p
		JOIN lab_reports lr ON lr.id = p.lab_report_id
		WHERE lr.patient_id = $1
		ORDER BY p.parameter_name ASC
	`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list parameter names: %w", err)
	}
	return names, nil
}
