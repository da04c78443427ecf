package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

type fakePrescriptionRepo struct {
	prescriptions map[uuid.UUID]*model.Prescription
	medicines     map[uuid.UUID]*model.Medicine
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{
		prescriptions: make(map[uuid.UUID]*model.Prescription),
		medicines:     make(map[uuid.UUID]*model.Medicine),
	}
}

func (r *fakePrescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	for _, m := range p.Medicines {
		m.ID = uuid.New()
		m.PrescriptionID = p.ID
		r.medicines[m.ID] = m
	}
	r.prescriptions[p.ID] = p
	return nil
}

func (r *fakePrescriptionRepo) Get(_ context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, apperrors.NotFound("prescription", nil)
	}
	return p, nil
}

func (r *fakePrescriptionRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	var out []*model.Prescription
	for _, p := range r.prescriptions {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrescriptionRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	var out []*model.Prescription
	for _, p := range r.prescriptions {
		if p.DoctorID == doctorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrescriptionRepo) AddMedicine(_ context.Context, m *model.Medicine) error {
	m.ID = uuid.New()
	r.medicines[m.ID] = m
	return nil
}

func (r *fakePrescriptionRepo) GetMedicine(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	m, ok := r.medicines[id]
	if !ok {
		return nil, apperrors.NotFound("medicine", nil)
	}
	return m, nil
}

func (r *fakePrescriptionRepo) UpdateMedicineReminder(_ context.Context, id uuid.UUID, enabled *bool, times *string) error {
	m, ok := r.medicines[id]
	if !ok {
		return apperrors.NotFound("medicine", nil)
	}
	if enabled != nil {
		m.ReminderEnabled = *enabled
	}
	if times != nil {
		m.ReminderTimes = *times
	}
	return nil
}

func (r *fakePrescriptionRepo) ListRemindersSince(_ context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicineReminder, error) {
	var out []*model.MedicineReminder
	for _, p := range r.prescriptions {
		if p.PatientID != patientID || p.PrescriptionDate.Before(since) {
			continue
		}
		for _, m := range r.medicines {
			if m.PrescriptionID == p.ID && m.ReminderEnabled {
				out = append(out, &model.MedicineReminder{
					Medicine:  m,
					Diagnosis: p.Diagnosis,
					StartDate: p.PrescriptionDate,
					EndDate:   p.PrescriptionDate.AddDate(0, 0, m.DurationDays),
				})
			}
		}
	}
	return out, nil
}

type fakeChecker struct {
	active map[[2]uuid.UUID]bool
}

func (f *fakeChecker) IsActive(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return f.active[[2]uuid.UUID{doctorID, patientID}], nil
}

func setup() (*Service, *fakePrescriptionRepo, *fakeChecker) {
	repo := newFakePrescriptionRepo()
	checker := &fakeChecker{active: make(map[[2]uuid.UUID]bool)}
	return NewService(repo, access.NewEngine(checker, nil)), repo, checker
}

func newUser(role model.Role) *model.User {
	u := &model.User{Role: role}
	u.ID = uuid.New()
	return u
}

func boolPtr(b bool) *bool { return &b }

func TestCreateRequiresAssignment(t *testing.T) {
	svc, _, checker := setup()
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)

	req := &model.CreatePrescriptionRequest{
		PatientID: patient.ID,
		Diagnosis: "tonsillitis",
		Medicines: []*model.MedicineInput{{
			Name:         "Amoxicillin",
			Dosage:       "500mg",
			Frequency:    model.FrequencyTwiceDaily,
			DurationDays: 7,
		}},
	}

	_, err := svc.Create(context.Background(), doctor, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	checker.active[[2]uuid.UUID{doctor.ID, patient.ID}] = true
	p, err := svc.Create(context.Background(), doctor, req)
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, p.DoctorID)
	require.Len(t, p.Medicines, 1)
	assert.Equal(t, model.DosageFormTablet, p.Medicines[0].DosageForm)
}

func TestPatientCannotCreate(t *testing.T) {
	svc, _, _ := setup()
	patient := newUser(model.RolePatient)

	_, err := svc.Create(context.Background(), patient, &model.CreatePrescriptionRequest{
		PatientID: patient.ID,
		Diagnosis: "self-care",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestReminderToggleIsPatientWrite(t *testing.T) {
	svc, repo, checker := setup()
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	checker.active[[2]uuid.UUID{doctor.ID, patient.ID}] = true

	p, err := svc.Create(context.Background(), doctor, &model.CreatePrescriptionRequest{
		PatientID: patient.ID,
		Diagnosis: "hypertension",
		Medicines: []*model.MedicineInput{{
			Name:         "Amlodipine",
			Dosage:       "5mg",
			Frequency:    model.FrequencyOnceDaily,
			DurationDays: 30,
		}},
	})
	require.NoError(t, err)
	medicineID := p.Medicines[0].ID

	// The prescribing doctor cannot flip the patient's reminder settings.
	_, err = svc.UpdateReminder(context.Background(), doctor, medicineID, &model.UpdateReminderRequest{
		ReminderEnabled: boolPtr(true),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	m, err := svc.UpdateReminder(context.Background(), patient, medicineID, &model.UpdateReminderRequest{
		ReminderEnabled: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, m.ReminderEnabled)
	assert.True(t, repo.medicines[medicineID].ReminderEnabled)
}

func TestRemindersWindow(t *testing.T) {
	svc, repo, checker := setup()
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	checker.active[[2]uuid.UUID{doctor.ID, patient.ID}] = true

	mk := func(age, durationDays int) {
		p := &model.Prescription{
			PatientID:        patient.ID,
			DoctorID:         doctor.ID,
			Diagnosis:        "test",
			PrescriptionDate: time.Now().AddDate(0, 0, -age),
			Medicines: []*model.Medicine{{
				Name:            "med",
				DurationDays:    durationDays,
				ReminderEnabled: true,
			}},
		}
		require.NoError(t, repo.Create(context.Background(), p))
	}

	mk(2, 10)  // running
	mk(20, 5)  // course ended 15 days ago
	mk(45, 60) // outside the lookback window entirely

	reminders, err := svc.Reminders(context.Background(), patient)
	require.NoError(t, err)
	assert.Len(t, reminders, 1)

	_, err = svc.Reminders(context.Background(), doctor)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestGetMedicineFollowsPrescriptionAccess(t *testing.T) {
	svc, _, checker := setup()
	doctor := newUser(model.RoleDoctor)
	stranger := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	checker.active[[2]uuid.UUID{doctor.ID, patient.ID}] = true

	p, err := svc.Create(context.Background(), doctor, &model.CreatePrescriptionRequest{
		PatientID: patient.ID,
		Diagnosis: "migraine",
		Medicines: []*model.MedicineInput{{
			Name:         "Sumatriptan",
			Dosage:       "50mg",
			Frequency:    model.FrequencyAsNeeded,
			DurationDays: 10,
		}},
	})
	require.NoError(t, err)
	medicineID := p.Medicines[0].ID

	m, err := svc.GetMedicine(context.Background(), patient, medicineID)
	require.NoError(t, err)
	assert.Equal(t, "Sumatriptan", m.Name)

	_, err = svc.GetMedicine(context.Background(), doctor, medicineID)
	require.NoError(t, err)

	_, err = svc.GetMedicine(context.Background(), stranger, medicineID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestAddMedicineReservedToPrescriber(t *testing.T) {
	svc, _, checker := setup()
	doctor := newUser(model.RoleDoctor)
	other := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	checker.active[[2]uuid.UUID{doctor.ID, patient.ID}] = true
	checker.active[[2]uuid.UUID{other.ID, patient.ID}] = true

	p, err := svc.Create(context.Background(), doctor, &model.CreatePrescriptionRequest{
		PatientID: patient.ID,
		Diagnosis: "bronchitis",
		Medicines: []*model.MedicineInput{{
			Name:         "Salbutamol",
			Dosage:       "100mcg",
			Frequency:    model.FrequencyAsNeeded,
			DurationDays: 14,
		}},
	})
	require.NoError(t, err)

	input := &model.MedicineInput{
		Name:         "Prednisolone",
		Dosage:       "20mg",
		Frequency:    model.FrequencyOnceDaily,
		DurationDays: 5,
	}

	// An assigned but unattributed doctor may read the prescription, but
	// only the prescribing doctor can extend it.
	_, err = svc.AddMedicine(context.Background(), other, p.ID, input)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	_, err = svc.Get(context.Background(), other, p.ID)
	require.NoError(t, err)

	m, err := svc.AddMedicine(context.Background(), doctor, p.ID, input)
	require.NoError(t, err)
	assert.Equal(t, p.ID, m.PrescriptionID)
}
