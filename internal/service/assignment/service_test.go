package assignment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink-api/internal/model"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

type fakeAssignmentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: make(map[uuid.UUID]*model.Assignment)}
}

func (r *fakeAssignmentRepo) Find(_ context.Context, doctorID, patientID uuid.UUID) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("assignment", nil)
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DoctorID == assignment.DoctorID && a.PatientID == assignment.PatientID {
			return apperrors.Conflict("assignment already exists", nil)
		}
	}
	assignment.ID = uuid.New()
	assignment.IsActive = true
	assignment.AssignedDate = time.Now()
	cp := *assignment
	r.rows[assignment.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) Reactivate(_ context.Context, id uuid.UUID, notes string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.IsActive {
		return nil, apperrors.Conflict("assignment is already active", nil)
	}
	a.IsActive = true
	a.Notes = notes
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) Deactivate(_ context.Context, doctorID, patientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.PatientID == patientID && a.IsActive {
			a.IsActive = false
			return nil
		}
	}
	return apperrors.NotFound("assignment", nil)
}

func (r *fakeAssignmentRepo) IsActive(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			return a.IsActive, nil
		}
	}
	return false, nil
}

func (r *fakeAssignmentRepo) ListActivePatients(_ context.Context, doctorID uuid.UUID) ([]*model.AssignedPatient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AssignedPatient
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.IsActive {
			out = append(out, &model.AssignedPatient{ID: a.PatientID, AssignedDate: a.AssignedDate})
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	u.PasswordHash = hash
	return nil
}

func newUser(role model.Role) *model.User {
	u := &model.User{Role: role}
	u.ID = uuid.New()
	return u
}

func TestAssignCreatesActiveAssignment(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(patient), nil)

	a, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: patient.ID})
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Equal(t, doctor.ID, a.DoctorID)
	assert.Equal(t, patient.ID, a.PatientID)

	active, err := svc.IsActive(context.Background(), doctor.ID, patient.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestAssignTwiceConflicts(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(patient), nil)

	_, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: patient.ID})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: patient.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestReassignReactivatesSameRow(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	patient := newUser(model.RolePatient)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(patient), nil)

	first, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: patient.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Unassign(context.Background(), doctor, patient.ID))
	active, err := svc.IsActive(context.Background(), doctor.ID, patient.ID)
	require.NoError(t, err)
	assert.False(t, active)

	second, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: patient.ID, Notes: "follow-up"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "reactivation must reuse the original row")
	assert.True(t, second.IsActive)
	assert.Equal(t, "follow-up", second.Notes)
}

func TestAssignRejectsNonPatientTarget(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	otherDoctor := newUser(model.RoleDoctor)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(otherDoctor), nil)

	_, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: otherDoctor.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestAssignUnknownPatient(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(), nil)

	_, err := svc.Assign(context.Background(), doctor, &model.AssignPatientRequest{PatientID: uuid.New()})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPatientCannotAssign(t *testing.T) {
	patient := newUser(model.RolePatient)
	svc := NewService(newFakeAssignmentRepo(), newFakeUserRepo(patient), nil)

	_, err := svc.Assign(context.Background(), patient, &model.AssignPatientRequest{PatientID: patient.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}
