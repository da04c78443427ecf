package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: make(map[uuid.UUID]*model.Appointment)}
}

// Book mirrors the store guarantee: at most one active appointment per
// (doctor, date, time) slot, enforced atomically.
func (r *fakeAppointmentRepo) Book(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DoctorID == appointment.DoctorID &&
			a.Date.Equal(appointment.Date) &&
			a.Time == appointment.Time &&
			a.Status.Active() {
			return apperrors.Conflict("time slot is already booked", nil)
		}
	}
	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusPending
	appointment.CreatedAt = time.Now()
	cp := *appointment
	r.rows[appointment.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[appointment.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	cp := *appointment
	r.rows[appointment.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.rows {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.rows {
		if a.DoctorID == doctorID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListUpcoming(_ context.Context, doctorID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.Status.Active() && !a.Date.Before(from) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListPending(_ context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.Status == model.AppointmentStatusPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status.Active() {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

type allowAllChecker struct{}

func (allowAllChecker) IsActive(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func newTestService(repo *fakeAppointmentRepo) *Service {
	engine := access.NewEngine(allowAllChecker{}, nil)
	return NewService(repo, engine, DefaultConfig(), nil)
}

func newUser(role model.Role) *model.User {
	u := &model.User{Role: role}
	u.ID = uuid.New()
	return u
}

func book(t *testing.T, svc *Service, patient *model.User, doctorID uuid.UUID, date, clock string) *model.Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), patient, &model.BookAppointmentRequest{
		DoctorID: doctorID,
		Date:     date,
		Time:     clock,
		Reason:   "checkup",
	})
	require.NoError(t, err)
	return appt
}

func TestBookDefaultsAndStatus(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctorID := uuid.New()

	appt := book(t, svc, patient, doctorID, "2026-09-01", "09:30")
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.Equal(t, "09:30", appt.Time)
}

func TestDoctorCannotBook(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	doctor := newUser(model.RoleDoctor)

	_, err := svc.Book(context.Background(), doctor, &model.BookAppointmentRequest{
		DoctorID: uuid.New(),
		Date:     "2026-09-01",
		Time:     "09:30",
		Reason:   "checkup",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestSlotExclusivity(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	doctorID := uuid.New()
	first := newUser(model.RolePatient)
	second := newUser(model.RolePatient)

	book(t, svc, first, doctorID, "2026-09-01", "10:00")

	_, err := svc.Book(context.Background(), second, &model.BookAppointmentRequest{
		DoctorID: doctorID,
		Date:     "2026-09-01",
		Time:     "10:00",
		Reason:   "checkup",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// Same clock time with a different doctor is fine.
	_, err = svc.Book(context.Background(), second, &model.BookAppointmentRequest{
		DoctorID: uuid.New(),
		Date:     "2026-09-01",
		Time:     "10:00",
		Reason:   "checkup",
	})
	assert.NoError(t, err)
}

func TestConcurrentBookingOneWinner(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	doctorID := uuid.New()

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), newUser(model.RolePatient), &model.BookAppointmentRequest{
				DoctorID: doctorID,
				Date:     "2026-09-01",
				Time:     "11:00",
				Reason:   "checkup",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
		} else if apperrors.Is(err, apperrors.ErrConflict) {
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestCancelledSlotIsRebookable(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	doctorID := uuid.New()
	patient := newUser(model.RolePatient)

	appt := book(t, svc, patient, doctorID, "2026-09-01", "14:00")
	_, err := svc.Cancel(context.Background(), patient, appt.ID)
	require.NoError(t, err)

	other := newUser(model.RolePatient)
	_, err = svc.Book(context.Background(), other, &model.BookAppointmentRequest{
		DoctorID: doctorID,
		Date:     "2026-09-01",
		Time:     "14:00",
		Reason:   "checkup",
	})
	assert.NoError(t, err)
}

func TestAvailableSlots(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()
	patient := newUser(model.RolePatient)

	schedule, err := svc.AvailableSlots(context.Background(), doctorID, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, schedule.AvailableSlots, 16)
	assert.Equal(t, "09:00", schedule.AvailableSlots[0])
	assert.Equal(t, "16:30", schedule.AvailableSlots[15])

	book(t, svc, patient, doctorID, "2026-09-01", "09:00")
	appt := book(t, svc, patient, doctorID, "2026-09-01", "12:30")

	schedule, err = svc.AvailableSlots(context.Background(), doctorID, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, schedule.AvailableSlots, 14)
	assert.NotContains(t, schedule.AvailableSlots, "09:00")
	assert.NotContains(t, schedule.AvailableSlots, "12:30")

	// Cancelling frees the slot again.
	_, err = svc.Cancel(context.Background(), patient, appt.ID)
	require.NoError(t, err)
	schedule, err = svc.AvailableSlots(context.Background(), doctorID, "2026-09-01")
	require.NoError(t, err)
	assert.Contains(t, schedule.AvailableSlots, "12:30")
}

func TestDoctorTransitionFlow(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "15:00")

	confirmed, err := svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	notes := "routine checkup, all normal"
	completed, err := svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status:      model.AppointmentStatusCompleted,
		DoctorNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, notes, completed.DoctorNotes)
}

func TestPatientCanOnlyCancel(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "15:30")

	_, err := svc.TransitionStatus(context.Background(), patient, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))

	cancelled, err := svc.TransitionStatus(context.Background(), patient, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestPatientCannotWriteDoctorNotes(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "16:00")

	notes := "self-diagnosed"
	_, err := svc.TransitionStatus(context.Background(), patient, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status:      model.AppointmentStatusCancelled,
		DoctorNotes: &notes,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "16:30")

	_, err := svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	_, err = svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCompleted,
	})
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
}

func TestCancelCompletedRejected(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "13:00")
	_, err := svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	_, err = svc.TransitionStatus(context.Background(), doctor, appt.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCompleted,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), patient, appt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
}

func TestCancelTwiceIsIdempotent(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "13:30")
	_, err := svc.Cancel(context.Background(), patient, appt.ID)
	require.NoError(t, err)

	again, err := svc.Cancel(context.Background(), patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, again.Status)
}

func TestUnrelatedUserCannotTouchAppointment(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	patient := newUser(model.RolePatient)
	doctor := newUser(model.RoleDoctor)
	stranger := newUser(model.RolePatient)

	appt := book(t, svc, patient, doctor.ID, "2026-09-01", "09:30")

	_, err := svc.Get(context.Background(), stranger, appt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.Cancel(context.Background(), stranger, appt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}
