package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	"github.com/carelink/carelink-api/internal/service/access"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Config carries the business-hours window and slot granularity. The
// defaults match the historical contract: half-hour slots, 09:00 inclusive
// to 17:00 exclusive, 16 slots a day.
type Config struct {
	DayStart               string `mapstructure:"day_start"`
	DayEnd                 string `mapstructure:"day_end"`
	SlotMinutes            int    `mapstructure:"slot_minutes"`
	DefaultDurationMinutes int    `mapstructure:"default_duration_minutes"`
}

func DefaultConfig() Config {
	return Config{
		DayStart:               "09:00",
		DayEnd:                 "17:00",
		SlotMinutes:            30,
		DefaultDurationMinutes: 30,
	}
}

// Service is the scheduling engine: slot allocation, conflict detection and
// the appointment status machine. Authorization happens before scheduling;
// the engine only enforces the transition guards that depend on who the
// actor is relative to the appointment.
type Service struct {
	repo    repository.AppointmentRepository
	engine  *access.Engine
	cfg     Config
	metrics *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, engine *access.Engine, cfg Config, m *metrics.Metrics) *Service {
	if cfg.SlotMinutes <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{repo: repo, engine: engine, cfg: cfg, metrics: m}
}

// Book creates a PENDING appointment for the patient. The repository runs
// the conflict check and insert in one transaction; the partial unique index
// on active slots guarantees that of two racing bookings exactly one wins.
func (s *Service) Book(ctx context.Context, patient *model.User, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !patient.IsPatient() {
		return nil, apperrors.Forbidden("only patients can book appointments")
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperrors.Validation("invalid appointment date", err)
	}
	if _, err := parseMinute(req.Time); err != nil {
		return nil, apperrors.Validation("invalid appointment time", err)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}

	appointment := &model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        req.DoctorID,
		Date:            date,
		Time:            req.Time,
		DurationMinutes: duration,
		Reason:          req.Reason,
		Symptoms:        req.Symptoms,
	}

	start := time.Now()
	if err := s.repo.Book(ctx, appointment); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) && s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BookingsTotal.Inc()
		s.metrics.BookingLatency.Observe(time.Since(start).Seconds())
	}
	return appointment, nil
}

// Get loads an appointment the actor is allowed to read.
func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// List returns the actor's own appointments, scoped by role.
func (s *Service) List(ctx context.Context, actor *model.User, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	switch {
	case actor.IsPatient():
		return s.repo.ListByPatient(ctx, actor.ID, filters)
	case actor.IsDoctor():
		return s.repo.ListByDoctor(ctx, actor.ID, filters)
	default:
		return nil, apperrors.Forbidden("")
	}
}

// Upcoming returns the doctor's active appointments from today onward.
func (s *Service) Upcoming(ctx context.Context, doctor *model.User) ([]*model.Appointment, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Forbidden("")
	}
	today := time.Now().Truncate(24 * time.Hour)
	return s.repo.ListUpcoming(ctx, doctor.ID, today)
}

// Pending returns the doctor's unconfirmed booking requests.
func (s *Service) Pending(ctx context.Context, doctor *model.User) ([]*model.Appointment, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Forbidden("")
	}
	return s.repo.ListPending(ctx, doctor.ID)
}

// AvailableSlots computes the open half-hour slots for one doctor and date.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, dateStr string) (*model.DaySchedule, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, apperrors.Validation("invalid date", err)
	}

	startMinute, err := parseMinute(s.cfg.DayStart)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	endMinute, err := parseMinute(s.cfg.DayEnd)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	bookedTimes, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	schedule := &model.DaySchedule{
		DoctorID:       doctorID,
		Date:           dateStr,
		AvailableSlots: []string{},
	}
	for slot := range slotGrid(startMinute, endMinute, s.cfg.SlotMinutes) {
		if _, taken := booked[slot]; !taken {
			schedule.AvailableSlots = append(schedule.AvailableSlots, slot)
		}
	}
	return schedule, nil
}

// validTransitions is the status machine. Terminal states have no entry.
var validTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending:   {model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled},
	model.AppointmentStatusConfirmed: {model.AppointmentStatusCompleted, model.AppointmentStatusCancelled},
}

func transitionAllowed(from, to model.AppointmentStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionStatus moves an appointment through its status machine.
// Patients may only reach CANCELLED on their own appointments; only the
// attributed doctor confirms, completes, cancels or appends notes.
func (s *Service) TransitionStatus(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperrors.Validation("invalid appointment status", nil)
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, access.ActionRead, appointment); err != nil {
		return nil, err
	}

	switch {
	case actor.ID == appointment.PatientID:
		if req.Status != model.AppointmentStatusCancelled {
			return nil, apperrors.InvalidTransition("patients can only cancel appointments")
		}
		if req.DoctorNotes != nil {
			return nil, apperrors.Forbidden("patients cannot edit doctor notes")
		}
	case actor.ID == appointment.DoctorID:
		// attributed doctor: any machine-legal transition
	default:
		// Assignment grants read access, not control of someone else's
		// appointment.
		return nil, apperrors.Forbidden("")
	}

	if appointment.Status.Terminal() {
		return nil, apperrors.InvalidTransition("appointment is already " + string(appointment.Status))
	}
	if !transitionAllowed(appointment.Status, req.Status) {
		return nil, apperrors.InvalidTransition(
			"cannot move appointment from " + string(appointment.Status) + " to " + string(req.Status))
	}

	appointment.Status = req.Status
	if req.DoctorNotes != nil {
		appointment.DoctorNotes = *req.DoctorNotes
	}
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(req.Status)).Inc()
	}
	return appointment, nil
}

// Cancel releases the slot. A completed appointment can never be cancelled;
// cancelling an already cancelled one is absorbed as a no-op.
func (s *Service) Cancel(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.ID != appointment.PatientID && actor.ID != appointment.DoctorID {
		return nil, apperrors.Forbidden("")
	}
	if appointment.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.InvalidTransition("cannot cancel a completed appointment")
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return appointment, nil
	}

	appointment.Status = model.AppointmentStatusCancelled
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(model.AppointmentStatusCancelled)).Inc()
	}
	return appointment, nil
}
