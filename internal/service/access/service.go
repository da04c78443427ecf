package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/metrics"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Action classifies what the actor wants to do with a resource. Writes are
// split by authorship: patients own fields like appointment cancellation and
// medicine reminders, clinicians own doctor notes, diagnoses and parameter
// values.
type Action int

const (
	ActionRead Action = iota
	ActionWritePatient
	ActionWriteClinician
)

// Resource is any clinical record the engine can decide on.
type Resource interface {
	OwnerID() uuid.UUID
	AttributedDoctor() (uuid.UUID, bool)
}

// AssignmentChecker is the one store round-trip the engine is allowed.
type AssignmentChecker interface {
	IsActive(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}

// Engine decides, per request and per resource instance, whether an actor
// may act on it. Decisions are never cached: assignment state can change
// between calls.
type Engine struct {
	assignments AssignmentChecker
	metrics     *metrics.Metrics
}

func NewEngine(assignments AssignmentChecker, m *metrics.Metrics) *Engine {
	return &Engine{assignments: assignments, metrics: m}
}

// CanAccess evaluates the decision rules in precedence order:
//
//  1. the owning patient reads everything and writes patient-reserved fields
//  2. the attributed doctor reads and writes clinician-authored fields
//  3. any other doctor may read, but only while an active assignment to the
//     owning patient exists; writes to existing records stay with the
//     attributed doctor
//  4. everything else is denied
//
// Attribution and assignment are independent read grants; either one
// suffices. New records are gated separately by CanCreateClinical.
func (e *Engine) CanAccess(ctx context.Context, actor *model.User, action Action, resource Resource) (Decision, error) {
	decision, err := e.decide(ctx, actor, action, resource)
	if err != nil {
		return Deny, err
	}
	if e.metrics != nil {
		e.metrics.AccessDecisions.WithLabelValues(decision.String()).Inc()
	}
	return decision, nil
}

func (e *Engine) decide(ctx context.Context, actor *model.User, action Action, resource Resource) (Decision, error) {
	if actor == nil || resource == nil {
		return Deny, nil
	}

	// Rule 1: owning patient.
	if actor.ID == resource.OwnerID() {
		switch action {
		case ActionRead, ActionWritePatient:
			return Allow, nil
		default:
			return Deny, nil
		}
	}

	if !actor.IsDoctor() {
		return Deny, nil
	}

	// Rule 2: attributed doctor.
	if doctorID, ok := resource.AttributedDoctor(); ok && doctorID == actor.ID {
		switch action {
		case ActionRead, ActionWriteClinician:
			return Allow, nil
		default:
			return Deny, nil
		}
	}

	// Rule 3: unattributed doctor with an active assignment, read only.
	if action == ActionRead {
		active, err := e.assignments.IsActive(ctx, actor.ID, resource.OwnerID())
		if err != nil {
			return Deny, fmt.Errorf("failed to check assignment: %w", err)
		}
		if active {
			return Allow, nil
		}
	}

	return Deny, nil
}

// Authorize is CanAccess folded into the error domain: a denial surfaces as
// a generic Forbidden that leaks nothing about the resource.
func (e *Engine) Authorize(ctx context.Context, actor *model.User, action Action, resource Resource) error {
	decision, err := e.CanAccess(ctx, actor, action, resource)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !decision.Allowed() {
		return apperrors.Forbidden("")
	}
	return nil
}

// CanReadPatient authorizes collection-level reads of one patient's record
// set, where no single resource instance is in hand yet.
func (e *Engine) CanReadPatient(ctx context.Context, actor *model.User, patientID uuid.UUID) error {
	if actor == nil {
		return apperrors.Forbidden("")
	}
	if actor.ID == patientID {
		return nil
	}
	if !actor.IsDoctor() {
		return apperrors.Forbidden("")
	}

	active, err := e.assignments.IsActive(ctx, actor.ID, patientID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !active {
		return apperrors.Forbidden("you do not have access to this patient")
	}
	return nil
}

// CanCreateClinical gates creation of doctor-authored records (prescriptions,
// lab reports, medical history). The role gate precedes the assignment
// check: the distinction matters for the message, not the outcome.
func (e *Engine) CanCreateClinical(ctx context.Context, actor *model.User, patientID uuid.UUID) error {
	if actor == nil || !actor.IsDoctor() {
		return apperrors.Forbidden("only doctors can create clinical records")
	}

	active, err := e.assignments.IsActive(ctx, actor.ID, patientID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !active {
		return apperrors.Forbidden("you are not assigned to this patient")
	}
	return nil
}
