package model

import "github.com/google/uuid"

// Owner and attribution accessors consumed by the authorization engine.
// Every clinical record names exactly one owning patient; the attributed
// doctor is the record's direct doctor reference and may be absent.

func (a *Appointment) OwnerID() uuid.UUID                  { return a.PatientID }
func (a *Appointment) AttributedDoctor() (uuid.UUID, bool) { return a.DoctorID, true }

func (p *Prescription) OwnerID() uuid.UUID                  { return p.PatientID }
func (p *Prescription) AttributedDoctor() (uuid.UUID, bool) { return p.DoctorID, true }

func (r *LabReport) OwnerID() uuid.UUID { return r.PatientID }
func (r *LabReport) AttributedDoctor() (uuid.UUID, bool) {
	if r.DoctorID == nil {
		return uuid.Nil, false
	}
	return *r.DoctorID, true
}

func (h *MedicalHistory) OwnerID() uuid.UUID { return h.PatientID }
func (h *MedicalHistory) AttributedDoctor() (uuid.UUID, bool) {
	if h.DoctorID == nil {
		return uuid.Nil, false
	}
	return *h.DoctorID, true
}

func (p *PatientProfile) OwnerID() uuid.UUID                  { return p.UserID }
func (p *PatientProfile) AttributedDoctor() (uuid.UUID, bool) { return uuid.Nil, false }
