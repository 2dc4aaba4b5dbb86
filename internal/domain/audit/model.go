// Package audit provides the append-only per-patient audit trail. Entries
// are written best-effort after successful mutations and never updated or
// deleted by application code.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail.
const (
	ActionCreatePatient      = "CREATE_PATIENT"
	ActionUpdatePatient      = "UPDATE_PATIENT"
	ActionDeletePatient      = "DELETE_PATIENT"
	ActionAssignPatient      = "ASSIGN_PATIENT"
	ActionUploadDocument     = "UPLOAD_DOCUMENT"
	ActionUpdateDocument     = "UPDATE_DOCUMENT"
	ActionDeleteDocument     = "DELETE_DOCUMENT"
	ActionCreateConsultation = "CREATE_CONSULTATION"
	ActionUpdateConsultation = "UPDATE_CONSULTATION"
	ActionDeleteConsultation = "DELETE_CONSULTATION"
)

// Entry is one immutable audit record tied to a patient.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	ClinicID   uuid.UUID  `json:"-"`
	PatientID  uuid.UUID  `json:"patientId"`
	UserID     uuid.UUID  `json:"userId"`
	UserName   string     `json:"userName"`
	UserRole   string     `json:"userRole"`
	Action     string     `json:"action"`
	Details    string     `json:"details"`
	EntityType *string    `json:"entityType,omitempty"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
