// Package consultation implements the clinical history: SOAP-structured
// consultation records per patient, written by therapists and bumping the
// patient's last visit.
package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a consultation.
type Type string

const (
	TypeInitialEvaluation Type = "INITIAL_EVALUATION"
	TypeReassessment      Type = "REASSESSMENT"
	TypeTreatmentSession  Type = "TREATMENT_SESSION"
	TypeDischarge         Type = "DISCHARGE"
	TypeReturn            Type = "RETURN"
)

// ValidType reports whether t is a known consultation type.
func ValidType(t Type) bool {
	switch t {
	case TypeInitialEvaluation, TypeReassessment, TypeTreatmentSession,
		TypeDischarge, TypeReturn:
		return true
	}
	return false
}

// Consultation is one clinical session record. The SOAP fields are free text
// and all optional.
type Consultation struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"-"`
	PatientID uuid.UUID `json:"patientId"`

	TherapistID uuid.UUID `json:"therapistId"`
	Date        time.Time `json:"date"`
	Type        Type      `json:"type"`

	Subjective *string `json:"subjective,omitempty"`
	Objective  *string `json:"objective,omitempty"`
	Assessment *string `json:"assessment,omitempty"`
	Plan       *string `json:"plan,omitempty"`
	Exercises  *string `json:"exercises,omitempty"`

	NextVisitAt *time.Time `json:"nextVisitAt,omitempty"`
	Notes       *string    `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
