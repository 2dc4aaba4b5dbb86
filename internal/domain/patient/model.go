// Package patient implements the patient registry: clinic-scoped, row-scoped
// CRUD with CPF uniqueness, therapist assignment and the per-patient audit
// history surface.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// Status is the patient's treatment status.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusEvaluation Status = "EVALUATION"
	StatusDischarged Status = "DISCHARGED"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusEvaluation, StatusDischarged:
		return true
	}
	return false
}

// Sort is a supported list ordering.
type Sort string

const (
	SortNameAsc       Sort = "name_asc"
	SortNameDesc      Sort = "name_desc"
	SortCreatedAsc    Sort = "created_asc"
	SortCreatedDesc   Sort = "created_desc"
	SortLastVisitDesc Sort = "last_visit_desc"
)

// ValidSort reports whether s is a known sort key.
func ValidSort(s Sort) bool {
	switch s {
	case SortNameAsc, SortNameDesc, SortCreatedAsc, SortCreatedDesc, SortLastVisitDesc:
		return true
	}
	return false
}

// Patient is a clinic patient record. CPF is stored as bare digits and is
// unique per clinic.
type Patient struct {
	ID       uuid.UUID `json:"id"`
	ClinicID uuid.UUID `json:"-"`

	FullName    string    `json:"fullName"`
	CPF         string    `json:"cpf"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Age         int       `json:"age"`

	Phone          string  `json:"phone"`
	PhoneSecondary *string `json:"phoneSecondary,omitempty"`
	Email          *string `json:"email,omitempty"`

	ZipCode      *string `json:"zipCode,omitempty"`
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`

	Occupation      *string `json:"occupation,omitempty"`
	Insurance       *string `json:"insurance,omitempty"`
	InsuranceNumber *string `json:"insuranceNumber,omitempty"`
	GeneralNotes    *string `json:"generalNotes,omitempty"`

	// Anamnesis
	ChiefComplaint     *string `json:"chiefComplaint,omitempty"`
	CurrentIllness     *string `json:"currentIllness,omitempty"`
	MedicalHistory     *string `json:"medicalHistory,omitempty"`
	Medications        *string `json:"medications,omitempty"`
	Allergies          *string `json:"allergies,omitempty"`
	Lifestyle          *string `json:"lifestyle,omitempty"`
	PhysicalAssessment *string `json:"physicalAssessment,omitempty"`

	AssignedTherapistID *uuid.UUID `json:"assignedTherapistId,omitempty"`
	Status              Status     `json:"status"`
	LastVisitAt         *time.Time `json:"lastVisitAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AgeAt computes full years between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
