// Package user implements staff administration: role-gated CRUD with soft
// deactivation and the therapist directory used for patient assignment.
package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// User is a staff member of a clinic. Email is unique across all clinics.
type User struct {
	ID       uuid.UUID `json:"id"`
	ClinicID uuid.UUID `json:"-"`

	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`

	CRM   *string `json:"crm,omitempty"`
	CPF   *string `json:"cpf,omitempty"`
	Phone *string `json:"phone,omitempty"`

	PasswordHash string `json:"-"`

	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
