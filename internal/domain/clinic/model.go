// Package clinic implements tenant settings: one row per clinic, readable by
// any staff member and editable by admins only.
package clinic

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is a tenant. Every other row in the system hangs off one of these.
type Clinic struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	CNPJ  *string `json:"cnpj,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`

	ZipCode      *string `json:"zipCode,omitempty"`
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`

	IsActive bool `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
