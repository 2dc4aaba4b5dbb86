package consultation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the only read/write path for consultation rows. All methods
// are clinic- and patient-scoped.
type Repository interface {
	ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	GetByID(ctx context.Context, clinicID, patientID, id uuid.UUID) (*Consultation, error)
	Create(ctx context.Context, c *Consultation) error
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, clinicID, patientID, id uuid.UUID) error
}
