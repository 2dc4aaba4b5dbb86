package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists and reads audit entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
