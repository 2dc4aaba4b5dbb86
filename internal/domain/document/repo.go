package document

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the only read/write path for document rows. All methods are
// clinic- and patient-scoped; the caller resolves the patient under row-scope
// before touching documents.
type Repository interface {
	ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Document, int, error)
	GetByID(ctx context.Context, clinicID, patientID, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, d *Document) error
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, clinicID, patientID, id uuid.UUID) error
	StorageKeys(ctx context.Context, clinicID, patientID uuid.UUID) ([]string, error)
}
