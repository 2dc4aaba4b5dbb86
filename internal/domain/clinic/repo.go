package clinic

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the read/write path for clinic rows. Create exists for the
// provisioning CLI; the HTTP surface never creates clinics.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Create(ctx context.Context, c *Clinic) error
	Update(ctx context.Context, c *Clinic) error
}
