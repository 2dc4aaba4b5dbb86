package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/physiocapture/physiocapture/internal/domain/permission"
)

// Filter is the typed query filter for patient listings. It is built by the
// service from the principal's scope plus validated request parameters;
// handlers never assemble it ad hoc.
type Filter struct {
	ClinicID uuid.UUID
	Scope    permission.Scope
	Search   string
	Status   Status
	Sort     Sort
	Limit    int
	Offset   int
}

// Repository is the only read/write path for patient rows. Every method is
// clinic-scoped; methods taking a Scope additionally apply the caller's
// row-scope so out-of-scope rows behave exactly like missing ones.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Patient, int, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID, scope permission.Scope) (*Patient, error)
	CPFExists(ctx context.Context, clinicID uuid.UUID, cpf string) (bool, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	TouchLastVisit(ctx context.Context, clinicID, id uuid.UUID) error
}
