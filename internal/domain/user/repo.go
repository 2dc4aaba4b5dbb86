package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the only read/write path for user rows. Reads are
// clinic-scoped except EmailExists, which checks the global unique email.
type Repository interface {
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	ListTherapists(ctx context.Context, clinicID uuid.UUID) ([]*User, error)
	IsActiveTherapist(ctx context.Context, clinicID, userID uuid.UUID) (bool, error)
}
