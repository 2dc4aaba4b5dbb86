package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/pkg/pagination"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if u.ClinicID == clinicID {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.ClinicID != clinicID {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, clinicID, id uuid.UUID, active bool) error {
	m.users[id].IsActive = active
	return nil
}

func (m *mockRepo) ListTherapists(_ context.Context, clinicID uuid.UUID) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if u.ClinicID == clinicID && u.Role == auth.RolePhysiotherapist && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockRepo) IsActiveTherapist(_ context.Context, clinicID, userID uuid.UUID) (bool, error) {
	u, ok := m.users[userID]
	return ok && u.ClinicID == clinicID && u.Role == auth.RolePhysiotherapist && u.IsActive, nil
}

func adminPrincipal(clinicID uuid.UUID) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin, ClinicID: clinicID}
}

func validInput() Input {
	return Input{
		Name:     "Joana Santos",
		Email:    "joana@clinic.example",
		Role:     "PHYSIOTHERAPIST",
		Password: "s3cret-pass",
	}
}

func TestCreate_HashesPassword(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	admin := adminPrincipal(uuid.New())

	u, err := svc.Create(context.Background(), admin, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.PasswordHash == "s3cret-pass" || u.PasswordHash == "" {
		t.Fatalf("password not hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if !u.IsActive {
		t.Errorf("new user should be active")
	}
}

func TestCreate_OnlyAdmin(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	clinicID := uuid.New()

	for _, role := range []auth.Role{auth.RoleManager, auth.RolePhysiotherapist, auth.RoleReceptionist} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: clinicID}
		if _, err := svc.Create(context.Background(), p, validInput()); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("role %s: expected forbidden, got %v", role, err)
		}
	}
}

func TestCreate_EmailConflictIsGlobal(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.Create(context.Background(), adminPrincipal(uuid.New()), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Same email from another clinic still conflicts.
	_, err := svc.Create(context.Background(), adminPrincipal(uuid.New()), validInput())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdate_SelfRejected(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	admin := adminPrincipal(uuid.New())

	_, err := svc.Update(context.Background(), admin, admin.UserID, validInput())
	if !apperr.IsKind(err, apperr.KindSelfModification) {
		t.Fatalf("expected self-modification denial, got %v", err)
	}
}

func TestDeactivate_SelfRejected(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	admin := adminPrincipal(uuid.New())

	err := svc.Deactivate(context.Background(), admin, admin.UserID)
	if !apperr.IsKind(err, apperr.KindSelfModification) {
		t.Fatalf("expected self-modification denial, got %v", err)
	}
}

func TestDeactivate_SoftDisables(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	admin := adminPrincipal(uuid.New())

	u, err := svc.Create(context.Background(), admin, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Deactivate(context.Background(), admin, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Row still exists, just inactive.
	got, err := svc.Get(context.Background(), admin, u.ID)
	if err != nil {
		t.Fatalf("get after deactivate: %v", err)
	}
	if got.IsActive {
		t.Errorf("expected user inactive")
	}

	// An inactive therapist drops out of the directory.
	therapists, err := svc.ListTherapists(context.Background(), admin)
	if err != nil {
		t.Fatalf("list therapists: %v", err)
	}
	if len(therapists) != 0 {
		t.Errorf("expected no active therapists, got %d", len(therapists))
	}
}

func TestListTherapists_OpenToAllRoles(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	admin := adminPrincipal(uuid.New())

	if _, err := svc.Create(context.Background(), admin, validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RolePhysiotherapist, auth.RoleReceptionist} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: admin.ClinicID}
		therapists, err := svc.ListTherapists(context.Background(), p)
		if err != nil {
			t.Fatalf("role %s: %v", role, err)
		}
		if len(therapists) != 1 {
			t.Errorf("role %s: expected 1 therapist, got %d", role, len(therapists))
		}
	}
}

func TestList_TenantIsolation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	adminA := adminPrincipal(uuid.New())
	adminB := adminPrincipal(uuid.New())

	if _, err := svc.Create(context.Background(), adminA, validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	users, total, err := svc.List(context.Background(), adminB, pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(users) != 0 {
		t.Errorf("expected empty listing for other clinic, got %d", total)
	}
}
