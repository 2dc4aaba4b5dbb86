package clinic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

type mockRepo struct {
	clinics map[uuid.UUID]*Clinic
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, c *Clinic) error {
	c.ID = uuid.New()
	cp := *c
	m.clinics[c.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, c *Clinic) error {
	cp := *c
	m.clinics[c.ID] = &cp
	return nil
}

func newFixture() (*Service, uuid.UUID) {
	clinicID := uuid.New()
	repo := &mockRepo{clinics: map[uuid.UUID]*Clinic{
		clinicID: {ID: clinicID, Name: "Clínica Boa Forma", IsActive: true},
	}}
	return NewService(repo, zerolog.Nop()), clinicID
}

func TestGet_OpenToAllRoles(t *testing.T) {
	svc, clinicID := newFixture()

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RolePhysiotherapist, auth.RoleReceptionist} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: clinicID}
		c, err := svc.Get(context.Background(), p)
		if err != nil {
			t.Fatalf("role %s: %v", role, err)
		}
		if c.Name != "Clínica Boa Forma" {
			t.Errorf("unexpected clinic %q", c.Name)
		}
	}
}

func TestUpdateSettings_AdminOnly(t *testing.T) {
	svc, clinicID := newFixture()
	in := SettingsInput{Name: "Clínica Nova Forma"}

	for _, role := range []auth.Role{auth.RoleManager, auth.RolePhysiotherapist, auth.RoleReceptionist} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: clinicID}
		if _, err := svc.UpdateSettings(context.Background(), p, in); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("role %s: expected forbidden, got %v", role, err)
		}
	}

	admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin, ClinicID: clinicID}
	c, err := svc.UpdateSettings(context.Background(), admin, in)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if c.Name != "Clínica Nova Forma" {
		t.Errorf("name not updated: %q", c.Name)
	}
}

func TestUpdateSettings_ValidatesContact(t *testing.T) {
	svc, clinicID := newFixture()
	admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin, ClinicID: clinicID}

	in := SettingsInput{Name: "Clínica Boa Forma", Phone: "123", ZipCode: "00000000"}
	_, err := svc.UpdateSettings(context.Background(), admin, in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
