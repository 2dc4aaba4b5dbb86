package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

type mockRepo struct {
	byStatus      map[string]int
	consultations int
	documents     int
	staff         int

	from, to time.Time
}

func (m *mockRepo) PatientCountsByStatus(_ context.Context, _ uuid.UUID) (map[string]int, error) {
	return m.byStatus, nil
}

func (m *mockRepo) ConsultationCount(_ context.Context, _ uuid.UUID, from, to time.Time) (int, error) {
	m.from, m.to = from, to
	return m.consultations, nil
}

func (m *mockRepo) DocumentCount(_ context.Context, _ uuid.UUID) (int, error) {
	return m.documents, nil
}

func (m *mockRepo) ActiveStaffCount(_ context.Context, _ uuid.UUID) (int, error) {
	return m.staff, nil
}

func TestSummary_GatedByRole(t *testing.T) {
	repo := &mockRepo{byStatus: map[string]int{"ACTIVE": 2}}
	svc := NewService(repo, zerolog.Nop())

	for _, role := range []auth.Role{auth.RolePhysiotherapist, auth.RoleReceptionist} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: uuid.New()}
		if _, err := svc.Summary(context.Background(), p, time.Time{}, time.Time{}); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("role %s: expected forbidden, got %v", role, err)
		}
	}

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleManager} {
		p := auth.Principal{UserID: uuid.New(), Role: role, ClinicID: uuid.New()}
		if _, err := svc.Summary(context.Background(), p, time.Time{}, time.Time{}); err != nil {
			t.Errorf("role %s: %v", role, err)
		}
	}
}

func TestSummary_Totals(t *testing.T) {
	repo := &mockRepo{
		byStatus:      map[string]int{"ACTIVE": 12, "DISCHARGED": 3},
		consultations: 40,
		documents:     7,
		staff:         5,
	}
	svc := NewService(repo, zerolog.Nop())
	admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin, ClinicID: uuid.New()}

	sum, err := svc.Summary(context.Background(), admin, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalPatients != 15 {
		t.Errorf("expected 15 patients, got %d", sum.TotalPatients)
	}
	if sum.Consultations != 40 || sum.Documents != 7 || sum.ActiveStaff != 5 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	// Default period is the last 30 days.
	if got := sum.To.Sub(sum.From); got != 30*24*time.Hour {
		t.Errorf("unexpected default period %v", got)
	}
}

func TestSummary_RejectsInvertedPeriod(t *testing.T) {
	svc := NewService(&mockRepo{byStatus: map[string]int{}}, zerolog.Nop())
	admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin, ClinicID: uuid.New()}

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summary(context.Background(), admin, from, to)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
