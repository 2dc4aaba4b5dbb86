package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

type mockRepo struct {
	entries []*Entry
	err     error
}

func (m *mockRepo) Insert(_ context.Context, e *Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var matched []*Entry
	for _, e := range m.entries {
		if e.ClinicID == clinicID && e.PatientID == patientID {
			matched = append(matched, e)
		}
	}
	return matched, len(matched), nil
}

func TestRecordStampsPrincipal(t *testing.T) {
	repo := &mockRepo{}
	rec := NewRecorder(repo, zerolog.Nop())

	p := auth.Principal{
		UserID:   uuid.New(),
		Name:     "Carla Dias",
		Role:     auth.RoleManager,
		ClinicID: uuid.New(),
	}
	rec.Record(context.Background(), p, Entry{
		PatientID: uuid.New(),
		Action:    ActionCreatePatient,
		Details:   "Paciente criado",
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != p.UserID || e.UserName != "Carla Dias" || e.UserRole != "MANAGER" || e.ClinicID != p.ClinicID {
		t.Errorf("principal not stamped: %+v", e)
	}
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	repo := &mockRepo{err: errors.New("disk full")}
	rec := NewRecorder(repo, zerolog.Nop())

	// Must not panic or propagate.
	rec.Record(context.Background(), auth.Principal{}, Entry{Action: ActionDeletePatient})
}
