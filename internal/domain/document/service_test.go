package document

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/domain/audit"
	"github.com/physiocapture/physiocapture/internal/domain/patient"
	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/internal/platform/filestore"
)

type mockRepo struct {
	docs map[uuid.UUID]*Document
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[uuid.UUID]*Document)}
}

func (m *mockRepo) ListByPatient(_ context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var out []*Document
	for _, d := range m.docs {
		if d.ClinicID == clinicID && d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, patientID, id uuid.UUID) (*Document, error) {
	d, ok := m.docs[id]
	if !ok || d.ClinicID != clinicID || d.PatientID != patientID {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, d *Document) error {
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, clinicID, patientID, id uuid.UUID) error {
	delete(m.docs, id)
	return nil
}

func (m *mockRepo) StorageKeys(_ context.Context, clinicID, patientID uuid.UUID) ([]string, error) {
	var keys []string
	for _, d := range m.docs {
		if d.ClinicID == clinicID && d.PatientID == patientID {
			keys = append(keys, d.StorageKey)
		}
	}
	return keys, nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetByID(_ context.Context, clinicID, id uuid.UUID, scope permission.Scope) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.ClinicID != clinicID || !scope.Allows(p.AssignedTherapistID) {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type auditStore struct {
	entries []*audit.Entry
}

func (a *auditStore) Insert(_ context.Context, e *audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *auditStore) ListByPatient(_ context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	files     *filestore.Memory
	audits    *auditStore
	clinicID  uuid.UUID
	patientID uuid.UUID
}

func newFixture() *fixture {
	clinicID := uuid.New()
	patientID := uuid.New()
	repo := newMockRepo()
	files := filestore.NewMemory()
	audits := &auditStore{}
	patients := &mockPatients{patients: map[uuid.UUID]*patient.Patient{
		patientID: {ID: patientID, ClinicID: clinicID},
	}}
	svc := NewService(repo, patients, files, audit.NewRecorder(audits, zerolog.Nop()), zerolog.Nop())
	return &fixture{
		svc:       svc,
		repo:      repo,
		files:     files,
		audits:    audits,
		clinicID:  clinicID,
		patientID: patientID,
	}
}

func (f *fixture) principal(role auth.Role) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: role, ClinicID: f.clinicID}
}

func pdfUpload(content string) UploadInput {
	return UploadInput{
		Category:    "EXAME_IMAGEM",
		Title:       "Raio-X Joelho",
		FileName:    "raio-x.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func TestUpload_StoresBlobAndRow(t *testing.T) {
	f := newFixture()
	p := f.principal(auth.RoleReceptionist)

	doc, err := f.svc.Upload(context.Background(), p, f.patientID, pdfUpload("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.StorageKey == "" || !strings.HasPrefix(doc.StorageKey, f.patientID.String()+"/EXAME_IMAGEM/") {
		t.Errorf("unexpected storage key %q", doc.StorageKey)
	}
	if !strings.HasSuffix(doc.StorageKey, ".pdf") {
		t.Errorf("extension not preserved in key %q", doc.StorageKey)
	}
	if f.files.Len() != 1 {
		t.Errorf("expected 1 stored blob, got %d", f.files.Len())
	}
	if len(f.audits.entries) != 1 || f.audits.entries[0].Action != audit.ActionUploadDocument {
		t.Errorf("expected one UPLOAD_DOCUMENT audit entry")
	}
}

func TestUpload_RejectsDisallowedType(t *testing.T) {
	f := newFixture()
	p := f.principal(auth.RoleAdmin)

	in := pdfUpload("MZ")
	in.ContentType = "application/x-msdownload"
	in.FileName = "setup.exe"

	_, err := f.svc.Upload(context.Background(), p, f.patientID, in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.files.Len() != 0 {
		t.Errorf("nothing should be persisted on rejection")
	}
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	f := newFixture()
	p := f.principal(auth.RoleAdmin)

	in := pdfUpload("")
	in.Size = MaxFileSize + 1
	in.Content = bytes.NewReader(make([]byte, 16))

	_, err := f.svc.Upload(context.Background(), p, f.patientID, in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.files.Len() != 0 {
		t.Errorf("nothing should be persisted on rejection")
	}
}

func TestUpload_OutOfScopePatientReadsAsNotFound(t *testing.T) {
	f := newFixture()
	physio := f.principal(auth.RolePhysiotherapist)

	_, err := f.svc.Upload(context.Background(), physio, f.patientID, pdfUpload("%PDF-1.4"))
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unassigned therapist, got %v", err)
	}
}

func TestDelete_RequiresPermission(t *testing.T) {
	f := newFixture()
	admin := f.principal(auth.RoleAdmin)

	doc, err := f.svc.Upload(context.Background(), admin, f.patientID, pdfUpload("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	err = f.svc.Delete(context.Background(), f.principal(auth.RoleReceptionist), f.patientID, doc.ID)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := f.svc.Delete(context.Background(), admin, f.patientID, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.files.Len() != 0 {
		t.Errorf("expected blob removed with row")
	}
}

func TestDownload_StreamsContent(t *testing.T) {
	f := newFixture()
	admin := f.principal(auth.RoleAdmin)

	doc, err := f.svc.Upload(context.Background(), admin, f.patientID, pdfUpload("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, rc, err := f.svc.Download(context.Background(), admin, f.patientID, doc.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "%PDF-1.4 body" {
		t.Errorf("unexpected content %q", content)
	}
	if got.ContentType != "application/pdf" {
		t.Errorf("unexpected content type %q", got.ContentType)
	}
}
