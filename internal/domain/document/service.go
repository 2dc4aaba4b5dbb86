package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

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

// PatientDirectory resolves a patient under the caller's row-scope. Satisfied
// by the patient repository.
type PatientDirectory interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID, scope permission.Scope) (*patient.Patient, error)
}

// Service mediates document access. Every operation resolves the parent
// patient under the caller's row-scope first, so documents of invisible
// patients read as not found.
type Service struct {
	repo     Repository
	patients PatientDirectory
	files    filestore.Store
	recorder *audit.Recorder
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, files filestore.Store, recorder *audit.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		files:    files,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Service) resolvePatient(ctx context.Context, p auth.Principal, patientID uuid.UUID) error {
	_, err := s.patients.GetByID(ctx, p.ClinicID, patientID, permission.RowScope(p.Role, p.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("patient")
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, 0, err
	}
	docs, total, err := s.repo.ListByPatient(ctx, p.ClinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return docs, total, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, patientID, id uuid.UUID) (*Document, error) {
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, err
	}
	doc, err := s.repo.GetByID(ctx, p.ClinicID, patientID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("document")
		}
		return nil, apperr.Internal(err)
	}
	return doc, nil
}

// UploadInput carries one multipart upload.
type UploadInput struct {
	Category    string
	Title       string
	Description string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

func (in *UploadInput) validate() map[string]string {
	issues := make(map[string]string)

	if !ValidCategory(Category(in.Category)) {
		issues["category"] = "unknown category"
	}
	title := strings.TrimSpace(in.Title)
	if len(title) < 1 || len(title) > 200 {
		issues["title"] = "title must be between 1 and 200 characters"
	}
	if len(in.Description) > 1000 {
		issues["description"] = "description must be at most 1000 characters"
	}
	if !AllowedContentType(in.ContentType) {
		issues["file"] = fmt.Sprintf("content type %q is not allowed", in.ContentType)
	}
	if in.Size <= 0 {
		issues["file"] = "file is empty"
	} else if in.Size > MaxFileSize {
		issues["file"] = "file exceeds the 10 MB limit"
	}

	return issues
}

// Upload validates the file, stores the blob and records the row. Nothing is
// persisted when validation fails.
func (s *Service) Upload(ctx context.Context, p auth.Principal, patientID uuid.UUID, in UploadInput) (*Document, error) {
	if !permission.Can(p.Role, permission.UploadDocument) {
		return nil, apperr.Forbidden("not allowed to upload documents")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, err
	}
	if issues := in.validate(); len(issues) > 0 {
		return nil, apperr.Validation("invalid document upload", issues)
	}

	key := filestore.BuildKey(patientID, in.Category, in.FileName)
	size, err := s.files.Put(ctx, key, in.ContentType, io.LimitReader(in.Content, MaxFileSize+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if size > MaxFileSize {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove oversized upload")
		}
		return nil, apperr.Validation("invalid document upload",
			map[string]string{"file": "file exceeds the 10 MB limit"})
	}

	doc := &Document{
		ClinicID:    p.ClinicID,
		PatientID:   patientID,
		Category:    Category(in.Category),
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description),
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        size,
		StorageKey:  key,
		UploadedBy:  p.UserID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: patientID,
		Action:    audit.ActionUploadDocument,
		Details:   fmt.Sprintf("Document %q uploaded (%s)", doc.Title, doc.Category),
	})
	return doc, nil
}

// MetaInput carries a metadata update; the stored file never changes.
type MetaInput struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Service) UpdateMeta(ctx context.Context, p auth.Principal, patientID, id uuid.UUID, in MetaInput) (*Document, error) {
	if !permission.Can(p.Role, permission.UploadDocument) {
		return nil, apperr.Forbidden("not allowed to edit documents")
	}
	doc, err := s.Get(ctx, p, patientID, id)
	if err != nil {
		return nil, err
	}

	issues := make(map[string]string)
	if !ValidCategory(Category(in.Category)) {
		issues["category"] = "unknown category"
	}
	title := strings.TrimSpace(in.Title)
	if len(title) < 1 || len(title) > 200 {
		issues["title"] = "title must be between 1 and 200 characters"
	}
	if len(in.Description) > 1000 {
		issues["description"] = "description must be at most 1000 characters"
	}
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid document payload", issues)
	}

	doc.Category = Category(in.Category)
	doc.Title = title
	doc.Description = optional(in.Description)

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: patientID,
		Action:    audit.ActionUpdateDocument,
		Details:   fmt.Sprintf("Document %q updated", doc.Title),
	})
	return doc, nil
}

// Delete removes the row first, then the blob best-effort. A dangling blob
// is preferable to a row pointing at nothing.
func (s *Service) Delete(ctx context.Context, p auth.Principal, patientID, id uuid.UUID) error {
	if !permission.Can(p.Role, permission.DeleteDocument) {
		return apperr.Forbidden("not allowed to delete documents")
	}
	doc, err := s.Get(ctx, p, patientID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.ClinicID, patientID, id); err != nil {
		return apperr.Internal(err)
	}
	if err := s.files.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, filestore.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", doc.StorageKey).Msg("failed to remove blob of deleted document")
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: patientID,
		Action:    audit.ActionDeleteDocument,
		Details:   fmt.Sprintf("Document %q deleted", doc.Title),
	})
	return nil
}

// Download returns the document row plus a reader over its content. The
// caller closes the reader.
func (s *Service) Download(ctx context.Context, p auth.Principal, patientID, id uuid.UUID) (*Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, p, patientID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Get(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, nil, apperr.NotFound("document")
		}
		return nil, nil, apperr.Internal(err)
	}
	return doc, rc, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
