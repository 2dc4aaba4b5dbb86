package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/domain/audit"
	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/internal/platform/filestore"
	"github.com/physiocapture/physiocapture/pkg/brdoc"
	"github.com/physiocapture/physiocapture/pkg/pagination"
)

// TherapistDirectory answers whether a user is an active physiotherapist of
// a clinic. Implemented by the user repository.
type TherapistDirectory interface {
	IsActiveTherapist(ctx context.Context, clinicID, userID uuid.UUID) (bool, error)
}

// DocumentFiles lists the storage keys of a patient's documents so a purge
// can clean up blobs after the rows cascade away. Implemented by the
// document repository.
type DocumentFiles interface {
	StorageKeys(ctx context.Context, clinicID, patientID uuid.UUID) ([]string, error)
}

// Service mediates all patient data access. Every method takes the caller's
// principal and enforces the permission policy plus row-scope before any
// repository call.
type Service struct {
	repo       Repository
	therapists TherapistDirectory
	docFiles   DocumentFiles
	files      filestore.Store
	auditRepo  audit.Repository
	recorder   *audit.Recorder
	logger     zerolog.Logger
}

func NewService(
	repo Repository,
	therapists TherapistDirectory,
	docFiles DocumentFiles,
	files filestore.Store,
	auditRepo audit.Repository,
	recorder *audit.Recorder,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		therapists: therapists,
		docFiles:   docFiles,
		files:      files,
		auditRepo:  auditRepo,
		recorder:   recorder,
		logger:     logger,
	}
}

// ListParams are the validated inputs for List.
type ListParams struct {
	Search string
	Status Status
	Sort   Sort
	Page   pagination.Params
}

// List returns the clinic's patients visible to the principal, filtered and
// sorted per params.
func (s *Service) List(ctx context.Context, p auth.Principal, params ListParams) ([]*Patient, int, error) {
	if params.Status != "" && !ValidStatus(params.Status) {
		return nil, 0, apperr.Validationf("unknown status %q", params.Status)
	}
	if params.Sort != "" && !ValidSort(params.Sort) {
		return nil, 0, apperr.Validationf("unknown sort %q", params.Sort)
	}

	f := Filter{
		ClinicID: p.ClinicID,
		Scope:    permission.RowScope(p.Role, p.UserID),
		Search:   strings.TrimSpace(params.Search),
		Status:   params.Status,
		Sort:     params.Sort,
		Limit:    params.Page.Limit,
		Offset:   params.Page.Offset(),
	}
	patients, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return patients, total, nil
}

// Get returns one patient under the caller's scope. Out-of-scope and
// cross-clinic ids are indistinguishable from missing ones.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*Patient, error) {
	return s.getScoped(ctx, p, id)
}

func (s *Service) getScoped(ctx context.Context, p auth.Principal, id uuid.UUID) (*Patient, error) {
	pat, err := s.repo.GetByID(ctx, p.ClinicID, id, permission.RowScope(p.Role, p.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("patient")
		}
		return nil, apperr.Internal(err)
	}
	return pat, nil
}

// Input carries a patient payload for create and update. Optional fields
// treat "" as absent.
type Input struct {
	FullName    string `json:"fullName"`
	CPF         string `json:"cpf"`
	DateOfBirth string `json:"dateOfBirth"`

	Phone          string `json:"phone"`
	PhoneSecondary string `json:"phoneSecondary"`
	Email          string `json:"email"`

	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`

	Occupation      string `json:"occupation"`
	Insurance       string `json:"insurance"`
	InsuranceNumber string `json:"insuranceNumber"`
	GeneralNotes    string `json:"generalNotes"`

	ChiefComplaint     string `json:"chiefComplaint"`
	CurrentIllness     string `json:"currentIllness"`
	MedicalHistory     string `json:"medicalHistory"`
	Medications        string `json:"medications"`
	Allergies          string `json:"allergies"`
	Lifestyle          string `json:"lifestyle"`
	PhysicalAssessment string `json:"physicalAssessment"`

	AssignedTherapistID string `json:"assignedTherapistId"`
	Status              string `json:"status"`
}

func (in *Input) validate() (map[string]string, time.Time) {
	issues := make(map[string]string)

	name := strings.TrimSpace(in.FullName)
	if len(name) < 3 || len(name) > 100 {
		issues["fullName"] = "name must be between 3 and 100 characters"
	}
	if !brdoc.ValidCPF(in.CPF) {
		issues["cpf"] = "invalid CPF"
	}

	var dob time.Time
	if in.DateOfBirth == "" {
		issues["dateOfBirth"] = "date of birth is required"
	} else {
		var err error
		dob, err = time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			issues["dateOfBirth"] = "date of birth must be YYYY-MM-DD"
		} else if dob.After(time.Now()) {
			issues["dateOfBirth"] = "date of birth cannot be in the future"
		}
	}

	if !brdoc.ValidPhone(in.Phone) {
		issues["phone"] = "phone must have 10 or 11 digits"
	}
	if in.PhoneSecondary != "" && !brdoc.ValidPhone(in.PhoneSecondary) {
		issues["phoneSecondary"] = "phone must have 10 or 11 digits"
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		issues["email"] = "invalid email"
	}
	if in.ZipCode != "" && !brdoc.ValidCEP(in.ZipCode) {
		issues["zipCode"] = "invalid CEP"
	}
	if in.State != "" && len(in.State) != 2 {
		issues["state"] = "state must be a 2-letter code"
	}
	if len(in.GeneralNotes) > 1000 {
		issues["generalNotes"] = "notes must be at most 1000 characters"
	}
	if in.Status != "" && !ValidStatus(Status(in.Status)) {
		issues["status"] = "unknown status"
	}

	return issues, dob
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (in *Input) apply(pat *Patient, dob time.Time) {
	pat.FullName = strings.TrimSpace(in.FullName)
	pat.CPF = brdoc.CleanCPF(in.CPF)
	pat.DateOfBirth = dob
	pat.Age = AgeAt(dob, time.Now())
	pat.Phone = brdoc.CleanPhone(in.Phone)
	if in.PhoneSecondary != "" {
		cleaned := brdoc.CleanPhone(in.PhoneSecondary)
		pat.PhoneSecondary = &cleaned
	} else {
		pat.PhoneSecondary = nil
	}
	pat.Email = optional(in.Email)
	if in.ZipCode != "" {
		cleaned := brdoc.CleanCEP(in.ZipCode)
		pat.ZipCode = &cleaned
	} else {
		pat.ZipCode = nil
	}
	pat.Street = optional(in.Street)
	pat.Number = optional(in.Number)
	pat.Complement = optional(in.Complement)
	pat.Neighborhood = optional(in.Neighborhood)
	pat.City = optional(in.City)
	pat.State = optional(in.State)
	pat.Occupation = optional(in.Occupation)
	pat.Insurance = optional(in.Insurance)
	pat.InsuranceNumber = optional(in.InsuranceNumber)
	pat.GeneralNotes = optional(in.GeneralNotes)
	pat.ChiefComplaint = optional(in.ChiefComplaint)
	pat.CurrentIllness = optional(in.CurrentIllness)
	pat.MedicalHistory = optional(in.MedicalHistory)
	pat.Medications = optional(in.Medications)
	pat.Allergies = optional(in.Allergies)
	pat.Lifestyle = optional(in.Lifestyle)
	pat.PhysicalAssessment = optional(in.PhysicalAssessment)
	if in.Status != "" {
		pat.Status = Status(in.Status)
	}
}

// Create registers a new patient. A PHYSIOTHERAPIST creating a patient
// without naming a therapist is auto-assigned to it.
func (s *Service) Create(ctx context.Context, p auth.Principal, in Input) (*Patient, error) {
	if !permission.Can(p.Role, permission.CreatePatient) {
		return nil, apperr.Forbidden("not allowed to create patients")
	}

	issues, dob := in.validate()
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid patient payload", issues)
	}

	cpf := brdoc.CleanCPF(in.CPF)
	exists, err := s.repo.CPFExists(ctx, p.ClinicID, cpf)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict("cpf", "a patient with this CPF already exists")
	}

	pat := &Patient{ClinicID: p.ClinicID, Status: StatusActive}
	in.apply(pat, dob)

	if in.AssignedTherapistID != "" {
		tid, err := s.resolveTherapist(ctx, p.ClinicID, in.AssignedTherapistID)
		if err != nil {
			return nil, err
		}
		pat.AssignedTherapistID = tid
	} else if p.Role == auth.RolePhysiotherapist {
		id := p.UserID
		pat.AssignedTherapistID = &id
	}

	if err := s.repo.Create(ctx, pat); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("cpf", "a patient with this CPF already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: pat.ID,
		Action:    audit.ActionCreatePatient,
		Details:   fmt.Sprintf("Patient %s created", pat.FullName),
	})
	return pat, nil
}

// Update mutates a patient the principal can see. The row is re-fetched
// under scope first so a guessed id outside the scope reads as not found.
func (s *Service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in Input) (*Patient, error) {
	if !permission.Can(p.Role, permission.EditPatient) {
		return nil, apperr.Forbidden("not allowed to edit patients")
	}

	pat, err := s.getScoped(ctx, p, id)
	if err != nil {
		return nil, err
	}

	issues, dob := in.validate()
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid patient payload", issues)
	}

	newCPF := brdoc.CleanCPF(in.CPF)
	if newCPF != pat.CPF {
		exists, err := s.repo.CPFExists(ctx, p.ClinicID, newCPF)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if exists {
			return nil, apperr.Conflict("cpf", "a patient with this CPF already exists")
		}
	}

	in.apply(pat, dob)

	if err := s.repo.Update(ctx, pat); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("cpf", "a patient with this CPF already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: pat.ID,
		Action:    audit.ActionUpdatePatient,
		Details:   fmt.Sprintf("Patient %s updated", pat.FullName),
	})
	return pat, nil
}

// Purge hard-deletes a patient with all consultations, documents and audit
// rows, then removes stored files best-effort. Distinct from user
// deactivation on purpose.
func (s *Service) Purge(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if !permission.Can(p.Role, permission.DeletePatient) {
		return apperr.Forbidden("not allowed to delete patients")
	}

	pat, err := s.getScoped(ctx, p, id)
	if err != nil {
		return err
	}

	keys, err := s.docFiles.StorageKeys(ctx, p.ClinicID, pat.ID)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.repo.Delete(ctx, p.ClinicID, pat.ID); err != nil {
		return apperr.Internal(err)
	}

	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove file of purged patient")
		}
	}

	s.logger.Info().
		Str("patient_id", pat.ID.String()).
		Str("user_id", p.UserID.String()).
		Msg("patient purged")
	return nil
}

// Reassign changes (or clears) the patient's assigned therapist.
func (s *Service) Reassign(ctx context.Context, p auth.Principal, id uuid.UUID, newTherapistID string) (*Patient, error) {
	if !permission.Can(p.Role, permission.AssignPatient) {
		return nil, apperr.Forbidden("not allowed to assign patients")
	}

	pat, err := s.getScoped(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if newTherapistID == "" {
		pat.AssignedTherapistID = nil
	} else {
		tid, err := s.resolveTherapist(ctx, p.ClinicID, newTherapistID)
		if err != nil {
			return nil, err
		}
		pat.AssignedTherapistID = tid
	}

	if err := s.repo.Update(ctx, pat); err != nil {
		return nil, apperr.Internal(err)
	}

	details := "Patient unassigned"
	if pat.AssignedTherapistID != nil {
		details = fmt.Sprintf("Patient assigned to therapist %s", pat.AssignedTherapistID)
	}
	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: pat.ID,
		Action:    audit.ActionAssignPatient,
		Details:   details,
	})
	return pat, nil
}

// History returns the patient's audit trail newest-first. Row-scope applies:
// a therapist can only read the history of their own patients.
func (s *Service) History(ctx context.Context, p auth.Principal, id uuid.UUID, page pagination.Params) ([]*audit.Entry, int, error) {
	if _, err := s.getScoped(ctx, p, id); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.auditRepo.ListByPatient(ctx, p.ClinicID, id, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return entries, total, nil
}

func (s *Service) resolveTherapist(ctx context.Context, clinicID uuid.UUID, raw string) (*uuid.UUID, error) {
	tid, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validationf("invalid therapist id")
	}
	ok, err := s.therapists.IsActiveTherapist(ctx, clinicID, tid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Validationf("therapist must be an active physiotherapist of this clinic")
	}
	return &tid, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
