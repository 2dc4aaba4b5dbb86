package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/domain/audit"
	"github.com/physiocapture/physiocapture/internal/domain/patient"
	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// PatientDirectory resolves patients under row-scope and bumps their last
// visit. Satisfied by the patient repository.
type PatientDirectory interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID, scope permission.Scope) (*patient.Patient, error)
	TouchLastVisit(ctx context.Context, clinicID, id uuid.UUID) error
}

// TherapistDirectory answers whether a user is an active physiotherapist of
// a clinic. Implemented by the user repository.
type TherapistDirectory interface {
	IsActiveTherapist(ctx context.Context, clinicID, userID uuid.UUID) (bool, error)
}

// Service mediates consultation access. Reading clinical history requires
// the viewAllConsultations permission, or being the therapist the patient is
// assigned to.
type Service struct {
	repo       Repository
	patients   PatientDirectory
	therapists TherapistDirectory
	recorder   *audit.Recorder
	logger     zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, therapists TherapistDirectory, recorder *audit.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		patients:   patients,
		therapists: therapists,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *Service) canRead(role auth.Role) bool {
	return permission.Can(role, permission.ViewAllConsultations) || role == auth.RolePhysiotherapist
}

// resolveTherapist accepts only active physiotherapists of the caller's own
// clinic, so a consultation can never reference staff of another tenant.
func (s *Service) resolveTherapist(ctx context.Context, clinicID uuid.UUID, raw string) (uuid.UUID, error) {
	tid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid therapist id")
	}
	ok, err := s.therapists.IsActiveTherapist(ctx, clinicID, tid)
	if err != nil {
		return uuid.Nil, apperr.Internal(err)
	}
	if !ok {
		return uuid.Nil, apperr.Validationf("therapist must be an active physiotherapist of this clinic")
	}
	return tid, nil
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

func (s *Service) ListByPatient(ctx context.Context, p auth.Principal, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	if !s.canRead(p.Role) {
		return nil, 0, apperr.Forbidden("not allowed to view consultations")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, 0, err
	}
	consultations, total, err := s.repo.ListByPatient(ctx, p.ClinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return consultations, total, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, patientID, id uuid.UUID) (*Consultation, error) {
	if !s.canRead(p.Role) {
		return nil, apperr.Forbidden("not allowed to view consultations")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, p.ClinicID, patientID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("consultation")
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// Input carries a consultation payload. Date accepts RFC 3339 or plain
// YYYY-MM-DD; SOAP fields treat "" as absent.
type Input struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	TherapistID string `json:"therapistId"`

	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
	Exercises  string `json:"exercises"`

	NextVisitAt string `json:"nextVisitAt"`
	Notes       string `json:"notes"`
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (in *Input) validate() (map[string]string, time.Time, *time.Time) {
	issues := make(map[string]string)

	var date time.Time
	if in.Date == "" {
		issues["date"] = "date is required"
	} else {
		var err error
		date, err = parseDate(in.Date)
		if err != nil {
			issues["date"] = "date must be RFC 3339 or YYYY-MM-DD"
		}
	}
	if !ValidType(Type(in.Type)) {
		issues["type"] = "unknown consultation type"
	}

	var nextVisit *time.Time
	if in.NextVisitAt != "" {
		t, err := parseDate(in.NextVisitAt)
		if err != nil {
			issues["nextVisitAt"] = "next visit must be RFC 3339 or YYYY-MM-DD"
		} else {
			nextVisit = &t
		}
	}

	return issues, date, nextVisit
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (in *Input) apply(c *Consultation, date time.Time, nextVisit *time.Time) {
	c.Date = date
	c.Type = Type(in.Type)
	c.Subjective = optional(in.Subjective)
	c.Objective = optional(in.Objective)
	c.Assessment = optional(in.Assessment)
	c.Plan = optional(in.Plan)
	c.Exercises = optional(in.Exercises)
	c.NextVisitAt = nextVisit
	c.Notes = optional(in.Notes)
}

// Create records a session and bumps the patient's last visit. The therapist
// defaults to the caller when none is named.
func (s *Service) Create(ctx context.Context, p auth.Principal, patientID uuid.UUID, in Input) (*Consultation, error) {
	if !permission.Can(p.Role, permission.CreateConsultation) {
		return nil, apperr.Forbidden("not allowed to create consultations")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, err
	}

	issues, date, nextVisit := in.validate()
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid consultation payload", issues)
	}

	therapistID := p.UserID
	if in.TherapistID != "" {
		tid, err := s.resolveTherapist(ctx, p.ClinicID, in.TherapistID)
		if err != nil {
			return nil, err
		}
		therapistID = tid
	}

	c := &Consultation{
		ClinicID:    p.ClinicID,
		PatientID:   patientID,
		TherapistID: therapistID,
	}
	in.apply(c, date, nextVisit)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.patients.TouchLastVisit(ctx, p.ClinicID, patientID); err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", patientID.String()).
			Msg("failed to bump last visit")
	}

	entityType := "consultation"
	entityID := c.ID
	s.recorder.Record(ctx, p, audit.Entry{
		PatientID:  patientID,
		Action:     audit.ActionCreateConsultation,
		Details:    fmt.Sprintf("Consultation recorded (%s)", c.Type),
		EntityType: &entityType,
		EntityID:   &entityID,
	})
	return c, nil
}

func (s *Service) Update(ctx context.Context, p auth.Principal, patientID, id uuid.UUID, in Input) (*Consultation, error) {
	if !permission.Can(p.Role, permission.CreateConsultation) {
		return nil, apperr.Forbidden("not allowed to edit consultations")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, p.ClinicID, patientID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("consultation")
		}
		return nil, apperr.Internal(err)
	}

	issues, date, nextVisit := in.validate()
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid consultation payload", issues)
	}
	if in.TherapistID != "" {
		tid, err := s.resolveTherapist(ctx, p.ClinicID, in.TherapistID)
		if err != nil {
			return nil, err
		}
		c.TherapistID = tid
	}
	in.apply(c, date, nextVisit)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: patientID,
		Action:    audit.ActionUpdateConsultation,
		Details:   fmt.Sprintf("Consultation updated (%s)", c.Type),
	})
	return c, nil
}

func (s *Service) Delete(ctx context.Context, p auth.Principal, patientID, id uuid.UUID) error {
	if !permission.Can(p.Role, permission.CreateConsultation) {
		return apperr.Forbidden("not allowed to delete consultations")
	}
	if err := s.resolvePatient(ctx, p, patientID); err != nil {
		return err
	}

	c, err := s.repo.GetByID(ctx, p.ClinicID, patientID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("consultation")
		}
		return apperr.Internal(err)
	}

	if err := s.repo.Delete(ctx, p.ClinicID, patientID, id); err != nil {
		return apperr.Internal(err)
	}

	s.recorder.Record(ctx, p, audit.Entry{
		PatientID: patientID,
		Action:    audit.ActionDeleteConsultation,
		Details:   fmt.Sprintf("Consultation of %s deleted", c.Date.Format("2006-01-02")),
	})
	return nil
}
