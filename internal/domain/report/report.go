// Package report produces the clinic summary: patient counts by status,
// consultation volume over a period, stored documents and active staff.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// Summary is the clinic dashboard payload.
type Summary struct {
	TotalPatients    int            `json:"totalPatients"`
	PatientsByStatus map[string]int `json:"patientsByStatus"`
	Consultations    int            `json:"consultations"`
	Documents        int            `json:"documents"`
	ActiveStaff      int            `json:"activeStaff"`

	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Repository runs the aggregation queries behind the summary.
type Repository interface {
	PatientCountsByStatus(ctx context.Context, clinicID uuid.UUID) (map[string]int, error)
	ConsultationCount(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (int, error)
	DocumentCount(ctx context.Context, clinicID uuid.UUID) (int, error)
	ActiveStaffCount(ctx context.Context, clinicID uuid.UUID) (int, error)
}

const defaultPeriod = 30 * 24 * time.Hour

// Service assembles the summary, gated by the viewReports permission.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Summary aggregates the clinic numbers. A zero from/to pair defaults to the
// last 30 days.
func (s *Service) Summary(ctx context.Context, p auth.Principal, from, to time.Time) (*Summary, error) {
	if !permission.Can(p.Role, permission.ViewReports) {
		return nil, apperr.Forbidden("not allowed to view reports")
	}

	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-defaultPeriod)
	}
	if from.After(to) {
		return nil, apperr.Validationf("period start must precede period end")
	}

	byStatus, err := s.repo.PatientCountsByStatus(ctx, p.ClinicID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}

	consultations, err := s.repo.ConsultationCount(ctx, p.ClinicID, from, to)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	documents, err := s.repo.DocumentCount(ctx, p.ClinicID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	staff, err := s.repo.ActiveStaffCount(ctx, p.ClinicID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Summary{
		TotalPatients:    total,
		PatientsByStatus: byStatus,
		Consultations:    consultations,
		Documents:        documents,
		ActiveStaff:      staff,
		From:             from,
		To:               to,
	}, nil
}
