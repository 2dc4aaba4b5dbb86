package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// Recorder writes audit entries best-effort. A failed write is logged and
// swallowed; the originating mutation is the source of truth and must never
// be rolled back by trail bookkeeping.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
}

func NewRecorder(repo Repository, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends an entry for the principal. Call only after the mutation
// has succeeded.
func (r *Recorder) Record(ctx context.Context, p auth.Principal, e Entry) {
	e.ClinicID = p.ClinicID
	e.UserID = p.UserID
	e.UserName = p.Name
	e.UserRole = string(p.Role)

	if err := r.repo.Insert(ctx, &e); err != nil {
		r.logger.Error().Err(err).
			Str("action", e.Action).
			Str("patient_id", e.PatientID.String()).
			Msg("audit write failed")
	}
}
