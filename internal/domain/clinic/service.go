package clinic

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/pkg/brdoc"
)

// Service reads and updates the caller's own clinic. There is no cross-tenant
// access; the clinic id always comes from the principal.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, p auth.Principal) (*Clinic, error) {
	c, err := s.repo.GetByID(ctx, p.ClinicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("clinic")
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// SettingsInput carries a clinic settings update.
type SettingsInput struct {
	Name  string `json:"name"`
	CNPJ  string `json:"cnpj"`
	Phone string `json:"phone"`
	Email string `json:"email"`

	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *Service) UpdateSettings(ctx context.Context, p auth.Principal, in SettingsInput) (*Clinic, error) {
	if !permission.Can(p.Role, permission.ManageClinicSettings) {
		return nil, apperr.Forbidden("not allowed to manage clinic settings")
	}

	c, err := s.Get(ctx, p)
	if err != nil {
		return nil, err
	}

	issues := make(map[string]string)
	name := strings.TrimSpace(in.Name)
	if len(name) < 3 || len(name) > 100 {
		issues["name"] = "name must be between 3 and 100 characters"
	}
	if in.Phone != "" && !brdoc.ValidPhone(in.Phone) {
		issues["phone"] = "phone must have 10 or 11 digits"
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		issues["email"] = "invalid email"
	}
	if in.ZipCode != "" && !brdoc.ValidCEP(in.ZipCode) {
		issues["zipCode"] = "invalid CEP"
	}
	if len(issues) > 0 {
		return nil, apperr.Validation("invalid clinic settings", issues)
	}

	c.Name = name
	c.CNPJ = optional(in.CNPJ)
	c.Phone = optional(in.Phone)
	c.Email = optional(in.Email)
	if in.ZipCode != "" {
		cleaned := brdoc.CleanCEP(in.ZipCode)
		c.ZipCode = &cleaned
	} else {
		c.ZipCode = nil
	}
	c.Street = optional(in.Street)
	c.Number = optional(in.Number)
	c.Complement = optional(in.Complement)
	c.Neighborhood = optional(in.Neighborhood)
	c.City = optional(in.City)
	c.State = optional(in.State)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info().
		Str("clinic_id", c.ID.String()).
		Str("updated_by", p.UserID.String()).
		Msg("clinic settings updated")
	return c, nil
}
