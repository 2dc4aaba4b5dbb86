package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/physiocapture/physiocapture/internal/domain/permission"
	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/pkg/brdoc"
	"github.com/physiocapture/physiocapture/pkg/pagination"
)

const minPasswordLen = 8

// Service mediates staff administration. Everything except ListTherapists is
// gated by the manageUsers permission, and a principal can never edit or
// deactivate itself.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, p auth.Principal, page pagination.Params) ([]*User, int, error) {
	if !permission.Can(p.Role, permission.ManageUsers) {
		return nil, 0, apperr.Forbidden("not allowed to manage users")
	}
	users, total, err := s.repo.List(ctx, p.ClinicID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*User, error) {
	if !permission.Can(p.Role, permission.ManageUsers) {
		return nil, apperr.Forbidden("not allowed to manage users")
	}
	u, err := s.repo.GetByID(ctx, p.ClinicID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Input carries a user payload for create and update. Password is only
// applied when non-empty on update.
type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
	CRM      string `json:"crm"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
}

func (in *Input) validate(passwordRequired bool) map[string]string {
	issues := make(map[string]string)

	name := strings.TrimSpace(in.Name)
	if len(name) < 3 || len(name) > 100 {
		issues["name"] = "name must be between 3 and 100 characters"
	}
	if !strings.Contains(in.Email, "@") {
		issues["email"] = "invalid email"
	}
	if !auth.ValidRole(auth.Role(in.Role)) {
		issues["role"] = "unknown role"
	}
	if passwordRequired && in.Password == "" {
		issues["password"] = "password is required"
	}
	if in.Password != "" && len(in.Password) < minPasswordLen {
		issues["password"] = "password must be at least 8 characters"
	}
	if in.CPF != "" && !brdoc.ValidCPF(in.CPF) {
		issues["cpf"] = "invalid CPF"
	}
	if in.Phone != "" && !brdoc.ValidPhone(in.Phone) {
		issues["phone"] = "phone must have 10 or 11 digits"
	}

	return issues
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in Input) (*User, error) {
	if !permission.Can(p.Role, permission.ManageUsers) {
		return nil, apperr.Forbidden("not allowed to manage users")
	}
	if issues := in.validate(true); len(issues) > 0 {
		return nil, apperr.Validation("invalid user payload", issues)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict("email", "a user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &User{
		ClinicID:     p.ClinicID,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Role:         auth.Role(in.Role),
		CRM:          optional(in.CRM),
		Phone:        optional(in.Phone),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if in.CPF != "" {
		cleaned := brdoc.CleanCPF(in.CPF)
		u.CPF = &cleaned
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email", "a user with this email already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("role", string(u.Role)).
		Str("created_by", p.UserID.String()).
		Msg("user created")
	return u, nil
}

func (s *Service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in Input) (*User, error) {
	if !permission.Can(p.Role, permission.ManageUsers) {
		return nil, apperr.Forbidden("not allowed to manage users")
	}
	if id == p.UserID {
		return nil, apperr.SelfModification("use your profile settings to change your own account")
	}

	u, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if issues := in.validate(false); len(issues) > 0 {
		return nil, apperr.Validation("invalid user payload", issues)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != u.Email {
		exists, err := s.repo.EmailExists(ctx, email)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if exists {
			return nil, apperr.Conflict("email", "a user with this email already exists")
		}
	}

	u.Name = strings.TrimSpace(in.Name)
	u.Email = email
	u.Role = auth.Role(in.Role)
	u.CRM = optional(in.CRM)
	u.Phone = optional(in.Phone)
	if in.CPF != "" {
		cleaned := brdoc.CleanCPF(in.CPF)
		u.CPF = &cleaned
	} else {
		u.CPF = nil
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email", "a user with this email already exists")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Deactivate soft-disables the account. The row and its references stay;
// contrast with the hard patient purge.
func (s *Service) Deactivate(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if !permission.Can(p.Role, permission.ManageUsers) {
		return apperr.Forbidden("not allowed to manage users")
	}
	if id == p.UserID {
		return apperr.SelfModification("you cannot deactivate your own account")
	}

	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, p.ClinicID, id, false); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("deactivated_by", p.UserID.String()).
		Msg("user deactivated")
	return nil
}

// ListTherapists is open to every authenticated role; assignment dropdowns
// need it.
func (s *Service) ListTherapists(ctx context.Context, p auth.Principal) ([]*User, error) {
	users, err := s.repo.ListTherapists(ctx, p.ClinicID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
