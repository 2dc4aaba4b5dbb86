package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userCols = `id, clinic_id, name, email, role, crm, cpf, phone,
	password_hash, is_active, last_login_at, created_at, updated_at`

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM users WHERE clinic_id = $1
		 ORDER BY name ASC LIMIT $2 OFFSET $3`, clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectUsers(rows, total)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

// EmailExists checks across every clinic; the email column is globally unique.
func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (
			id, clinic_id, name, email, role, crm, cpf, phone,
			password_hash, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.ClinicID, u.Name, u.Email, u.Role, u.CRM, u.CPF, u.Phone,
		u.PasswordHash, u.IsActive,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET
			name=$3, email=$4, role=$5, crm=$6, cpf=$7, phone=$8,
			password_hash=$9, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		u.ClinicID, u.ID,
		u.Name, u.Email, u.Role, u.CRM, u.CPF, u.Phone, u.PasswordHash,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET is_active = $3, updated_at = NOW()
		 WHERE clinic_id = $1 AND id = $2`, clinicID, id, active)
	return err
}

func (r *repoPG) ListTherapists(ctx context.Context, clinicID uuid.UUID) ([]*User, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE clinic_id = $1 AND role = $2 AND is_active
		 ORDER BY name ASC`, clinicID, auth.RolePhysiotherapist)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users, _, err := collectUsers(rows, 0)
	return users, err
}

func (r *repoPG) IsActiveTherapist(ctx context.Context, clinicID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE clinic_id = $1 AND id = $2 AND role = $3 AND is_active
		)`, clinicID, userID, auth.RolePhysiotherapist).Scan(&exists)
	return exists, err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.ClinicID, &u.Name, &u.Email, &u.Role, &u.CRM, &u.CPF, &u.Phone,
		&u.PasswordHash, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows, total int) ([]*User, int, error) {
	var users []*User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.ClinicID, &u.Name, &u.Email, &u.Role, &u.CRM, &u.CPF, &u.Phone,
			&u.PasswordHash, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	return users, total, rows.Err()
}
