package clinic

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const clinicCols = `id, name, cnpj, phone, email,
	zip_code, street, number, complement, neighborhood, city, state,
	is_active, created_at, updated_at`

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	var c Clinic
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.CNPJ, &c.Phone, &c.Email,
		&c.ZipCode, &c.Street, &c.Number, &c.Complement, &c.Neighborhood, &c.City, &c.State,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinics (
			id, name, cnpj, phone, email,
			zip_code, street, number, complement, neighborhood, city, state,
			is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Email,
		c.ZipCode, c.Street, c.Number, c.Complement, c.Neighborhood, c.City, c.State,
		c.IsActive,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, c *Clinic) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinics SET
			name=$2, cnpj=$3, phone=$4, email=$5,
			zip_code=$6, street=$7, number=$8, complement=$9,
			neighborhood=$10, city=$11, state=$12, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Email,
		c.ZipCode, c.Street, c.Number, c.Complement,
		c.Neighborhood, c.City, c.State,
	)
	return err
}
