package consultation

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

const consultationCols = `id, clinic_id, patient_id, therapist_id, date, type,
	subjective, objective, assessment, plan, exercises,
	next_visit_at, notes, created_at, updated_at`

func (r *repoPG) ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations WHERE clinic_id = $1 AND patient_id = $2`,
		clinicID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+` FROM consultations
		 WHERE clinic_id = $1 AND patient_id = $2
		 ORDER BY date DESC LIMIT $3 OFFSET $4`,
		clinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectConsultations(rows, total)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, patientID, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations
		 WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		clinicID, patientID, id))
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultations (
			id, clinic_id, patient_id, therapist_id, date, type,
			subjective, objective, assessment, plan, exercises,
			next_visit_at, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.ClinicID, c.PatientID, c.TherapistID, c.Date, c.Type,
		c.Subjective, c.Objective, c.Assessment, c.Plan, c.Exercises,
		c.NextVisitAt, c.Notes,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations SET
			date=$4, type=$5, subjective=$6, objective=$7, assessment=$8,
			plan=$9, exercises=$10, next_visit_at=$11, notes=$12, updated_at=NOW()
		WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		c.ClinicID, c.PatientID, c.ID,
		c.Date, c.Type, c.Subjective, c.Objective, c.Assessment,
		c.Plan, c.Exercises, c.NextVisitAt, c.Notes,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, clinicID, patientID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM consultations WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		clinicID, patientID, id)
	return err
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.ClinicID, &c.PatientID, &c.TherapistID, &c.Date, &c.Type,
		&c.Subjective, &c.Objective, &c.Assessment, &c.Plan, &c.Exercises,
		&c.NextVisitAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConsultations(rows pgx.Rows, total int) ([]*Consultation, int, error) {
	var consultations []*Consultation
	for rows.Next() {
		var c Consultation
		err := rows.Scan(
			&c.ID, &c.ClinicID, &c.PatientID, &c.TherapistID, &c.Date, &c.Type,
			&c.Subjective, &c.Objective, &c.Assessment, &c.Plan, &c.Exercises,
			&c.NextVisitAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		consultations = append(consultations, &c)
	}
	return consultations, total, rows.Err()
}
