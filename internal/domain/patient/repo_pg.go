package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physiocapture/physiocapture/internal/domain/permission"
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

const patientCols = `id, clinic_id, full_name, cpf, date_of_birth, age,
	phone, phone_secondary, email,
	zip_code, street, number, complement, neighborhood, city, state,
	occupation, insurance, insurance_number, general_notes,
	chief_complaint, current_illness, medical_history, medications,
	allergies, lifestyle, physical_assessment,
	assigned_therapist_id, status, last_visit_at, created_at, updated_at`

func sortClause(s Sort) string {
	switch s {
	case SortNameAsc:
		return "full_name ASC"
	case SortNameDesc:
		return "full_name DESC"
	case SortCreatedAsc:
		return "created_at ASC"
	case SortLastVisitDesc:
		return "last_visit_at DESC NULLS LAST"
	default:
		return "created_at DESC"
	}
}

// buildWhere renders the filter into a WHERE clause. The clinic filter is
// unconditional; row-scope and caller filters stack on top.
func buildWhere(f Filter) (string, []interface{}) {
	where := "clinic_id = $1"
	args := []interface{}{f.ClinicID}

	if f.Scope.TherapistID != nil {
		args = append(args, *f.Scope.TherapistID)
		where += fmt.Sprintf(" AND assigned_therapist_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (full_name ILIKE $%d OR cpf LIKE $%d OR phone LIKE $%d)", n, n, n)
	}

	return where, args
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Patient, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		patientCols, where, sortClause(f.Sort), len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID, scope permission.Scope) (*Patient, error) {
	query := `SELECT ` + patientCols + ` FROM patients WHERE clinic_id = $1 AND id = $2`
	args := []interface{}{clinicID, id}
	if scope.TherapistID != nil {
		query += ` AND assigned_therapist_id = $3`
		args = append(args, *scope.TherapistID)
	}
	return scanPatient(r.conn(ctx).QueryRow(ctx, query, args...))
}

func (r *repoPG) CPFExists(ctx context.Context, clinicID uuid.UUID, cpf string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE clinic_id = $1 AND cpf = $2)`,
		clinicID, cpf).Scan(&exists)
	return exists, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (
			id, clinic_id, full_name, cpf, date_of_birth, age,
			phone, phone_secondary, email,
			zip_code, street, number, complement, neighborhood, city, state,
			occupation, insurance, insurance_number, general_notes,
			chief_complaint, current_illness, medical_history, medications,
			allergies, lifestyle, physical_assessment,
			assigned_therapist_id, status
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29
		)`,
		p.ID, p.ClinicID, p.FullName, p.CPF, p.DateOfBirth, p.Age,
		p.Phone, p.PhoneSecondary, p.Email,
		p.ZipCode, p.Street, p.Number, p.Complement, p.Neighborhood, p.City, p.State,
		p.Occupation, p.Insurance, p.InsuranceNumber, p.GeneralNotes,
		p.ChiefComplaint, p.CurrentIllness, p.MedicalHistory, p.Medications,
		p.Allergies, p.Lifestyle, p.PhysicalAssessment,
		p.AssignedTherapistID, p.Status,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			full_name=$3, cpf=$4, date_of_birth=$5, age=$6,
			phone=$7, phone_secondary=$8, email=$9,
			zip_code=$10, street=$11, number=$12, complement=$13,
			neighborhood=$14, city=$15, state=$16,
			occupation=$17, insurance=$18, insurance_number=$19, general_notes=$20,
			chief_complaint=$21, current_illness=$22, medical_history=$23,
			medications=$24, allergies=$25, lifestyle=$26, physical_assessment=$27,
			assigned_therapist_id=$28, status=$29, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		p.ClinicID, p.ID,
		p.FullName, p.CPF, p.DateOfBirth, p.Age,
		p.Phone, p.PhoneSecondary, p.Email,
		p.ZipCode, p.Street, p.Number, p.Complement,
		p.Neighborhood, p.City, p.State,
		p.Occupation, p.Insurance, p.InsuranceNumber, p.GeneralNotes,
		p.ChiefComplaint, p.CurrentIllness, p.MedicalHistory,
		p.Medications, p.Allergies, p.Lifestyle, p.PhysicalAssessment,
		p.AssignedTherapistID, p.Status,
	)
	return err
}

// Delete removes the patient row; consultations, documents and audit rows
// go with it via ON DELETE CASCADE.
func (r *repoPG) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patients WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	return err
}

func (r *repoPG) TouchLastVisit(ctx context.Context, clinicID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET last_visit_at = NOW(), updated_at = NOW()
		 WHERE clinic_id = $1 AND id = $2`, clinicID, id)
	return err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.ClinicID, &p.FullName, &p.CPF, &p.DateOfBirth, &p.Age,
		&p.Phone, &p.PhoneSecondary, &p.Email,
		&p.ZipCode, &p.Street, &p.Number, &p.Complement, &p.Neighborhood, &p.City, &p.State,
		&p.Occupation, &p.Insurance, &p.InsuranceNumber, &p.GeneralNotes,
		&p.ChiefComplaint, &p.CurrentIllness, &p.MedicalHistory, &p.Medications,
		&p.Allergies, &p.Lifestyle, &p.PhysicalAssessment,
		&p.AssignedTherapistID, &p.Status, &p.LastVisitAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var patients []*Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(
			&p.ID, &p.ClinicID, &p.FullName, &p.CPF, &p.DateOfBirth, &p.Age,
			&p.Phone, &p.PhoneSecondary, &p.Email,
			&p.ZipCode, &p.Street, &p.Number, &p.Complement, &p.Neighborhood, &p.City, &p.State,
			&p.Occupation, &p.Insurance, &p.InsuranceNumber, &p.GeneralNotes,
			&p.ChiefComplaint, &p.CurrentIllness, &p.MedicalHistory, &p.Medications,
			&p.Allergies, &p.Lifestyle, &p.PhysicalAssessment,
			&p.AssignedTherapistID, &p.Status, &p.LastVisitAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}
