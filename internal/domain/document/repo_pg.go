package document

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

const documentCols = `id, clinic_id, patient_id, category, title, description,
	file_name, content_type, size, storage_key, uploaded_by, created_at, updated_at`

func (r *repoPG) ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE clinic_id = $1 AND patient_id = $2`,
		clinicID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+documentCols+` FROM documents
		 WHERE clinic_id = $1 AND patient_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		clinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDocuments(rows, total)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, patientID, id uuid.UUID) (*Document, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents
		 WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		clinicID, patientID, id))
}

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO documents (
			id, clinic_id, patient_id, category, title, description,
			file_name, content_type, size, storage_key, uploaded_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.ClinicID, d.PatientID, d.Category, d.Title, d.Description,
		d.FileName, d.ContentType, d.Size, d.StorageKey, d.UploadedBy,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, d *Document) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE documents SET
			category=$4, title=$5, description=$6, updated_at=NOW()
		WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		d.ClinicID, d.PatientID, d.ID, d.Category, d.Title, d.Description,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, clinicID, patientID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM documents WHERE clinic_id = $1 AND patient_id = $2 AND id = $3`,
		clinicID, patientID, id)
	return err
}

// StorageKeys lists the blob keys of a patient's documents. The patient
// purge collects these before the rows cascade away.
func (r *repoPG) StorageKeys(ctx context.Context, clinicID, patientID uuid.UUID) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT storage_key FROM documents WHERE clinic_id = $1 AND patient_id = $2`,
		clinicID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.ClinicID, &d.PatientID, &d.Category, &d.Title, &d.Description,
		&d.FileName, &d.ContentType, &d.Size, &d.StorageKey, &d.UploadedBy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows, total int) ([]*Document, int, error) {
	var docs []*Document
	for rows.Next() {
		var d Document
		err := rows.Scan(
			&d.ID, &d.ClinicID, &d.PatientID, &d.Category, &d.Title, &d.Description,
			&d.FileName, &d.ContentType, &d.Size, &d.StorageKey, &d.UploadedBy,
			&d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, &d)
	}
	return docs, total, rows.Err()
}
