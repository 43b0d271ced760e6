package diagnostics

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, external_id, patient_id, encounter_id, performer_id, status, category_code,
	code_value, code_display, effective_datetime, issued, conclusion, created_at, updated_at`

func (r *reportRepoPG) Create(ctx context.Context, d *DiagnosticReport) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO diagnostic_report (id, external_id, patient_id, encounter_id, performer_id, status,
			category_code, code_value, code_display, effective_datetime, issued, conclusion)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		d.ID, d.ExternalID, d.PatientID, d.EncounterID, d.PerformerID, d.Status,
		d.CategoryCode, d.CodeValue, d.CodeDisplay, d.EffectiveDatetime, d.Issued, d.Conclusion,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *reportRepoPG) Update(ctx context.Context, d *DiagnosticReport) error {
	return db.NotFound(r.conn(ctx).QueryRow(ctx, `
		UPDATE diagnostic_report SET
			external_id=$2, patient_id=$3, encounter_id=$4, performer_id=$5, status=$6,
			category_code=$7, code_value=$8, code_display=$9, effective_datetime=$10,
			issued=$11, conclusion=$12, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.ExternalID, d.PatientID, d.EncounterID, d.PerformerID, d.Status,
		d.CategoryCode, d.CodeValue, d.CodeDisplay, d.EffectiveDatetime,
		d.Issued, d.Conclusion,
	).Scan(&d.UpdatedAt))
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DiagnosticReport, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM diagnostic_report WHERE id = $1`, id))
}

func (r *reportRepoPG) GetByExternalID(ctx context.Context, externalID string) (*DiagnosticReport, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM diagnostic_report WHERE external_id = $1`, externalID))
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*DiagnosticReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM diagnostic_report WHERE patient_id = $1 ORDER BY external_id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DiagnosticReport
	for rows.Next() {
		d, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *reportRepoPG) scanOne(row pgx.Row) (*DiagnosticReport, error) {
	var d DiagnosticReport
	err := row.Scan(&d.ID, &d.ExternalID, &d.PatientID, &d.EncounterID, &d.PerformerID, &d.Status,
		&d.CategoryCode, &d.CodeValue, &d.CodeDisplay, &d.EffectiveDatetime, &d.Issued, &d.Conclusion,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &d, nil
}
