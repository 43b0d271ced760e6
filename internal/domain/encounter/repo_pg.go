package encounter

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

type encounterRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &encounterRepoPG{pool: pool}
}

func (r *encounterRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const encCols = `id, external_id, patient_id, organization_id, status, class_code, type_code, type_display,
	period_start, period_end, reason_text, created_at, updated_at`

func (r *encounterRepoPG) Create(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO encounter (id, external_id, patient_id, organization_id, status, class_code,
			type_code, type_display, period_start, period_end, reason_text)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		e.ID, e.ExternalID, e.PatientID, e.OrganizationID, e.Status, e.ClassCode,
		e.TypeCode, e.TypeDisplay, e.PeriodStart, e.PeriodEnd, e.ReasonText,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *encounterRepoPG) Update(ctx context.Context, e *Encounter) error {
	return db.NotFound(r.conn(ctx).QueryRow(ctx, `
		UPDATE encounter SET
			external_id=$2, patient_id=$3, organization_id=$4, status=$5, class_code=$6,
			type_code=$7, type_display=$8, period_start=$9, period_end=$10, reason_text=$11,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.ExternalID, e.PatientID, e.OrganizationID, e.Status, e.ClassCode,
		e.TypeCode, e.TypeDisplay, e.PeriodStart, e.PeriodEnd, e.ReasonText,
	).Scan(&e.UpdatedAt))
}

func (r *encounterRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+encCols+` FROM encounter WHERE id = $1`, id))
}

func (r *encounterRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Encounter, error) {
	return r.scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+encCols+` FROM encounter WHERE external_id = $1`, externalID))
}

func (r *encounterRepoPG) ListExternalIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT external_id FROM encounter ORDER BY external_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *encounterRepoPG) ReplaceParticipants(ctx context.Context, encounterID uuid.UUID, practitionerIDs []uuid.UUID) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM encounter_participant WHERE encounter_id = $1`, encounterID); err != nil {
		return err
	}
	for _, pid := range practitionerIDs {
		_, err := c.Exec(ctx, `
			INSERT INTO encounter_participant (encounter_id, practitioner_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, encounterID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *encounterRepoPG) GetParticipants(ctx context.Context, encounterID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT practitioner_id FROM encounter_participant WHERE encounter_id = $1 ORDER BY practitioner_id`, encounterID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *encounterRepoPG) scanOne(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.ExternalID, &e.PatientID, &e.OrganizationID, &e.Status, &e.ClassCode,
		&e.TypeCode, &e.TypeDisplay, &e.PeriodStart, &e.PeriodEnd, &e.ReasonText,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &e, nil
}
