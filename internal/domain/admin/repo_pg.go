package admin

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

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Organization --

type orgRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) OrganizationRepository {
	return &orgRepoPG{pool: pool}
}

const orgCols = `id, external_id, name, active, type_code, phone, email, city, country, created_at, updated_at`

func (r *orgRepoPG) Create(ctx context.Context, o *Organization) error {
	o.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO organization (id, external_id, name, active, type_code, phone, email, city, country)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		o.ID, o.ExternalID, o.Name, o.Active, o.TypeCode, o.Phone, o.Email, o.City, o.Country,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *orgRepoPG) Update(ctx context.Context, o *Organization) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE organization SET
			external_id=$2, name=$3, active=$4, type_code=$5, phone=$6, email=$7,
			city=$8, country=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID, o.ExternalID, o.Name, o.Active, o.TypeCode, o.Phone, o.Email, o.City, o.Country,
	).Scan(&o.UpdatedAt))
}

func (r *orgRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *orgRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Organization, error) {
	return scanOrg(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE external_id = $1`, externalID))
}

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.ExternalID, &o.Name, &o.Active, &o.TypeCode,
		&o.Phone, &o.Email, &o.City, &o.Country, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &o, nil
}

// -- Sync runs --

type runRepoPG struct {
	pool *pgxpool.Pool
}

func NewSyncRunRepo(pool *pgxpool.Pool) SyncRunRepository {
	return &runRepoPG{pool: pool}
}

func (r *runRepoPG) Create(ctx context.Context, run *SyncRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO sync_run (id, source, scope, status, started_at, finished_at, result)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.Source, run.Scope, run.Status, run.StartedAt, run.FinishedAt, run.Result,
	)
	return err
}

func (r *runRepoPG) ListBySource(ctx context.Context, source string, limit, offset int) ([]*SyncRun, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM sync_run WHERE source = $1`, source).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, source, scope, status, started_at, finished_at, result
		FROM sync_run WHERE source = $1
		ORDER BY started_at DESC LIMIT $2 OFFSET $3`, source, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(&run.ID, &run.Source, &run.Scope, &run.Status, &run.StartedAt, &run.FinishedAt, &run.Result); err != nil {
			return nil, 0, err
		}
		runs = append(runs, &run)
	}
	return runs, total, rows.Err()
}
