package identity

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

// -- Patient --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, external_id, organization_id, active, mrn, first_name, last_name, birth_date,
	gender, phone, email, address_line, city, state, postal_code, country, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			id, external_id, organization_id, active, mrn, first_name, last_name, birth_date,
			gender, phone, email, address_line, city, state, postal_code, country
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		p.ID, p.ExternalID, p.OrganizationID, p.Active, p.MRN, p.FirstName, p.LastName, p.BirthDate,
		p.Gender, p.Phone, p.Email, p.AddressLine, p.City, p.State, p.PostalCode, p.Country,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	return db.NotFound(r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			external_id=$2, organization_id=$3, active=$4, mrn=$5, first_name=$6, last_name=$7,
			birth_date=$8, gender=$9, phone=$10, email=$11, address_line=$12, city=$13,
			state=$14, postal_code=$15, country=$16, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.ExternalID, p.OrganizationID, p.Active, p.MRN, p.FirstName, p.LastName,
		p.BirthDate, p.Gender, p.Phone, p.Email, p.AddressLine, p.City,
		p.State, p.PostalCode, p.Country,
	).Scan(&p.UpdatedAt))
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE external_id = $1`, externalID))
}

func (r *patientRepoPG) ListExternalIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT external_id FROM patient ORDER BY external_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.ExternalID, &p.OrganizationID, &p.Active, &p.MRN, &p.FirstName, &p.LastName, &p.BirthDate,
		&p.Gender, &p.Phone, &p.Email, &p.AddressLine, &p.City, &p.State, &p.PostalCode, &p.Country,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &p, nil
}

// -- Practitioner --

type practitionerRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practitionerRepoPG{pool: pool}
}

func (r *practitionerRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const practCols = `id, external_id, active, first_name, last_name, gender, phone, email, npi, qualification, created_at, updated_at`

func (r *practitionerRepoPG) Create(ctx context.Context, p *Practitioner) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO practitioner (id, external_id, active, first_name, last_name, gender, phone, email, npi, qualification)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.ExternalID, p.Active, p.FirstName, p.LastName, p.Gender, p.Phone, p.Email, p.NPI, p.Qualification,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *practitionerRepoPG) Update(ctx context.Context, p *Practitioner) error {
	return db.NotFound(r.conn(ctx).QueryRow(ctx, `
		UPDATE practitioner SET
			external_id=$2, active=$3, first_name=$4, last_name=$5, gender=$6,
			phone=$7, email=$8, npi=$9, qualification=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.ExternalID, p.Active, p.FirstName, p.LastName, p.Gender,
		p.Phone, p.Email, p.NPI, p.Qualification,
	).Scan(&p.UpdatedAt))
}

func (r *practitionerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx, `SELECT `+practCols+` FROM practitioner WHERE id = $1`, id))
}

func (r *practitionerRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx, `SELECT `+practCols+` FROM practitioner WHERE external_id = $1`, externalID))
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.ExternalID, &p.Active, &p.FirstName, &p.LastName, &p.Gender,
		&p.Phone, &p.Email, &p.NPI, &p.Qualification, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &p, nil
}
