package medication

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

// -- Medication --

type medRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRepo(pool *pgxpool.Pool) MedicationRepository {
	return &medRepoPG{pool: pool}
}

const medCols = `id, external_id, status, code_system, code_value, code_display, form_code, created_at, updated_at`

func (r *medRepoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medication (id, external_id, status, code_system, code_value, code_display, form_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		m.ID, m.ExternalID, m.Status, m.CodeSystem, m.CodeValue, m.CodeDisplay, m.FormCode,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *medRepoPG) Update(ctx context.Context, m *Medication) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medication SET external_id=$2, status=$3, code_system=$4, code_value=$5,
			code_display=$6, form_code=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.ExternalID, m.Status, m.CodeSystem, m.CodeValue, m.CodeDisplay, m.FormCode,
	).Scan(&m.UpdatedAt))
}

func (r *medRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMed(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE id = $1`, id))
}

func (r *medRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Medication, error) {
	return scanMed(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE external_id = $1`, externalID))
}

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.ExternalID, &m.Status, &m.CodeSystem, &m.CodeValue, &m.CodeDisplay,
		&m.FormCode, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &m, nil
}

// -- MedicationRequest --

type medReqRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRequestRepo(pool *pgxpool.Pool) MedicationRequestRepository {
	return &medReqRepoPG{pool: pool}
}

const mrCols = `id, external_id, patient_id, encounter_id, medication_id, requester_id, status, intent,
	medication_code, medication_display, authored_on, dosage_text, created_at, updated_at`

func (r *medReqRepoPG) Create(ctx context.Context, mr *MedicationRequest) error {
	mr.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medication_request (id, external_id, patient_id, encounter_id, medication_id,
			requester_id, status, intent, medication_code, medication_display, authored_on, dosage_text)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		mr.ID, mr.ExternalID, mr.PatientID, mr.EncounterID, mr.MedicationID,
		mr.RequesterID, mr.Status, mr.Intent, mr.MedicationCode, mr.MedicationDisplay, mr.AuthoredOn, mr.DosageText,
	).Scan(&mr.CreatedAt, &mr.UpdatedAt)
}

func (r *medReqRepoPG) Update(ctx context.Context, mr *MedicationRequest) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medication_request SET
			external_id=$2, patient_id=$3, encounter_id=$4, medication_id=$5, requester_id=$6,
			status=$7, intent=$8, medication_code=$9, medication_display=$10, authored_on=$11,
			dosage_text=$12, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		mr.ID, mr.ExternalID, mr.PatientID, mr.EncounterID, mr.MedicationID, mr.RequesterID,
		mr.Status, mr.Intent, mr.MedicationCode, mr.MedicationDisplay, mr.AuthoredOn,
		mr.DosageText,
	).Scan(&mr.UpdatedAt))
}

func (r *medReqRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicationRequest, error) {
	return scanMedReq(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+mrCols+` FROM medication_request WHERE id = $1`, id))
}

func (r *medReqRepoPG) GetByExternalID(ctx context.Context, externalID string) (*MedicationRequest, error) {
	return scanMedReq(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+mrCols+` FROM medication_request WHERE external_id = $1`, externalID))
}

func (r *medReqRepoPG) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*MedicationRequest, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+mrCols+` FROM medication_request WHERE encounter_id = $1 ORDER BY external_id`, encounterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MedicationRequest
	for rows.Next() {
		mr, err := scanMedReq(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

func scanMedReq(row pgx.Row) (*MedicationRequest, error) {
	var mr MedicationRequest
	err := row.Scan(&mr.ID, &mr.ExternalID, &mr.PatientID, &mr.EncounterID, &mr.MedicationID,
		&mr.RequesterID, &mr.Status, &mr.Intent, &mr.MedicationCode, &mr.MedicationDisplay,
		&mr.AuthoredOn, &mr.DosageText, &mr.CreatedAt, &mr.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &mr, nil
}
