package clinical

import (
	"context"
	"fmt"

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
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// setBackRefs queues one UPDATE per ref. The statement takes the external id
// as $1 and the owner id as $2.
func setBackRefs(ctx context.Context, q querier, stmt string, refs []BackRef) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	b := &pgx.Batch{}
	for _, ref := range refs {
		b.Queue(stmt, ref.ExternalID, ref.OwnerID)
	}

	br := q.SendBatch(ctx, b)
	var missing []string
	for _, ref := range refs {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("back-reference %s: %w", ref.ExternalID, err)
		}
		if tag.RowsAffected() == 0 {
			missing = append(missing, ref.ExternalID)
		}
	}
	return missing, br.Close()
}

// -- Condition --

type conditionRepoPG struct {
	pool *pgxpool.Pool
}

func NewConditionRepo(pool *pgxpool.Pool) ConditionRepository {
	return &conditionRepoPG{pool: pool}
}

const condCols = `id, external_id, patient_id, encounter_id, recorder_id, procedure_id, clinical_status,
	verification_status, category_code, code_system, code_value, code_display, onset_datetime,
	abatement_datetime, recorded_date, note, created_at, updated_at`

func (r *conditionRepoPG) Create(ctx context.Context, c *Condition) error {
	c.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO condition (id, external_id, patient_id, encounter_id, recorder_id, procedure_id,
			clinical_status, verification_status, category_code, code_system, code_value, code_display,
			onset_datetime, abatement_datetime, recorded_date, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		c.ID, c.ExternalID, c.PatientID, c.EncounterID, c.RecorderID, c.ProcedureID,
		c.ClinicalStatus, c.VerificationStatus, c.CategoryCode, c.CodeSystem, c.CodeValue, c.CodeDisplay,
		c.OnsetDatetime, c.AbatementDatetime, c.RecordedDate, c.Note,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Update leaves procedure_id alone; it belongs to the cross-link.
func (r *conditionRepoPG) Update(ctx context.Context, c *Condition) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE condition SET
			external_id=$2, patient_id=$3, encounter_id=$4, recorder_id=$5,
			clinical_status=$6, verification_status=$7, category_code=$8, code_system=$9,
			code_value=$10, code_display=$11, onset_datetime=$12, abatement_datetime=$13,
			recorded_date=$14, note=$15, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.ExternalID, c.PatientID, c.EncounterID, c.RecorderID,
		c.ClinicalStatus, c.VerificationStatus, c.CategoryCode, c.CodeSystem,
		c.CodeValue, c.CodeDisplay, c.OnsetDatetime, c.AbatementDatetime,
		c.RecordedDate, c.Note,
	).Scan(&c.UpdatedAt))
}

func (r *conditionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Condition, error) {
	return scanCondition(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+condCols+` FROM condition WHERE id = $1`, id))
}

func (r *conditionRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Condition, error) {
	return scanCondition(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+condCols+` FROM condition WHERE external_id = $1`, externalID))
}

func (r *conditionRepoPG) ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]*Condition, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+condCols+` FROM condition WHERE procedure_id = $1 ORDER BY external_id`, procedureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Condition
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *conditionRepoPG) SetProcedures(ctx context.Context, refs []BackRef) ([]string, error) {
	return setBackRefs(ctx, conn(ctx, r.pool),
		`UPDATE condition SET procedure_id = $2, updated_at = NOW() WHERE external_id = $1`, refs)
}

func scanCondition(row pgx.Row) (*Condition, error) {
	var c Condition
	err := row.Scan(&c.ID, &c.ExternalID, &c.PatientID, &c.EncounterID, &c.RecorderID, &c.ProcedureID,
		&c.ClinicalStatus, &c.VerificationStatus, &c.CategoryCode, &c.CodeSystem, &c.CodeValue,
		&c.CodeDisplay, &c.OnsetDatetime, &c.AbatementDatetime, &c.RecordedDate, &c.Note,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &c, nil
}

// -- Observation --

type observationRepoPG struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) ObservationRepository {
	return &observationRepoPG{pool: pool}
}

const obsCols = `id, external_id, patient_id, encounter_id, diagnostic_report_id, status, category_code,
	code_system, code_value, code_display, value_quantity, value_unit, value_string,
	effective_datetime, interpretation, created_at, updated_at`

func (r *observationRepoPG) Create(ctx context.Context, o *Observation) error {
	o.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO observation (id, external_id, patient_id, encounter_id, diagnostic_report_id, status,
			category_code, code_system, code_value, code_display, value_quantity, value_unit,
			value_string, effective_datetime, interpretation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		o.ID, o.ExternalID, o.PatientID, o.EncounterID, o.DiagnosticReportID, o.Status,
		o.CategoryCode, o.CodeSystem, o.CodeValue, o.CodeDisplay, o.ValueQuantity, o.ValueUnit,
		o.ValueString, o.EffectiveDatetime, o.Interpretation,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// Update leaves diagnostic_report_id alone; it belongs to the cross-link.
func (r *observationRepoPG) Update(ctx context.Context, o *Observation) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE observation SET
			external_id=$2, patient_id=$3, encounter_id=$4, status=$5, category_code=$6,
			code_system=$7, code_value=$8, code_display=$9, value_quantity=$10, value_unit=$11,
			value_string=$12, effective_datetime=$13, interpretation=$14, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID, o.ExternalID, o.PatientID, o.EncounterID, o.Status, o.CategoryCode,
		o.CodeSystem, o.CodeValue, o.CodeDisplay, o.ValueQuantity, o.ValueUnit,
		o.ValueString, o.EffectiveDatetime, o.Interpretation,
	).Scan(&o.UpdatedAt))
}

func (r *observationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Observation, error) {
	return scanObservation(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+obsCols+` FROM observation WHERE id = $1`, id))
}

func (r *observationRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Observation, error) {
	return scanObservation(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+obsCols+` FROM observation WHERE external_id = $1`, externalID))
}

func (r *observationRepoPG) ListByDiagnosticReport(ctx context.Context, reportID uuid.UUID) ([]*Observation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+obsCols+` FROM observation WHERE diagnostic_report_id = $1 ORDER BY external_id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *observationRepoPG) SetDiagnosticReports(ctx context.Context, refs []BackRef) ([]string, error) {
	return setBackRefs(ctx, conn(ctx, r.pool),
		`UPDATE observation SET diagnostic_report_id = $2, updated_at = NOW() WHERE external_id = $1`, refs)
}

func scanObservation(row pgx.Row) (*Observation, error) {
	var o Observation
	err := row.Scan(&o.ID, &o.ExternalID, &o.PatientID, &o.EncounterID, &o.DiagnosticReportID, &o.Status,
		&o.CategoryCode, &o.CodeSystem, &o.CodeValue, &o.CodeDisplay, &o.ValueQuantity, &o.ValueUnit,
		&o.ValueString, &o.EffectiveDatetime, &o.Interpretation, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &o, nil
}

// -- Procedure --

type procedureRepoPG struct {
	pool *pgxpool.Pool
}

func NewProcedureRepo(pool *pgxpool.Pool) ProcedureRepository {
	return &procedureRepoPG{pool: pool}
}

const procCols = `id, external_id, patient_id, encounter_id, status, code_value, code_display,
	performed_start, performed_end, outcome, note, created_at, updated_at`

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO procedure_record (id, external_id, patient_id, encounter_id, status, code_value,
			code_display, performed_start, performed_end, outcome, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		p.ID, p.ExternalID, p.PatientID, p.EncounterID, p.Status, p.CodeValue,
		p.CodeDisplay, p.PerformedStart, p.PerformedEnd, p.Outcome, p.Note,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE procedure_record SET
			external_id=$2, patient_id=$3, encounter_id=$4, status=$5, code_value=$6,
			code_display=$7, performed_start=$8, performed_end=$9, outcome=$10, note=$11,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.ExternalID, p.PatientID, p.EncounterID, p.Status, p.CodeValue,
		p.CodeDisplay, p.PerformedStart, p.PerformedEnd, p.Outcome, p.Note,
	).Scan(&p.UpdatedAt))
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return scanProcedure(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+procCols+` FROM procedure_record WHERE id = $1`, id))
}

func (r *procedureRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Procedure, error) {
	return scanProcedure(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+procCols+` FROM procedure_record WHERE external_id = $1`, externalID))
}

func (r *procedureRepoPG) ReplacePerformers(ctx context.Context, procedureID uuid.UUID, practitionerIDs []uuid.UUID) error {
	c := conn(ctx, r.pool)
	if _, err := c.Exec(ctx, `DELETE FROM procedure_performer WHERE procedure_id = $1`, procedureID); err != nil {
		return err
	}
	for _, pid := range practitionerIDs {
		_, err := c.Exec(ctx, `
			INSERT INTO procedure_performer (procedure_id, practitioner_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, procedureID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *procedureRepoPG) GetPerformers(ctx context.Context, procedureID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT practitioner_id FROM procedure_performer WHERE procedure_id = $1 ORDER BY practitioner_id`, procedureID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.ExternalID, &p.PatientID, &p.EncounterID, &p.Status, &p.CodeValue,
		&p.CodeDisplay, &p.PerformedStart, &p.PerformedEnd, &p.Outcome, &p.Note, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &p, nil
}
