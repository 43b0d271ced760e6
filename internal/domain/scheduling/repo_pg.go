package scheduling

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

// -- Schedule --

type scheduleRepoPG struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

const schedCols = `id, external_id, practitioner_id, active, service_type_code, service_type_display,
	planning_start, planning_end, comment, created_at, updated_at`

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO schedule (id, external_id, practitioner_id, active, service_type_code,
			service_type_display, planning_start, planning_end, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		s.ID, s.ExternalID, s.PractitionerID, s.Active, s.ServiceTypeCode,
		s.ServiceTypeDisplay, s.PlanningStart, s.PlanningEnd, s.Comment,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE schedule SET external_id=$2, practitioner_id=$3, active=$4, service_type_code=$5,
			service_type_display=$6, planning_start=$7, planning_end=$8, comment=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.ExternalID, s.PractitionerID, s.Active, s.ServiceTypeCode,
		s.ServiceTypeDisplay, s.PlanningStart, s.PlanningEnd, s.Comment,
	).Scan(&s.UpdatedAt))
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+schedCols+` FROM schedule WHERE id = $1`, id))
}

func (r *scheduleRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Schedule, error) {
	return scanSchedule(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+schedCols+` FROM schedule WHERE external_id = $1`, externalID))
}

func (r *scheduleRepoPG) ListExternalIDs(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT external_id FROM schedule ORDER BY external_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.ExternalID, &s.PractitionerID, &s.Active, &s.ServiceTypeCode,
		&s.ServiceTypeDisplay, &s.PlanningStart, &s.PlanningEnd, &s.Comment, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &s, nil
}

// -- Slot --

type slotRepoPG struct {
	pool *pgxpool.Pool
}

func NewSlotRepo(pool *pgxpool.Pool) SlotRepository {
	return &slotRepoPG{pool: pool}
}

const slotCols = `id, external_id, schedule_id, status, start_time, end_time, overbooked, comment, created_at, updated_at`

func (r *slotRepoPG) Create(ctx context.Context, s *Slot) error {
	s.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO slot (id, external_id, schedule_id, status, start_time, end_time, overbooked, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		s.ID, s.ExternalID, s.ScheduleID, s.Status, s.StartTime, s.EndTime, s.Overbooked, s.Comment,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *slotRepoPG) Update(ctx context.Context, s *Slot) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE slot SET external_id=$2, schedule_id=$3, status=$4, start_time=$5, end_time=$6,
			overbooked=$7, comment=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.ExternalID, s.ScheduleID, s.Status, s.StartTime, s.EndTime, s.Overbooked, s.Comment,
	).Scan(&s.UpdatedAt))
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
}

func (r *slotRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Slot, error) {
	return scanSlot(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE external_id = $1`, externalID))
}

func (r *slotRepoPG) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*Slot, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+slotCols+` FROM slot WHERE schedule_id = $1 ORDER BY start_time, external_id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.ExternalID, &s.ScheduleID, &s.Status, &s.StartTime, &s.EndTime,
		&s.Overbooked, &s.Comment, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &s, nil
}

// -- Appointment --

type apptRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &apptRepoPG{pool: pool}
}

const apptCols = `id, external_id, patient_id, status, description, start_time, end_time,
	minutes_duration, appointment_type, comment, created_at, updated_at`

func (r *apptRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointment (id, external_id, patient_id, status, description, start_time,
			end_time, minutes_duration, appointment_type, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.ExternalID, a.PatientID, a.Status, a.Description, a.StartTime,
		a.EndTime, a.MinutesDuration, a.AppointmentType, a.Comment,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *apptRepoPG) Update(ctx context.Context, a *Appointment) error {
	return db.NotFound(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointment SET external_id=$2, patient_id=$3, status=$4, description=$5,
			start_time=$6, end_time=$7, minutes_duration=$8, appointment_type=$9, comment=$10,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.ExternalID, a.PatientID, a.Status, a.Description,
		a.StartTime, a.EndTime, a.MinutesDuration, a.AppointmentType, a.Comment,
	).Scan(&a.UpdatedAt))
}

func (r *apptRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *apptRepoPG) GetByExternalID(ctx context.Context, externalID string) (*Appointment, error) {
	return scanAppt(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE external_id = $1`, externalID))
}

func (r *apptRepoPG) ReplaceParticipants(ctx context.Context, appointmentID uuid.UUID, practitionerIDs []uuid.UUID) error {
	c := conn(ctx, r.pool)
	if _, err := c.Exec(ctx, `DELETE FROM appointment_participant WHERE appointment_id = $1`, appointmentID); err != nil {
		return err
	}
	for _, pid := range practitionerIDs {
		_, err := c.Exec(ctx, `
			INSERT INTO appointment_participant (appointment_id, practitioner_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, appointmentID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *apptRepoPG) GetParticipants(ctx context.Context, appointmentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT practitioner_id FROM appointment_participant WHERE appointment_id = $1 ORDER BY practitioner_id`, appointmentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ExternalID, &a.PatientID, &a.Status, &a.Description, &a.StartTime,
		&a.EndTime, &a.MinutesDuration, &a.AppointmentType, &a.Comment, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &a, nil
}
