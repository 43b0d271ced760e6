package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type scheduleRepoMemory struct {
	rows *memstore.Table[Schedule]
}

func NewScheduleMemoryRepo() ScheduleRepository {
	return &scheduleRepoMemory{rows: memstore.NewTable(func(s *Schedule) (uuid.UUID, string) {
		return s.ID, s.ExternalID
	})}
}

func (r *scheduleRepoMemory) Create(_ context.Context, s *Schedule) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return r.rows.Insert(s)
}

func (r *scheduleRepoMemory) Update(_ context.Context, s *Schedule) error {
	s.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(s)
}

func (r *scheduleRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	return r.rows.ByID(id)
}

func (r *scheduleRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Schedule, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *scheduleRepoMemory) ListExternalIDs(_ context.Context) ([]string, error) {
	return r.rows.ExternalIDs(), nil
}

type slotRepoMemory struct {
	rows *memstore.Table[Slot]
}

func NewSlotMemoryRepo() SlotRepository {
	return &slotRepoMemory{rows: memstore.NewTable(func(s *Slot) (uuid.UUID, string) {
		return s.ID, s.ExternalID
	})}
}

func (r *slotRepoMemory) Create(_ context.Context, s *Slot) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return r.rows.Insert(s)
}

func (r *slotRepoMemory) Update(_ context.Context, s *Slot) error {
	s.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(s)
}

func (r *slotRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	return r.rows.ByID(id)
}

func (r *slotRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Slot, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *slotRepoMemory) ListBySchedule(_ context.Context, scheduleID uuid.UUID) ([]*Slot, error) {
	return r.rows.Select(func(s *Slot) bool { return s.ScheduleID == scheduleID }), nil
}

type apptRepoMemory struct {
	rows         *memstore.Table[Appointment]
	participants *memstore.Links
}

func NewAppointmentMemoryRepo() AppointmentRepository {
	return &apptRepoMemory{
		rows: memstore.NewTable(func(a *Appointment) (uuid.UUID, string) {
			return a.ID, a.ExternalID
		}),
		participants: memstore.NewLinks(),
	}
}

func (r *apptRepoMemory) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	return r.rows.Insert(a)
}

func (r *apptRepoMemory) Update(_ context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(a)
}

func (r *apptRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	return r.rows.ByID(id)
}

func (r *apptRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Appointment, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *apptRepoMemory) ReplaceParticipants(_ context.Context, appointmentID uuid.UUID, practitionerIDs []uuid.UUID) error {
	if _, err := r.rows.ByID(appointmentID); err != nil {
		return db.ErrNotFound
	}
	r.participants.Replace(appointmentID, practitionerIDs)
	return nil
}

func (r *apptRepoMemory) GetParticipants(_ context.Context, appointmentID uuid.UUID) ([]uuid.UUID, error) {
	return r.participants.Get(appointmentID), nil
}
