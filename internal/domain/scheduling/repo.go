package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	Update(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	GetByExternalID(ctx context.Context, externalID string) (*Schedule, error)
	ListExternalIDs(ctx context.Context) ([]string, error)
}

type SlotRepository interface {
	Create(ctx context.Context, s *Slot) error
	Update(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByExternalID(ctx context.Context, externalID string) (*Slot, error)
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*Slot, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByExternalID(ctx context.Context, externalID string) (*Appointment, error)

	ReplaceParticipants(ctx context.Context, appointmentID uuid.UUID, practitionerIDs []uuid.UUID) error
	GetParticipants(ctx context.Context, appointmentID uuid.UUID) ([]uuid.UUID, error)
}
