package encounter

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Encounter) error
	Update(ctx context.Context, e *Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	GetByExternalID(ctx context.Context, externalID string) (*Encounter, error)
	ListExternalIDs(ctx context.Context) ([]string, error)

	// ReplaceParticipants sets the full practitioner list of an encounter.
	ReplaceParticipants(ctx context.Context, encounterID uuid.UUID, practitionerIDs []uuid.UUID) error
	GetParticipants(ctx context.Context, encounterID uuid.UUID) ([]uuid.UUID, error)
}
