package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByExternalID(ctx context.Context, externalID string) (*Patient, error)
	// ListExternalIDs returns the natural keys of every stored patient.
	ListExternalIDs(ctx context.Context) ([]string, error)
}

type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	Update(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	GetByExternalID(ctx context.Context, externalID string) (*Practitioner, error)
}
