package medication

import (
	"context"

	"github.com/google/uuid"
)

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	Update(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	GetByExternalID(ctx context.Context, externalID string) (*Medication, error)
}

type MedicationRequestRepository interface {
	Create(ctx context.Context, mr *MedicationRequest) error
	Update(ctx context.Context, mr *MedicationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicationRequest, error)
	GetByExternalID(ctx context.Context, externalID string) (*MedicationRequest, error)
	ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*MedicationRequest, error)
}
