package medication

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type medRepoMemory struct {
	rows *memstore.Table[Medication]
}

func NewMedicationMemoryRepo() MedicationRepository {
	return &medRepoMemory{rows: memstore.NewTable(func(m *Medication) (uuid.UUID, string) {
		return m.ID, m.ExternalID
	})}
}

func (r *medRepoMemory) Create(_ context.Context, m *Medication) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	return r.rows.Insert(m)
}

func (r *medRepoMemory) Update(_ context.Context, m *Medication) error {
	m.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(m)
}

func (r *medRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	return r.rows.ByID(id)
}

func (r *medRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Medication, error) {
	return r.rows.ByExternalID(externalID)
}

type medReqRepoMemory struct {
	rows *memstore.Table[MedicationRequest]
}

func NewMedicationRequestMemoryRepo() MedicationRequestRepository {
	return &medReqRepoMemory{rows: memstore.NewTable(func(mr *MedicationRequest) (uuid.UUID, string) {
		return mr.ID, mr.ExternalID
	})}
}

func (r *medReqRepoMemory) Create(_ context.Context, mr *MedicationRequest) error {
	mr.ID = uuid.New()
	mr.CreatedAt = time.Now().UTC()
	mr.UpdatedAt = mr.CreatedAt
	return r.rows.Insert(mr)
}

func (r *medReqRepoMemory) Update(_ context.Context, mr *MedicationRequest) error {
	mr.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(mr)
}

func (r *medReqRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*MedicationRequest, error) {
	return r.rows.ByID(id)
}

func (r *medReqRepoMemory) GetByExternalID(_ context.Context, externalID string) (*MedicationRequest, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *medReqRepoMemory) ListByEncounter(_ context.Context, encounterID uuid.UUID) ([]*MedicationRequest, error) {
	return r.rows.Select(func(mr *MedicationRequest) bool { return mr.EncounterID == encounterID }), nil
}
