package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type patientRepoMemory struct {
	rows *memstore.Table[Patient]
}

func NewPatientMemoryRepo() PatientRepository {
	return &patientRepoMemory{rows: memstore.NewTable(func(p *Patient) (uuid.UUID, string) {
		return p.ID, p.ExternalID
	})}
}

func (r *patientRepoMemory) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	return r.rows.Insert(p)
}

func (r *patientRepoMemory) Update(_ context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(p)
}

func (r *patientRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	return r.rows.ByID(id)
}

func (r *patientRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Patient, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *patientRepoMemory) ListExternalIDs(_ context.Context) ([]string, error) {
	return r.rows.ExternalIDs(), nil
}

type practitionerRepoMemory struct {
	rows *memstore.Table[Practitioner]
}

func NewPractitionerMemoryRepo() PractitionerRepository {
	return &practitionerRepoMemory{rows: memstore.NewTable(func(p *Practitioner) (uuid.UUID, string) {
		return p.ID, p.ExternalID
	})}
}

func (r *practitionerRepoMemory) Create(_ context.Context, p *Practitioner) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	return r.rows.Insert(p)
}

func (r *practitionerRepoMemory) Update(_ context.Context, p *Practitioner) error {
	p.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(p)
}

func (r *practitionerRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	return r.rows.ByID(id)
}

func (r *practitionerRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Practitioner, error) {
	return r.rows.ByExternalID(externalID)
}
