package encounter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type encounterRepoMemory struct {
	rows         *memstore.Table[Encounter]
	participants *memstore.Links
}

func NewMemoryRepo() Repository {
	return &encounterRepoMemory{
		rows: memstore.NewTable(func(e *Encounter) (uuid.UUID, string) {
			return e.ID, e.ExternalID
		}),
		participants: memstore.NewLinks(),
	}
}

func (r *encounterRepoMemory) Create(_ context.Context, e *Encounter) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	return r.rows.Insert(e)
}

func (r *encounterRepoMemory) Update(_ context.Context, e *Encounter) error {
	e.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(e)
}

func (r *encounterRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Encounter, error) {
	return r.rows.ByID(id)
}

func (r *encounterRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Encounter, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *encounterRepoMemory) ListExternalIDs(_ context.Context) ([]string, error) {
	return r.rows.ExternalIDs(), nil
}

func (r *encounterRepoMemory) ReplaceParticipants(_ context.Context, encounterID uuid.UUID, practitionerIDs []uuid.UUID) error {
	if _, err := r.rows.ByID(encounterID); err != nil {
		return db.ErrNotFound
	}
	r.participants.Replace(encounterID, practitionerIDs)
	return nil
}

func (r *encounterRepoMemory) GetParticipants(_ context.Context, encounterID uuid.UUID) ([]uuid.UUID, error) {
	return r.participants.Get(encounterID), nil
}
