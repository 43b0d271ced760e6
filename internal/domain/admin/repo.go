package admin

import (
	"context"

	"github.com/google/uuid"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	Update(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetByExternalID(ctx context.Context, externalID string) (*Organization, error)
}

type SyncRunRepository interface {
	Create(ctx context.Context, run *SyncRun) error
	ListBySource(ctx context.Context, source string, limit, offset int) ([]*SyncRun, int, error)
}
