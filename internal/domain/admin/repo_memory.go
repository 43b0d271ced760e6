package admin

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type orgRepoMemory struct {
	rows *memstore.Table[Organization]
}

func NewOrganizationMemoryRepo() OrganizationRepository {
	return &orgRepoMemory{rows: memstore.NewTable(func(o *Organization) (uuid.UUID, string) {
		return o.ID, o.ExternalID
	})}
}

func (r *orgRepoMemory) Create(_ context.Context, o *Organization) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	return r.rows.Insert(o)
}

func (r *orgRepoMemory) Update(_ context.Context, o *Organization) error {
	o.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(o)
}

func (r *orgRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	return r.rows.ByID(id)
}

func (r *orgRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Organization, error) {
	return r.rows.ByExternalID(externalID)
}

type runRepoMemory struct {
	mu   sync.Mutex
	runs []*SyncRun
}

func NewSyncRunMemoryRepo() SyncRunRepository {
	return &runRepoMemory{}
}

func (r *runRepoMemory) Create(_ context.Context, run *SyncRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	cp := *run
	r.mu.Lock()
	r.runs = append(r.runs, &cp)
	r.mu.Unlock()
	return nil
}

func (r *runRepoMemory) ListBySource(_ context.Context, source string, limit, offset int) ([]*SyncRun, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*SyncRun
	for _, run := range r.runs {
		if run.Source == source {
			cp := *run
			matched = append(matched, &cp)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartedAt.After(matched[j].StartedAt) })

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
