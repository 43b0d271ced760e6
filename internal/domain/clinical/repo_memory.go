package clinical

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

// -- Condition --

type conditionRepoMemory struct {
	rows *memstore.Table[Condition]
}

func NewConditionMemoryRepo() ConditionRepository {
	return &conditionRepoMemory{rows: memstore.NewTable(func(c *Condition) (uuid.UUID, string) {
		return c.ID, c.ExternalID
	})}
}

func (r *conditionRepoMemory) Create(_ context.Context, c *Condition) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	return r.rows.Insert(c)
}

func (r *conditionRepoMemory) Update(_ context.Context, c *Condition) error {
	stored, err := r.rows.ByID(c.ID)
	if err != nil {
		return err
	}
	c.ProcedureID = stored.ProcedureID
	c.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(c)
}

func (r *conditionRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Condition, error) {
	return r.rows.ByID(id)
}

func (r *conditionRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Condition, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *conditionRepoMemory) ListByProcedure(_ context.Context, procedureID uuid.UUID) ([]*Condition, error) {
	return r.rows.Select(func(c *Condition) bool {
		return c.ProcedureID != nil && *c.ProcedureID == procedureID
	}), nil
}

func (r *conditionRepoMemory) SetProcedures(_ context.Context, refs []BackRef) ([]string, error) {
	var missing []string
	for _, ref := range refs {
		c, err := r.rows.ByExternalID(ref.ExternalID)
		if errors.Is(err, db.ErrNotFound) {
			missing = append(missing, ref.ExternalID)
			continue
		}
		if err != nil {
			return nil, err
		}
		owner := ref.OwnerID
		if err := r.rows.Modify(c.ID, func(row *Condition) {
			row.ProcedureID = &owner
			row.UpdatedAt = time.Now().UTC()
		}); err != nil {
			return nil, err
		}
	}
	return missing, nil
}

// -- Observation --

type observationRepoMemory struct {
	rows *memstore.Table[Observation]
}

func NewObservationMemoryRepo() ObservationRepository {
	return &observationRepoMemory{rows: memstore.NewTable(func(o *Observation) (uuid.UUID, string) {
		return o.ID, o.ExternalID
	})}
}

func (r *observationRepoMemory) Create(_ context.Context, o *Observation) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	return r.rows.Insert(o)
}

func (r *observationRepoMemory) Update(_ context.Context, o *Observation) error {
	stored, err := r.rows.ByID(o.ID)
	if err != nil {
		return err
	}
	o.DiagnosticReportID = stored.DiagnosticReportID
	o.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(o)
}

func (r *observationRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Observation, error) {
	return r.rows.ByID(id)
}

func (r *observationRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Observation, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *observationRepoMemory) ListByDiagnosticReport(_ context.Context, reportID uuid.UUID) ([]*Observation, error) {
	return r.rows.Select(func(o *Observation) bool {
		return o.DiagnosticReportID != nil && *o.DiagnosticReportID == reportID
	}), nil
}

func (r *observationRepoMemory) SetDiagnosticReports(_ context.Context, refs []BackRef) ([]string, error) {
	var missing []string
	for _, ref := range refs {
		o, err := r.rows.ByExternalID(ref.ExternalID)
		if errors.Is(err, db.ErrNotFound) {
			missing = append(missing, ref.ExternalID)
			continue
		}
		if err != nil {
			return nil, err
		}
		owner := ref.OwnerID
		if err := r.rows.Modify(o.ID, func(row *Observation) {
			row.DiagnosticReportID = &owner
			row.UpdatedAt = time.Now().UTC()
		}); err != nil {
			return nil, err
		}
	}
	return missing, nil
}

// -- Procedure --

type procedureRepoMemory struct {
	rows       *memstore.Table[Procedure]
	performers *memstore.Links
}

func NewProcedureMemoryRepo() ProcedureRepository {
	return &procedureRepoMemory{
		rows: memstore.NewTable(func(p *Procedure) (uuid.UUID, string) {
			return p.ID, p.ExternalID
		}),
		performers: memstore.NewLinks(),
	}
}

func (r *procedureRepoMemory) Create(_ context.Context, p *Procedure) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	return r.rows.Insert(p)
}

func (r *procedureRepoMemory) Update(_ context.Context, p *Procedure) error {
	p.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(p)
}

func (r *procedureRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Procedure, error) {
	return r.rows.ByID(id)
}

func (r *procedureRepoMemory) GetByExternalID(_ context.Context, externalID string) (*Procedure, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *procedureRepoMemory) ReplacePerformers(_ context.Context, procedureID uuid.UUID, practitionerIDs []uuid.UUID) error {
	if _, err := r.rows.ByID(procedureID); err != nil {
		return db.ErrNotFound
	}
	r.performers.Replace(procedureID, practitionerIDs)
	return nil
}

func (r *procedureRepoMemory) GetPerformers(_ context.Context, procedureID uuid.UUID) ([]uuid.UUID, error) {
	return r.performers.Get(procedureID), nil
}
