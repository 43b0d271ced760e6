package diagnostics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/memstore"
)

type reportRepoMemory struct {
	rows *memstore.Table[DiagnosticReport]
}

func NewMemoryRepo() Repository {
	return &reportRepoMemory{rows: memstore.NewTable(func(d *DiagnosticReport) (uuid.UUID, string) {
		return d.ID, d.ExternalID
	})}
}

func (r *reportRepoMemory) Create(_ context.Context, d *DiagnosticReport) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	return r.rows.Insert(d)
}

func (r *reportRepoMemory) Update(_ context.Context, d *DiagnosticReport) error {
	d.UpdatedAt = time.Now().UTC()
	return r.rows.Replace(d)
}

func (r *reportRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*DiagnosticReport, error) {
	return r.rows.ByID(id)
}

func (r *reportRepoMemory) GetByExternalID(_ context.Context, externalID string) (*DiagnosticReport, error) {
	return r.rows.ByExternalID(externalID)
}

func (r *reportRepoMemory) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*DiagnosticReport, error) {
	return r.rows.Select(func(d *DiagnosticReport) bool { return d.PatientID == patientID }), nil
}
