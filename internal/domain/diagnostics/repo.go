package diagnostics

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *DiagnosticReport) error
	Update(ctx context.Context, d *DiagnosticReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*DiagnosticReport, error)
	GetByExternalID(ctx context.Context, externalID string) (*DiagnosticReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*DiagnosticReport, error)
}
