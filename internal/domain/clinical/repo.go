package clinical

import (
	"context"

	"github.com/google/uuid"
)

type ConditionRepository interface {
	Create(ctx context.Context, c *Condition) error
	Update(ctx context.Context, c *Condition) error
	GetByID(ctx context.Context, id uuid.UUID) (*Condition, error)
	GetByExternalID(ctx context.Context, externalID string) (*Condition, error)
	ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]*Condition, error)

	// SetProcedures writes condition.procedure_id for each ref in one batch
	// and returns the external ids that matched no condition.
	SetProcedures(ctx context.Context, refs []BackRef) ([]string, error)
}

type ObservationRepository interface {
	Create(ctx context.Context, o *Observation) error
	Update(ctx context.Context, o *Observation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Observation, error)
	GetByExternalID(ctx context.Context, externalID string) (*Observation, error)
	ListByDiagnosticReport(ctx context.Context, reportID uuid.UUID) ([]*Observation, error)

	// SetDiagnosticReports writes observation.diagnostic_report_id for each
	// ref in one batch and returns the external ids that matched no
	// observation.
	SetDiagnosticReports(ctx context.Context, refs []BackRef) ([]string, error)
}

type ProcedureRepository interface {
	Create(ctx context.Context, p *Procedure) error
	Update(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	GetByExternalID(ctx context.Context, externalID string) (*Procedure, error)

	ReplacePerformers(ctx context.Context, procedureID uuid.UUID, practitionerIDs []uuid.UUID) error
	GetPerformers(ctx context.Context, procedureID uuid.UUID) ([]uuid.UUID, error)
}
