package diagnostics

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosticReport maps to the diagnostic_report table. Result observations
// point back at the report through observation.diagnostic_report_id.
type DiagnosticReport struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ExternalID        string     `db:"external_id" json:"external_id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID       uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	PerformerID       *uuid.UUID `db:"performer_id" json:"performer_id,omitempty"`
	Status            string     `db:"status" json:"status"`
	CategoryCode      *string    `db:"category_code" json:"category_code,omitempty"`
	CodeValue         *string    `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay       *string    `db:"code_display" json:"code_display,omitempty"`
	EffectiveDatetime *time.Time `db:"effective_datetime" json:"effective_datetime,omitempty"`
	Issued            *time.Time `db:"issued" json:"issued,omitempty"`
	Conclusion        *string    `db:"conclusion" json:"conclusion,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
