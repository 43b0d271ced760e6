package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Condition maps to the condition table. ProcedureID is a back-reference
// written only by the procedure cross-link.
type Condition struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ExternalID         string     `db:"external_id" json:"external_id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID        uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	RecorderID         *uuid.UUID `db:"recorder_id" json:"recorder_id,omitempty"`
	ProcedureID        *uuid.UUID `db:"procedure_id" json:"procedure_id,omitempty"`
	ClinicalStatus     *string    `db:"clinical_status" json:"clinical_status,omitempty"`
	VerificationStatus *string    `db:"verification_status" json:"verification_status,omitempty"`
	CategoryCode       *string    `db:"category_code" json:"category_code,omitempty"`
	CodeSystem         *string    `db:"code_system" json:"code_system,omitempty"`
	CodeValue          *string    `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay        *string    `db:"code_display" json:"code_display,omitempty"`
	OnsetDatetime      *time.Time `db:"onset_datetime" json:"onset_datetime,omitempty"`
	AbatementDatetime  *time.Time `db:"abatement_datetime" json:"abatement_datetime,omitempty"`
	RecordedDate       *time.Time `db:"recorded_date" json:"recorded_date,omitempty"`
	Note               *string    `db:"note" json:"note,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Observation maps to the observation table. DiagnosticReportID is a
// back-reference written only by the report cross-link.
type Observation struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ExternalID         string     `db:"external_id" json:"external_id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID        uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	DiagnosticReportID *uuid.UUID `db:"diagnostic_report_id" json:"diagnostic_report_id,omitempty"`
	Status             string     `db:"status" json:"status"`
	CategoryCode       *string    `db:"category_code" json:"category_code,omitempty"`
	CodeSystem         *string    `db:"code_system" json:"code_system,omitempty"`
	CodeValue          *string    `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay        *string    `db:"code_display" json:"code_display,omitempty"`
	ValueQuantity      *float64   `db:"value_quantity" json:"value_quantity,omitempty"`
	ValueUnit          *string    `db:"value_unit" json:"value_unit,omitempty"`
	ValueString        *string    `db:"value_string" json:"value_string,omitempty"`
	EffectiveDatetime  *time.Time `db:"effective_datetime" json:"effective_datetime,omitempty"`
	Interpretation     *string    `db:"interpretation" json:"interpretation,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Procedure maps to the procedure_record table. Performers live in
// procedure_performer.
type Procedure struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ExternalID     string     `db:"external_id" json:"external_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID    uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	Status         string     `db:"status" json:"status"`
	CodeValue      *string    `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay    *string    `db:"code_display" json:"code_display,omitempty"`
	PerformedStart *time.Time `db:"performed_start" json:"performed_start,omitempty"`
	PerformedEnd   *time.Time `db:"performed_end" json:"performed_end,omitempty"`
	Outcome        *string    `db:"outcome" json:"outcome,omitempty"`
	Note           *string    `db:"note" json:"note,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// BackRef asks for the row with ExternalID to point at OwnerID.
type BackRef struct {
	ExternalID string
	OwnerID    uuid.UUID
}
