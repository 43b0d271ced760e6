package encounter

import (
	"time"

	"github.com/google/uuid"
)

// Encounter maps to the encounter table. Participating practitioners live
// in encounter_participant.
type Encounter struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ExternalID     string     `db:"external_id" json:"external_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	OrganizationID *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	Status         string     `db:"status" json:"status"`
	ClassCode      *string    `db:"class_code" json:"class_code,omitempty"`
	TypeCode       *string    `db:"type_code" json:"type_code,omitempty"`
	TypeDisplay    *string    `db:"type_display" json:"type_display,omitempty"`
	PeriodStart    *time.Time `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd      *time.Time `db:"period_end" json:"period_end,omitempty"`
	ReasonText     *string    `db:"reason_text" json:"reason_text,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
