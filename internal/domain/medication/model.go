package medication

import (
	"time"

	"github.com/google/uuid"
)

type Medication struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Status      *string   `db:"status" json:"status,omitempty"`
	CodeSystem  *string   `db:"code_system" json:"code_system,omitempty"`
	CodeValue   *string   `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay *string   `db:"code_display" json:"code_display,omitempty"`
	FormCode    *string   `db:"form_code" json:"form_code,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type MedicationRequest struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ExternalID        string     `db:"external_id" json:"external_id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID       uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	MedicationID      *uuid.UUID `db:"medication_id" json:"medication_id,omitempty"`
	RequesterID       *uuid.UUID `db:"requester_id" json:"requester_id,omitempty"`
	Status            string     `db:"status" json:"status"`
	Intent            *string    `db:"intent" json:"intent,omitempty"`
	MedicationCode    *string    `db:"medication_code" json:"medication_code,omitempty"`
	MedicationDisplay *string    `db:"medication_display" json:"medication_display,omitempty"`
	AuthoredOn        *time.Time `db:"authored_on" json:"authored_on,omitempty"`
	DosageText        *string    `db:"dosage_text" json:"dosage_text,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
