package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ExternalID         string     `db:"external_id" json:"external_id"`
	PractitionerID     *uuid.UUID `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Active             bool       `db:"active" json:"active"`
	ServiceTypeCode    *string    `db:"service_type_code" json:"service_type_code,omitempty"`
	ServiceTypeDisplay *string    `db:"service_type_display" json:"service_type_display,omitempty"`
	PlanningStart      *time.Time `db:"planning_start" json:"planning_start,omitempty"`
	PlanningEnd        *time.Time `db:"planning_end" json:"planning_end,omitempty"`
	Comment            *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

type Slot struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ExternalID string     `db:"external_id" json:"external_id"`
	ScheduleID uuid.UUID  `db:"schedule_id" json:"schedule_id"`
	Status     string     `db:"status" json:"status"`
	StartTime  *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime    *time.Time `db:"end_time" json:"end_time,omitempty"`
	Overbooked bool       `db:"overbooked" json:"overbooked"`
	Comment    *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Appointment maps to the appointment table. Practitioner participants live
// in appointment_participant.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ExternalID      string     `db:"external_id" json:"external_id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	Status          string     `db:"status" json:"status"`
	Description     *string    `db:"description" json:"description,omitempty"`
	StartTime       *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	MinutesDuration *int       `db:"minutes_duration" json:"minutes_duration,omitempty"`
	AppointmentType *string    `db:"appointment_type" json:"appointment_type,omitempty"`
	Comment         *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
