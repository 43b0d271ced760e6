package scheduling

import (
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

var ScheduleFields = []string{
	"externalId", "active", "serviceTypeCode", "serviceTypeDisplay",
	"planningStart", "planningEnd", "comment", "practitionerRef",
}

var SlotFields = []string{
	"externalId", "status", "start", "end", "overbooked", "comment", "scheduleRef",
}

var AppointmentFields = []string{
	"externalId", "status", "description", "start", "end", "minutesDuration",
	"appointmentType", "comment", "patientRef", "practitionerRefs",
}

func (s *Schedule) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &s.ExternalID)
	m.Bool("active", &s.Active)
	m.StringPtr("serviceTypeCode", &s.ServiceTypeCode)
	m.StringPtr("serviceTypeDisplay", &s.ServiceTypeDisplay)
	m.TimePtr("planningStart", &s.PlanningStart)
	m.TimePtr("planningEnd", &s.PlanningEnd)
	m.StringPtr("comment", &s.Comment)
	return m.Err()
}

func (s *Slot) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &s.ExternalID)
	m.String("status", &s.Status)
	m.TimePtr("start", &s.StartTime)
	m.TimePtr("end", &s.EndTime)
	m.Bool("overbooked", &s.Overbooked)
	m.StringPtr("comment", &s.Comment)
	if s.Status == "" {
		s.Status = fhirmodels.SlotStatusFree
	}
	return m.Err()
}

func (a *Appointment) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &a.ExternalID)
	m.String("status", &a.Status)
	m.StringPtr("description", &a.Description)
	m.TimePtr("start", &a.StartTime)
	m.TimePtr("end", &a.EndTime)
	m.IntPtr("minutesDuration", &a.MinutesDuration)
	m.StringPtr("appointmentType", &a.AppointmentType)
	m.StringPtr("comment", &a.Comment)
	if a.Status == "" {
		a.Status = fhirmodels.AppointmentStatusProposed
	}
	return m.Err()
}
