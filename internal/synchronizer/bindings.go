package synchronizer

import (
	"context"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/admin"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/clinical"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/diagnostics"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/encounter"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/identity"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/medication"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/scheduling"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
)

// writeFn persists one prepared record. It runs inside a transaction.
type writeFn func(ctx context.Context) (upserted, error)

// binding ties a resource kind to its field set and its per-record
// reference resolution. prepare resolves references and returns the write;
// one worker runs both for a record.
type binding struct {
	fields  []string
	check   func(rec mapping.Record) error
	prepare func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error)
}

func orgID(o *admin.Organization) uuid.UUID                  { return o.ID }
func patientID(p *identity.Patient) uuid.UUID                { return p.ID }
func practitionerID(p *identity.Practitioner) uuid.UUID      { return p.ID }
func encounterID(e *encounter.Encounter) uuid.UUID           { return e.ID }
func conditionID(c *clinical.Condition) uuid.UUID            { return c.ID }
func observationID(o *clinical.Observation) uuid.UUID        { return o.ID }
func procedureID(p *clinical.Procedure) uuid.UUID            { return p.ID }
func medicationID(m *medication.Medication) uuid.UUID        { return m.ID }
func medRequestID(m *medication.MedicationRequest) uuid.UUID { return m.ID }
func scheduleID(s *scheduling.Schedule) uuid.UUID            { return s.ID }
func slotID(s *scheduling.Slot) uuid.UUID                    { return s.ID }
func appointmentID(a *scheduling.Appointment) uuid.UUID      { return a.ID }
func reportID(d *diagnostics.DiagnosticReport) uuid.UUID     { return d.ID }

func (s *Synchronizer) bindings() map[Kind]binding {
	st := s.store
	return map[Kind]binding{
		KindOrganization: {
			fields: admin.OrganizationFields,
			check:  dryMerge[admin.Organization],
			prepare: func(_ context.Context, _ *run, _ *tracker, rec mapping.Record) (writeFn, error) {
				return func(ctx context.Context) (upserted, error) {
					return upsert[admin.Organization](ctx, KindOrganization, st.Organizations, rec, orgID, nil, nil)
				}, nil
			},
		},

		KindPatient: {
			fields: identity.PatientFields,
			check:  dryMerge[identity.Patient],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindPatient, rec)
				org := r.Optional(ctx, "organizationRef", KindOrganization)
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[identity.Patient](ctx, KindPatient, st.Patients, rec, patientID,
						func(p *identity.Patient) {
							if org != nil {
								p.OrganizationID = org
							}
						}, nil)
				}, nil
			},
		},

		// Practitioners are synced on demand by the reference resolver.
		KindPractitioner: {
			fields: identity.PractitionerFields,
			check:  dryMerge[identity.Practitioner],
		},

		KindEncounter: {
			fields: encounter.Fields,
			check:  dryMerge[encounter.Encounter],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindEncounter, rec)
				patient := r.Required(ctx, "patientRef", KindPatient)
				org := r.Optional(ctx, "organizationRef", KindOrganization)
				practs := r.Practitioners(ctx, "practitionerRefs")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[encounter.Encounter](ctx, KindEncounter, st.Encounters, rec, encounterID,
						func(e *encounter.Encounter) {
							e.PatientID = patient
							if org != nil {
								e.OrganizationID = org
							}
						},
						func(ctx context.Context, e *encounter.Encounter) error {
							if len(practs) == 0 {
								return nil
							}
							return st.Encounters.ReplaceParticipants(ctx, e.ID, practs)
						})
				}, nil
			},
		},

		KindCondition: {
			fields: clinical.ConditionFields,
			check:  dryMerge[clinical.Condition],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindCondition, rec)
				enc := r.Encounter(ctx, "encounterRef")
				patient := r.Patient(ctx, "patientRef", enc)
				recorder := r.Practitioner(ctx, "recorderRef")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[clinical.Condition](ctx, KindCondition, st.Conditions, rec, conditionID,
						func(c *clinical.Condition) {
							c.EncounterID = enc.ID
							c.PatientID = patient
							if recorder != nil {
								c.RecorderID = recorder
							}
						}, nil)
				}, nil
			},
		},

		KindMedication: {
			fields: medication.MedicationFields,
			check:  dryMerge[medication.Medication],
			prepare: func(_ context.Context, _ *run, _ *tracker, rec mapping.Record) (writeFn, error) {
				return func(ctx context.Context) (upserted, error) {
					return upsert[medication.Medication](ctx, KindMedication, st.Medications, rec, medicationID, nil, nil)
				}, nil
			},
		},

		KindMedicationRequest: {
			fields: medication.RequestFields,
			check:  dryMerge[medication.MedicationRequest],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindMedicationRequest, rec)
				enc := r.Encounter(ctx, "encounterRef")
				patient := r.Patient(ctx, "patientRef", enc)
				med := r.Optional(ctx, "medicationRef", KindMedication)
				requester := r.Practitioner(ctx, "requesterRef")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[medication.MedicationRequest](ctx, KindMedicationRequest, st.MedicationRequests, rec, medRequestID,
						func(mr *medication.MedicationRequest) {
							mr.EncounterID = enc.ID
							mr.PatientID = patient
							if med != nil {
								mr.MedicationID = med
							}
							if requester != nil {
								mr.RequesterID = requester
							}
						}, nil)
				}, nil
			},
		},

		KindAppointment: {
			fields: scheduling.AppointmentFields,
			check:  dryMerge[scheduling.Appointment],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindAppointment, rec)
				patient := r.Required(ctx, "patientRef", KindPatient)
				practs := r.Practitioners(ctx, "practitionerRefs")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[scheduling.Appointment](ctx, KindAppointment, st.Appointments, rec, appointmentID,
						func(a *scheduling.Appointment) { a.PatientID = patient },
						func(ctx context.Context, a *scheduling.Appointment) error {
							if len(practs) == 0 {
								return nil
							}
							return st.Appointments.ReplaceParticipants(ctx, a.ID, practs)
						})
				}, nil
			},
		},

		KindSchedule: {
			fields: scheduling.ScheduleFields,
			check:  dryMerge[scheduling.Schedule],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindSchedule, rec)
				pract := r.Practitioner(ctx, "practitionerRef")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[scheduling.Schedule](ctx, KindSchedule, st.Schedules, rec, scheduleID,
						func(sc *scheduling.Schedule) {
							if pract != nil {
								sc.PractitionerID = pract
							}
						}, nil)
				}, nil
			},
		},

		KindSlot: {
			fields: scheduling.SlotFields,
			check:  dryMerge[scheduling.Slot],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindSlot, rec)
				sched := r.Required(ctx, "scheduleRef", KindSchedule)
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[scheduling.Slot](ctx, KindSlot, st.Slots, rec, slotID,
						func(sl *scheduling.Slot) { sl.ScheduleID = sched }, nil)
				}, nil
			},
		},

		KindObservation: {
			fields: clinical.ObservationFields,
			check:  dryMerge[clinical.Observation],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindObservation, rec)
				enc := r.Encounter(ctx, "encounterRef")
				patient := r.Patient(ctx, "patientRef", enc)
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[clinical.Observation](ctx, KindObservation, st.Observations, rec, observationID,
						func(o *clinical.Observation) {
							o.EncounterID = enc.ID
							o.PatientID = patient
						}, nil)
				}, nil
			},
		},

		KindDiagnosticReport: {
			fields: diagnostics.Fields,
			check:  dryMerge[diagnostics.DiagnosticReport],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindDiagnosticReport, rec)
				enc := r.Encounter(ctx, "encounterRef")
				patient := r.Patient(ctx, "patientRef", enc)
				performer := r.Practitioner(ctx, "performerRef")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[diagnostics.DiagnosticReport](ctx, KindDiagnosticReport, st.DiagnosticReports, rec, reportID,
						func(d *diagnostics.DiagnosticReport) {
							d.EncounterID = enc.ID
							d.PatientID = patient
							if performer != nil {
								d.PerformerID = performer
							}
						}, nil)
				}, nil
			},
		},

		KindProcedure: {
			fields: clinical.ProcedureFields,
			check:  dryMerge[clinical.Procedure],
			prepare: func(ctx context.Context, rc *run, t *tracker, rec mapping.Record) (writeFn, error) {
				r := s.refs(rc, t, KindProcedure, rec)
				enc := r.Encounter(ctx, "encounterRef")
				patient := r.Patient(ctx, "patientRef", enc)
				performers := r.Practitioners(ctx, "performerRefs")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return func(ctx context.Context) (upserted, error) {
					return upsert[clinical.Procedure](ctx, KindProcedure, st.Procedures, rec, procedureID,
						func(p *clinical.Procedure) {
							p.EncounterID = enc.ID
							p.PatientID = patient
						},
						func(ctx context.Context, p *clinical.Procedure) error {
							if len(performers) == 0 {
								return nil
							}
							return st.Procedures.ReplacePerformers(ctx, p.ID, performers)
						})
				}, nil
			},
		},
	}
}
