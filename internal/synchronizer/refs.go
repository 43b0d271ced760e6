package synchronizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/admin"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/clinical"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/diagnostics"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/encounter"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/identity"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/medication"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/scheduling"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

// refResolver resolves the reference fields of one record. Like
// mapping.Merger it keeps the first error and turns later calls into
// no-ops; optional misses become warnings on the tracker.
type refResolver struct {
	s    *Synchronizer
	rc   *run
	t    *tracker
	kind Kind
	rec  mapping.Record
	ext  string
	err  error
}

func (s *Synchronizer) refs(rc *run, t *tracker, kind Kind, rec mapping.Record) *refResolver {
	return &refResolver{s: s, rc: rc, t: t, kind: kind, rec: rec, ext: rec.ExternalID()}
}

func (r *refResolver) Err() error { return r.err }

func (r *refResolver) missing(field string, target Kind, id string) {
	r.err = &ReferenceNotFoundError{ResourceType: r.kind, ExternalID: r.ext, Field: field, Target: target, TargetID: id}
}

func (r *refResolver) warnMissing(field string, target Kind, id string) {
	r.t.warn(r.ext, fmt.Sprintf("%s: %s/%s not found, left unset", field, target, id))
}

// ref reads a single reference field. ok is false when the field is absent
// or empty.
func (r *refResolver) ref(field string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	id, ok, err := r.rec.Ref(field)
	if err != nil {
		r.err = annotate(err, r.kind, r.ext)
		return "", false
	}
	return id, ok
}

func (r *refResolver) lookup(ctx context.Context, field string, target Kind, required bool) *uuid.UUID {
	id, ok := r.ref(field)
	if !ok {
		if required && r.err == nil {
			r.missing(field, target, "")
		}
		return nil
	}
	local, found, err := r.s.lookup(ctx, target, id)
	if err != nil {
		r.err = err
		return nil
	}
	if !found {
		if required {
			r.missing(field, target, id)
		} else {
			r.warnMissing(field, target, id)
		}
		return nil
	}
	return &local
}

func (r *refResolver) Required(ctx context.Context, field string, target Kind) uuid.UUID {
	if id := r.lookup(ctx, field, target, true); id != nil {
		return *id
	}
	return uuid.Nil
}

func (r *refResolver) Optional(ctx context.Context, field string, target Kind) *uuid.UUID {
	return r.lookup(ctx, field, target, false)
}

// Encounter resolves the required owning encounter.
func (r *refResolver) Encounter(ctx context.Context, field string) *encounter.Encounter {
	id, ok := r.ref(field)
	if !ok {
		if r.err == nil {
			r.missing(field, KindEncounter, "")
		}
		return nil
	}
	enc, err := r.s.store.Encounters.GetByExternalID(ctx, id)
	switch {
	case err == nil:
		return enc
	case errors.Is(err, db.ErrNotFound):
		r.missing(field, KindEncounter, id)
	default:
		r.err = persistErr(KindEncounter, id, "lookup", err)
	}
	return nil
}

// Patient resolves an optional patient reference and falls back to the
// owning encounter's patient when the reference is absent or unknown.
func (r *refResolver) Patient(ctx context.Context, field string, enc *encounter.Encounter) uuid.UUID {
	if r.err != nil || enc == nil {
		return uuid.Nil
	}
	if id := r.lookup(ctx, field, KindPatient, false); id != nil {
		return *id
	}
	return enc.PatientID
}

// Practitioner resolves an optional practitioner reference. Only a store
// failure is kept as the resolver error.
func (r *refResolver) Practitioner(ctx context.Context, field string) *uuid.UUID {
	id, ok := r.ref(field)
	if !ok {
		return nil
	}
	local, found, err := r.s.practitioner(ctx, r.rc, r.t, r.ext, id)
	if err != nil {
		r.err = err
		return nil
	}
	if !found {
		return nil
	}
	return &local
}

func (r *refResolver) Practitioners(ctx context.Context, field string) []uuid.UUID {
	if r.err != nil {
		return nil
	}
	ids, err := r.rec.Refs(field)
	if err != nil {
		r.err = annotate(err, r.kind, r.ext)
		return nil
	}
	var out []uuid.UUID
	for _, id := range ids {
		local, found, err := r.s.practitioner(ctx, r.rc, r.t, r.ext, id)
		if err != nil {
			r.err = err
			return nil
		}
		if found {
			out = append(out, local)
		}
	}
	return out
}

// lookup finds the local id of target by natural key.
func (s *Synchronizer) lookup(ctx context.Context, target Kind, externalID string) (uuid.UUID, bool, error) {
	var (
		id  uuid.UUID
		err error
	)
	st := s.store
	switch target {
	case KindOrganization:
		id, err = localID[admin.Organization](ctx, st.Organizations, externalID, orgID)
	case KindPatient:
		id, err = localID[identity.Patient](ctx, st.Patients, externalID, patientID)
	case KindPractitioner:
		id, err = localID[identity.Practitioner](ctx, st.Practitioners, externalID, practitionerID)
	case KindEncounter:
		id, err = localID[encounter.Encounter](ctx, st.Encounters, externalID, encounterID)
	case KindCondition:
		id, err = localID[clinical.Condition](ctx, st.Conditions, externalID, conditionID)
	case KindMedication:
		id, err = localID[medication.Medication](ctx, st.Medications, externalID, medicationID)
	case KindSchedule:
		id, err = localID[scheduling.Schedule](ctx, st.Schedules, externalID, scheduleID)
	case KindObservation:
		id, err = localID[clinical.Observation](ctx, st.Observations, externalID, observationID)
	case KindProcedure:
		id, err = localID[clinical.Procedure](ctx, st.Procedures, externalID, procedureID)
	case KindDiagnosticReport:
		id, err = localID[diagnostics.DiagnosticReport](ctx, st.DiagnosticReports, externalID, reportID)
	default:
		return uuid.Nil, false, fmt.Errorf("%w: no lookup for %s", ErrUnknownType, target)
	}
	switch {
	case err == nil:
		return id, true, nil
	case errors.Is(err, db.ErrNotFound):
		return uuid.Nil, false, nil
	}
	return uuid.Nil, false, persistErr(target, externalID, "lookup", err)
}

type byExternalID[T any] interface {
	GetByExternalID(ctx context.Context, externalID string) (*T, error)
}

func localID[T any](ctx context.Context, r byExternalID[T], externalID string, idOf func(*T) uuid.UUID) (uuid.UUID, error) {
	row, err := r.GetByExternalID(ctx, externalID)
	if err != nil {
		return uuid.Nil, err
	}
	return idOf(row), nil
}
