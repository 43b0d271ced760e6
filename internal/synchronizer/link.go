package synchronizer

import (
	"context"
	"fmt"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/clinical"
)

// linkSpec describes one cross-link stage: records of Owner declare ids of
// Target in Field, and each target row gets a back-reference to its owner.
type linkSpec struct {
	Owner  Kind
	Target Kind
	Field  string
	apply  func(s *Store) func(ctx context.Context, refs []clinical.BackRef) ([]string, error)
}

var links = map[Kind]linkSpec{
	KindReportResults: {
		Owner:  KindDiagnosticReport,
		Target: KindObservation,
		Field:  "resultRefs",
		apply: func(s *Store) func(context.Context, []clinical.BackRef) ([]string, error) {
			return s.Observations.SetDiagnosticReports
		},
	},
	KindProcedureReasons: {
		Owner:  KindProcedure,
		Target: KindCondition,
		Field:  "reasonRefs",
		apply: func(s *Store) func(context.Context, []clinical.BackRef) ([]string, error) {
			return s.Conditions.SetProcedures
		},
	},
}

// runLink sets the back-references declared by the owner records persisted
// in this run. Ids that match no stored row are counted and warned about;
// only a store failure fails the stage.
func (s *Synchronizer) runLink(ctx context.Context, rc *run, k Kind) error {
	spec := links[k]
	t := rc.trackers[k]

	t.set(StateResolving)
	var refs []clinical.BackRef
	for _, p := range rc.records(spec.Owner) {
		ids, err := p.rec.Refs(spec.Field)
		if err != nil {
			t.warn(p.externalID, annotate(err, spec.Owner, p.externalID).Error())
			continue
		}
		for _, id := range ids {
			refs = append(refs, clinical.BackRef{ExternalID: id, OwnerID: p.id})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	t.set(StatePersisting)
	var missing []string
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		missing, err = spec.apply(s.store)(ctx, refs)
		return err
	})
	if err != nil {
		return persistErr(k, "", "set back-references", err)
	}

	t.update(func(r *TypeResult) {
		r.Linked += len(refs) - len(missing)
		r.Unresolved += len(missing)
	})
	for _, id := range missing {
		t.warn(id, fmt.Sprintf("%s %s/%s not found", spec.Field, spec.Target, id))
	}
	return nil
}
