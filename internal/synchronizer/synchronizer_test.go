package synchronizer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

func mustSyncAll(t *testing.T, h *harness) *Result {
	t.Helper()
	res, err := h.sync.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	return res
}

func typeResult(t *testing.T, res *Result, k Kind) *TypeResult {
	t.Helper()
	tr := res.Type(k)
	if tr == nil {
		t.Fatalf("no result for %s", k)
	}
	return tr
}

func TestSyncAll_IdempotentReSync(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Observation", observationRes("O1", "E1", 7.2))
	ctx := context.Background()

	first := mustSyncAll(t, h)
	if first.Failed() {
		t.Fatalf("first run failed: %+v", first.Types)
	}
	for _, k := range []Kind{KindOrganization, KindPatient, KindEncounter, KindObservation} {
		if tr := typeResult(t, first, k); tr.Created != 1 || tr.Merged != 0 {
			t.Errorf("%s: created=%d merged=%d, want 1/0", k, tr.Created, tr.Merged)
		}
	}
	enc1, err := h.store.Encounters.GetByExternalID(ctx, "E1")
	if err != nil {
		t.Fatalf("encounter E1: %v", err)
	}

	second := mustSyncAll(t, h)
	for _, k := range []Kind{KindOrganization, KindPatient, KindEncounter, KindObservation} {
		if tr := typeResult(t, second, k); tr.Created != 0 || tr.Merged != 1 {
			t.Errorf("%s re-sync: created=%d merged=%d, want 0/1", k, tr.Created, tr.Merged)
		}
	}
	enc2, err := h.store.Encounters.GetByExternalID(ctx, "E1")
	if err != nil {
		t.Fatalf("encounter E1 after re-sync: %v", err)
	}
	if enc1.ID != enc2.ID {
		t.Errorf("surrogate key changed across re-sync: %s -> %s", enc1.ID, enc2.ID)
	}
	if ids, _ := h.store.Patients.ListExternalIDs(ctx); !reflect.DeepEqual(ids, []string{"P1"}) {
		t.Errorf("patients = %v, want [P1]", ids)
	}
}

func TestSyncAll_LinksRelations(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Observation", observationRes("O1", "E1", 5))
	ctx := context.Background()

	mustSyncAll(t, h)

	org, _ := h.store.Organizations.GetByExternalID(ctx, "ORG1")
	p, _ := h.store.Patients.GetByExternalID(ctx, "P1")
	e, _ := h.store.Encounters.GetByExternalID(ctx, "E1")
	o, err := h.store.Observations.GetByExternalID(ctx, "O1")
	if err != nil {
		t.Fatalf("observation: %v", err)
	}
	if p.OrganizationID == nil || *p.OrganizationID != org.ID {
		t.Errorf("patient organization = %v, want %s", p.OrganizationID, org.ID)
	}
	if e.PatientID != p.ID {
		t.Errorf("encounter patient = %s, want %s", e.PatientID, p.ID)
	}
	if o.EncounterID != e.ID {
		t.Errorf("observation encounter = %s, want %s", o.EncounterID, e.ID)
	}
	// no subject on the observation: patient comes from the encounter
	if o.PatientID != p.ID {
		t.Errorf("observation patient = %s, want %s", o.PatientID, p.ID)
	}
	if o.ValueQuantity == nil || *o.ValueQuantity != 5 {
		t.Errorf("value = %v, want 5", o.ValueQuantity)
	}
}

func TestSyncAll_P1E1E2Resync(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	ctx := context.Background()

	mustSyncAll(t, h)
	h.fetcher.add("Encounter", encounterRes("E2", "P1"))
	res := mustSyncAll(t, h)

	if tr := typeResult(t, res, KindPatient); tr.Merged != 1 || tr.Created != 0 {
		t.Errorf("patient: created=%d merged=%d, want 0/1", tr.Created, tr.Merged)
	}
	if tr := typeResult(t, res, KindEncounter); tr.Merged != 1 || tr.Created != 1 {
		t.Errorf("encounter: created=%d merged=%d, want 1/1", tr.Created, tr.Merged)
	}

	p, _ := h.store.Patients.GetByExternalID(ctx, "P1")
	for _, ext := range []string{"E1", "E2"} {
		e, err := h.store.Encounters.GetByExternalID(ctx, ext)
		if err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
		if e.PatientID != p.ID {
			t.Errorf("%s patient = %s, want %s", ext, e.PatientID, p.ID)
		}
	}
	if ids, _ := h.store.Patients.ListExternalIDs(ctx); len(ids) != 1 {
		t.Errorf("patients = %v, want exactly P1", ids)
	}
}

func TestSyncAll_UnsyncedEncounterSkipsOnlyThatObservation(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Observation", observationRes("O1", "E1", 1), observationRes("O2", "E9", 2))
	ctx := context.Background()

	res := mustSyncAll(t, h)
	obs := typeResult(t, res, KindObservation)
	if obs.State != StateDone {
		t.Errorf("state = %s, want DONE", obs.State)
	}
	if obs.Created != 1 || obs.Failed != 1 {
		t.Errorf("created=%d failed=%d, want 1/1", obs.Created, obs.Failed)
	}
	if len(obs.Issues) != 1 || obs.Issues[0].Kind != ErrKindReference || obs.Issues[0].ExternalID != "O2" {
		t.Errorf("issues = %+v", obs.Issues)
	}
	if _, err := h.store.Observations.GetByExternalID(ctx, "O2"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("O2 should not be stored, got %v", err)
	}
	if res.Failed() {
		t.Error("a skipped resource must not fail the run")
	}
}

func TestSyncAll_MappingErrorSkipsResource(t *testing.T) {
	h := newHarness(t)
	h.fetcher.put("Organization", organizationRes("ORG1"))
	bad := patientRes("P2", "Doe")
	bad["birthDate"] = "sometime in spring"
	h.fetcher.add("Patient", patientRes("P1", "Lee"), bad)

	res := mustSyncAll(t, h)
	tr := typeResult(t, res, KindPatient)
	if tr.Created != 1 || tr.Skipped != 1 {
		t.Errorf("created=%d skipped=%d, want 1/1", tr.Created, tr.Skipped)
	}
	if len(tr.Issues) != 1 || tr.Issues[0].Kind != ErrKindMapping {
		t.Errorf("issues = %+v", tr.Issues)
	}
	if tr.State != StateDone {
		t.Errorf("state = %s", tr.State)
	}
}

func TestSyncAll_DuplicateEntriesCollapsed(t *testing.T) {
	h := newHarness(t)
	h.fetcher.put("Organization", organizationRes("ORG1"))
	h.fetcher.add("Patient", patientRes("P1", "Old"), patientRes("P2", "Kim"), patientRes("P1", "New"))
	ctx := context.Background()

	res := mustSyncAll(t, h)
	tr := typeResult(t, res, KindPatient)
	if tr.Fetched != 3 || tr.Created != 2 || tr.Warnings != 1 {
		t.Errorf("fetched=%d created=%d warnings=%d, want 3/2/1", tr.Fetched, tr.Created, tr.Warnings)
	}
	p, _ := h.store.Patients.GetByExternalID(ctx, "P1")
	if p.LastName != "New" {
		t.Errorf("last name = %q, want the last occurrence", p.LastName)
	}
}

func TestSyncAll_DependencyOrder(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Schedule", scheduleRes("S1"))
	h.fetcher.addScoped("Slot", "schedule=S1", slotRes("SL1", "S1"))

	mustSyncAll(t, h)

	tierOf := map[string]int{}
	for i, tier := range DefaultGraph().Plan(everyNode) {
		for _, k := range tier {
			tierOf[string(k)] = i
		}
	}
	last := -1
	for _, typ := range h.fetcher.searchedTypes() {
		tier := tierOf[typ]
		if tier < last {
			t.Fatalf("%s searched after a later tier: %v", typ, h.fetcher.searchedTypes())
		}
		last = tier
	}

	searched := strings.Join(h.fetcher.searched(), " ")
	for _, want := range []string{"Patient?organization=ORG1", "Slot?schedule=S1"} {
		if !strings.Contains(searched, want) {
			t.Errorf("missing search %q in %s", want, searched)
		}
	}
}

func TestSyncAll_FetchErrorFailsOnlyThatType(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("DiagnosticReport", reportRes("R1", "E1"))
	h.fetcher.failSearch("Observation", &FetchError{ResourceType: "Observation", StatusCode: 503, Retryable: true, Err: errors.New("unavailable")})

	res := mustSyncAll(t, h)
	obs := typeResult(t, res, KindObservation)
	if obs.State != StateFailed || obs.Error == nil {
		t.Fatalf("observation = %+v, want FAILED with error", obs)
	}
	if obs.Error.Kind != ErrKindFetch || !obs.Error.Retryable {
		t.Errorf("error = %+v, want retryable fetch error", obs.Error)
	}
	if dr := typeResult(t, res, KindDiagnosticReport); dr.State != StateDone || dr.Created != 1 {
		t.Errorf("sibling diagnostic report = %+v", dr)
	}
	if link := typeResult(t, res, KindReportResults); link.State != StateDone {
		t.Errorf("link stage = %s, want DONE after a failed prerequisite", link.State)
	}
	if !res.Failed() || res.Status() != "failed" {
		t.Error("run should report failure")
	}
}

func TestSyncAll_PersistenceErrorAbortsType(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Condition", conditionRes("C1", "E1"), conditionRes("C2", "E1"))
	h.store.Conditions = failingConditions{h.store.Conditions}

	res := mustSyncAll(t, h)
	tr := typeResult(t, res, KindCondition)
	if tr.State != StateFailed || tr.Error == nil || tr.Error.Kind != ErrKindPersistence {
		t.Errorf("condition = %+v, want FAILED persistence", tr)
	}
	if enc := typeResult(t, res, KindEncounter); enc.State != StateDone {
		t.Errorf("encounter = %s", enc.State)
	}
}

func TestSyncAll_PractitionerStoreFailureAbortsType(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Encounter", encounterRes("E2", "P1", "DR1"))
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	h.store.Practitioners = failingPractitioners{h.store.Practitioners}
	ctx := context.Background()

	res := mustSyncAll(t, h)
	enc := typeResult(t, res, KindEncounter)
	if enc.State != StateFailed || enc.Error == nil || enc.Error.Kind != ErrKindPersistence {
		t.Errorf("encounter = %+v, want FAILED persistence", enc)
	}
	pr := typeResult(t, res, KindPractitioner)
	if pr.State != StateFailed || pr.Error == nil || pr.Error.Kind != ErrKindPersistence {
		t.Errorf("practitioner = %+v, want FAILED persistence", pr)
	}
	if _, err := h.store.Encounters.GetByExternalID(ctx, "E2"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("E2 must not be stored without its participant, got err=%v", err)
	}
	if res.Status() != "failed" {
		t.Errorf("status = %s, want failed", res.Status())
	}
}

func TestSyncAll_NaturalKeyRaceMerges(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Condition", conditionRes("C1", "E1"))
	h.store.Conditions = &racingConditions{ConditionRepository: h.store.Conditions}

	res := mustSyncAll(t, h)
	tr := typeResult(t, res, KindCondition)
	if tr.State != StateDone || tr.Created != 0 || tr.Merged != 1 || tr.Failed != 0 {
		t.Errorf("condition = %+v, want one merge after the conflicting create", tr)
	}
	c, err := h.store.Conditions.GetByExternalID(context.Background(), "C1")
	if err != nil {
		t.Fatalf("C1: %v", err)
	}
	if c.CodeValue == nil || *c.CodeValue != "38341003" {
		t.Errorf("code = %v, the retry must merge the mapped fields", c.CodeValue)
	}
}

func TestSyncAll_CrossLinks(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Observation", observationRes("O1", "E1", 1), observationRes("O2", "E1", 2))
	h.fetcher.add("DiagnosticReport", reportRes("R1", "E1", "O1", "O2", "O404"))
	h.fetcher.add("Condition", conditionRes("C1", "E1"))
	h.fetcher.add("Procedure", procedureRes("PR1", "E1", "C1"))
	ctx := context.Background()

	res := mustSyncAll(t, h)
	link := typeResult(t, res, KindReportResults)
	if link.Linked != 2 || link.Unresolved != 1 || link.State != StateDone {
		t.Errorf("report links = %+v, want 2 linked, 1 unresolved", link)
	}

	r, _ := h.store.DiagnosticReports.GetByExternalID(ctx, "R1")
	linked, err := h.store.Observations.ListByDiagnosticReport(ctx, r.ID)
	if err != nil || len(linked) != 2 {
		t.Fatalf("observations of R1 = %d (%v), want 2", len(linked), err)
	}

	proc, _ := h.store.Procedures.GetByExternalID(ctx, "PR1")
	c, _ := h.store.Conditions.GetByExternalID(ctx, "C1")
	if c.ProcedureID == nil || *c.ProcedureID != proc.ID {
		t.Errorf("condition procedure = %v, want %s", c.ProcedureID, proc.ID)
	}

	// a re-sync converges to the same links
	mustSyncAll(t, h)
	again, _ := h.store.Observations.ListByDiagnosticReport(ctx, r.ID)
	if len(again) != 2 {
		t.Errorf("after re-sync %d observations linked, want 2", len(again))
	}
}

func TestSyncType_RunsBundledStages(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Schedule", scheduleRes("S1"))
	h.fetcher.addScoped("Slot", "schedule=S1", slotRes("SL1", "S1"))
	ctx := context.Background()

	res, err := h.sync.SyncSchedules(ctx)
	if err != nil {
		t.Fatalf("SyncSchedules: %v", err)
	}
	var kinds []Kind
	for _, tr := range res.Types {
		kinds = append(kinds, tr.Type)
	}
	if !reflect.DeepEqual(kinds, []Kind{KindSchedule, KindSlot}) {
		t.Errorf("stages = %v, want Schedule then Slot", kinds)
	}

	slot, err := h.store.Slots.GetByExternalID(ctx, "SL1")
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	sched, _ := h.store.Schedules.GetByExternalID(ctx, "S1")
	if slot.ScheduleID != sched.ID {
		t.Errorf("slot schedule = %s, want %s", slot.ScheduleID, sched.ID)
	}

	// SyncSlots alone takes its parents from the store
	h.fetcher.addScoped("Slot", "schedule=S1", slotRes("SL2", "S1"))
	if res, err = h.sync.SyncSlots(ctx); err != nil {
		t.Fatalf("SyncSlots: %v", err)
	}
	if tr := typeResult(t, res, KindSlot); tr.Created != 1 || tr.Merged != 1 {
		t.Errorf("slots created=%d merged=%d, want 1/1", tr.Created, tr.Merged)
	}
}

func TestSyncType_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		kind Kind
		want error
	}{
		{KindReportResults, ErrUnknownType},
		{Kind("Spaceship"), ErrUnknownType},
		{KindPractitioner, ErrUnknownType},
		{KindMedication, ErrTypeNotConfigured},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if _, err := h.sync.SyncType(ctx, tt.kind); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSyncAll_RejectsConcurrentRun(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.fetcher.onSearch = func(resourceType string) {
		if resourceType == string(KindPatient) {
			once.Do(func() { close(started) })
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.sync.SyncAll(context.Background())
		done <- err
	}()
	<-started

	if _, err := h.sync.SyncAll(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("second SyncAll err = %v, want ErrSyncInProgress", err)
	}
	if _, err := h.sync.SyncPatients(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("SyncPatients err = %v, want ErrSyncInProgress", err)
	}
	st := h.sync.Status()
	if !st.Running || st.Active == nil {
		t.Fatalf("status = %+v, want a running run", st)
	}
	if tr := st.Active.Type(KindPatient); tr == nil || tr.State != StateFetching {
		t.Errorf("live patient state = %+v, want FETCHING", tr)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if st := h.sync.Status(); st.Running || st.Last == nil {
		t.Errorf("status after run = %+v", st)
	}
}

type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string) (func(), error) { return nil, db.ErrLocked }

func TestSyncAll_LockHeldElsewhere(t *testing.T) {
	h := newHarness(t)
	h.store.Locker = heldLocker{}

	if _, err := h.sync.SyncAll(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("err = %v, want ErrSyncInProgress", err)
	}
	// the in-process guard must be released again
	h.store.Locker = nil
	if _, err := h.sync.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll after lock release: %v", err)
	}
}

func TestSyncAll_Cancellation(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Patient", patientRes("P2", "Kim"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fetcher.onSearch = func(resourceType string) {
		if resourceType == string(KindPatient) {
			cancel()
		}
	}

	res, err := h.sync.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if org := typeResult(t, res, KindOrganization); org.State != StateDone {
		t.Errorf("organization = %s, want DONE", org.State)
	}
	p := typeResult(t, res, KindPatient)
	if p.State != StateFailed || p.Cancelled != 2 || p.Error == nil || p.Error.Kind != ErrKindCancelled {
		t.Errorf("patient = %+v, want FAILED with 2 cancelled", p)
	}
	enc := typeResult(t, res, KindEncounter)
	if enc.State != StateFailed || enc.Error == nil || enc.Error.Kind != ErrKindCancelled {
		t.Errorf("encounter = %+v, want FAILED as cancelled", enc)
	}
	for _, s := range h.fetcher.searchedTypes() {
		if s == string(KindEncounter) {
			t.Error("no stage may start after cancellation")
		}
	}

	runs, total, err := h.sync.Runs(context.Background(), 10, 0)
	if err != nil || total != 1 || runs[0].Status != "failed" {
		t.Errorf("run log = %v total=%d err=%v", runs, total, err)
	}
}

func TestSyncAll_CancellationDuringResolution(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Workers = 1 })
	h.fetcher.put("Organization", organizationRes("ORG1"))
	h.fetcher.add("Patient", patientRes("P1", "Lee"))
	h.fetcher.add("Encounter", encounterRes("E1", "P1", "DR1"), encounterRes("E2", "P1"))
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fetcher.onRead = func(resourceType, _ string) {
		if resourceType == string(KindPractitioner) {
			cancel()
		}
	}

	res, err := h.sync.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	enc := typeResult(t, res, KindEncounter)
	if enc.State != StateFailed || enc.Created != 1 || enc.Cancelled != 1 {
		t.Errorf("encounter = %+v, want E1 written and E2 cancelled", enc)
	}

	// E1 was in flight when the run was cancelled: it must be fully written
	bg := context.Background()
	e1, err := h.store.Encounters.GetByExternalID(bg, "E1")
	if err != nil {
		t.Fatalf("E1 not stored: %v", err)
	}
	dr, err := h.store.Practitioners.GetByExternalID(bg, "DR1")
	if err != nil {
		t.Fatalf("DR1: %v", err)
	}
	if got, _ := h.store.Encounters.GetParticipants(bg, e1.ID); len(got) != 1 || got[0] != dr.ID {
		t.Errorf("E1 participants = %v, want [%s]", got, dr.ID)
	}
	if _, err := h.store.Encounters.GetByExternalID(bg, "E2"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("E2 should not have been dispatched, got err=%v", err)
	}
}

func TestSyncAll_RecordsRuns(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()

	mustSyncAll(t, h)
	if _, err := h.sync.SyncEncounters(context.Background()); err != nil {
		t.Fatalf("SyncEncounters: %v", err)
	}

	runs, total, err := h.sync.Runs(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if total != 2 || len(runs) != 2 {
		t.Fatalf("total=%d len=%d, want 2", total, len(runs))
	}
	scopes := map[string]bool{}
	for _, r := range runs {
		scopes[r.Scope] = true
		if r.Source != "test" || r.Status != "succeeded" || len(r.Result) == 0 {
			t.Errorf("run = %+v", r)
		}
	}
	if !scopes["all"] || !scopes["Encounter"] {
		t.Errorf("scopes = %v", scopes)
	}
}

func TestNew_RejectsBadMappings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(src *config.SourceConfig)
		want   string
	}{
		{
			name: "unknown type",
			mutate: func(src *config.SourceConfig) {
				src.Resources["Spaceship"] = config.ResourceConfig{Fields: map[string]string{"externalId": "id"}}
			},
			want: "unknown resource type",
		},
		{
			name: "unknown target field",
			mutate: func(src *config.SourceConfig) {
				src.Resources["Patient"].Fields["shoeSize"] = "extension[0].valueInteger"
			},
			want: "unknown target field",
		},
		{
			name: "malformed expression",
			mutate: func(src *config.SourceConfig) {
				src.Resources["Patient"].Fields["gender"] = "name[0"
			},
			want: "malformed",
		},
		{
			name: "scope without listable parent",
			mutate: func(src *config.SourceConfig) {
				src.Resources["Condition"] = config.ResourceConfig{
					Search: "x={parent}", Scope: "Observation",
					Fields: map[string]string{"externalId": "id"},
				}
			},
			want: "cannot be scoped",
		},
		{
			name: "scope without placeholder",
			mutate: func(src *config.SourceConfig) {
				src.Resources["Encounter"] = config.ResourceConfig{
					Search: "status=finished", Scope: "Patient",
					Fields: map[string]string{"externalId": "id"},
				}
			},
			want: "no {parent}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testSource()
			tt.mutate(&src)
			_, err := New(Options{Source: src, Fetcher: newFakeFetcher(), Store: NewMemoryStore()})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSyncAll_ScopedEncounters(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Source.Resources["Encounter"] = config.ResourceConfig{
			Search: "patient={parent}",
			Scope:  "Patient",
			Fields: map[string]string{"externalId": "id", "status": "status", "patientRef": "subject.reference | ref"},
		}
	})
	h.fetcher.put("Organization", organizationRes("ORG1"))
	h.fetcher.add("Patient", patientRes("P1", "Lee"), patientRes("P2", "Kim"))
	h.fetcher.addScoped("Encounter", "patient=P1", encounterRes("E1", "P1"))
	h.fetcher.addScoped("Encounter", "patient=P2", encounterRes("E2", "P2"), encounterRes("E3", "P2"))

	res := mustSyncAll(t, h)
	if tr := typeResult(t, res, KindEncounter); tr.Created != 3 {
		t.Errorf("encounters created = %d, want 3", tr.Created)
	}
	searched := strings.Join(h.fetcher.searched(), " ")
	for _, want := range []string{"Encounter?patient=P1", "Encounter?patient=P2"} {
		if !strings.Contains(searched, want) {
			t.Errorf("missing %q in %s", want, searched)
		}
	}
}

func TestSyncAll_StageDurationsRecorded(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()

	res := mustSyncAll(t, h)
	if res.FinishedAt.Before(res.StartedAt) {
		t.Errorf("finished %v before started %v", res.FinishedAt, res.StartedAt)
	}
	for _, tr := range res.Types {
		if tr.State == StateDone && tr.Duration < 0 {
			t.Errorf("%s duration %v", tr.Type, tr.Duration)
		}
	}
	if time.Since(res.StartedAt) > time.Minute {
		t.Error("run start looks wrong")
	}
}
