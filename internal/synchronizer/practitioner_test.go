package synchronizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/cache"
)

func TestPractitionerCache_OneFetchPerTTL(t *testing.T) {
	h := newHarness(t)
	h.fetcher.put("Organization", organizationRes("ORG1"))
	h.fetcher.add("Patient", patientRes("P1", "Lee"))
	h.fetcher.add("Encounter", encounterRes("E1", "P1", "DR1"), encounterRes("E2", "P1", "DR1"))
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	ctx := context.Background()

	first := mustSyncAll(t, h)
	if n := h.fetcher.readCount("Practitioner/DR1"); n != 1 {
		t.Fatalf("reads after first run = %d, want 1", n)
	}
	pr := typeResult(t, first, KindPractitioner)
	if pr.Created != 1 || pr.Fetched != 1 {
		t.Errorf("practitioner = %+v, want one fetch and one create", pr)
	}

	dr, err := h.store.Practitioners.GetByExternalID(ctx, "DR1")
	if err != nil {
		t.Fatalf("practitioner: %v", err)
	}
	for _, ext := range []string{"E1", "E2"} {
		e, _ := h.store.Encounters.GetByExternalID(ctx, ext)
		got, _ := h.store.Encounters.GetParticipants(ctx, e.ID)
		if len(got) != 1 || got[0] != dr.ID {
			t.Errorf("%s participants = %v, want [%s]", ext, got, dr.ID)
		}
	}

	// within the TTL the snapshot is served as is
	h.clock.Advance(9 * time.Minute)
	second := mustSyncAll(t, h)
	if n := h.fetcher.readCount("Practitioner/DR1"); n != 1 {
		t.Errorf("reads within TTL = %d, want 1", n)
	}
	if second.Type(KindPractitioner) != nil {
		t.Error("practitioner stage should not appear when every lookup hit the cache")
	}

	h.clock.Advance(2 * time.Minute)
	third := mustSyncAll(t, h)
	if n := h.fetcher.readCount("Practitioner/DR1"); n != 2 {
		t.Errorf("reads after expiry = %d, want 2", n)
	}
	if pr := typeResult(t, third, KindPractitioner); pr.Merged != 1 || pr.Created != 0 {
		t.Errorf("practitioner after expiry = %+v, want one merge", pr)
	}
}

func TestPractitionerCache_StaleWithinTTL(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Encounter", encounterRes("E2", "P1", "DR1"))
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	ctx := context.Background()

	mustSyncAll(t, h)
	h.fetcher.put("Practitioner", practitionerRes("DR1", "Wilson"))
	mustSyncAll(t, h)

	dr, _ := h.store.Practitioners.GetByExternalID(ctx, "DR1")
	if dr.LastName != "House" {
		t.Errorf("last name = %q, upstream change must not show before expiry", dr.LastName)
	}

	h.clock.Advance(DefaultCacheTTL)
	mustSyncAll(t, h)
	dr, _ = h.store.Practitioners.GetByExternalID(ctx, "DR1")
	if dr.LastName != "Wilson" {
		t.Errorf("last name = %q after expiry, want Wilson", dr.LastName)
	}
}

func TestPractitioner_UnknownLeavesReferenceUnset(t *testing.T) {
	h := newHarness(t)
	h.seedBasics()
	h.fetcher.add("Encounter", encounterRes("E2", "P1", "GHOST"))
	ctx := context.Background()

	res := mustSyncAll(t, h)
	enc := typeResult(t, res, KindEncounter)
	if enc.Created != 2 || enc.Warnings != 1 {
		t.Errorf("encounter = %+v, want both created with one warning", enc)
	}
	pr := typeResult(t, res, KindPractitioner)
	if pr.Failed != 1 || pr.State != StateDone {
		t.Errorf("practitioner = %+v, want one failed fetch", pr)
	}

	e, _ := h.store.Encounters.GetByExternalID(ctx, "E2")
	if got, _ := h.store.Encounters.GetParticipants(ctx, e.ID); len(got) != 0 {
		t.Errorf("participants = %v, want none", got)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestPractitioner_CacheFailureIsAMiss(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Cache = brokenCache{} })
	h.seedBasics()
	h.fetcher.add("Encounter", encounterRes("E2", "P1", "DR1"))
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	ctx := context.Background()

	res := mustSyncAll(t, h)
	if res.Failed() {
		t.Fatalf("run failed: %+v", res.Types)
	}
	e, _ := h.store.Encounters.GetByExternalID(ctx, "E2")
	if got, _ := h.store.Encounters.GetParticipants(ctx, e.ID); len(got) != 1 {
		t.Errorf("participants = %v, want the practitioner", got)
	}
}

func TestSyncPractitioner_BypassesCache(t *testing.T) {
	h := newHarness(t)
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := h.sync.SyncPractitioner(ctx, "DR1")
		if err != nil {
			t.Fatalf("SyncPractitioner: %v", err)
		}
		if res.Failed() {
			t.Fatalf("run failed: %+v", res.Types)
		}
	}
	if n := h.fetcher.readCount("Practitioner/DR1"); n != 2 {
		t.Errorf("reads = %d, want 2", n)
	}

	res, err := h.sync.SyncPractitioner(ctx, "NOPE")
	if err != nil {
		t.Fatalf("SyncPractitioner: %v", err)
	}
	pr := typeResult(t, res, KindPractitioner)
	if pr.State != StateFailed || pr.Error == nil || pr.Error.Kind != ErrKindFetch || pr.Error.Retryable {
		t.Errorf("missing practitioner = %+v, want a terminal fetch failure", pr)
	}
}

func TestPractitioner_StoreFallbackOnUpstreamOutage(t *testing.T) {
	h := newHarness(t)
	h.fetcher.put("Practitioner", practitionerRes("DR1", "House"))
	ctx := context.Background()
	if _, err := h.sync.SyncPractitioner(ctx, "DR1"); err != nil {
		t.Fatalf("SyncPractitioner: %v", err)
	}

	// new cache, practitioner still stored, upstream down
	h2 := newHarness(t, func(o *Options) {
		o.Store = h.store
		o.Cache = cache.NewMemory()
		o.Fetcher = outage{}
	})
	rc := newRun("test", nil)
	id, ok, err := h2.sync.practitioner(ctx, rc, rc.practitioners, "E1", "DR1")
	if err != nil || !ok {
		t.Fatalf("expected the stored practitioner, got ok=%v err=%v", ok, err)
	}
	stored, _ := h.store.Practitioners.GetByExternalID(ctx, "DR1")
	if id != stored.ID {
		t.Errorf("id = %s, want %s", id, stored.ID)
	}
	if rc.practitioners.snapshot().Warnings != 1 {
		t.Error("serving from the store should leave a warning")
	}
}

type outage struct{}

func (outage) Search(context.Context, string, string, int) ([]map[string]any, error) {
	return nil, &FetchError{StatusCode: 503, Retryable: true, Err: errors.New("down")}
}

func (outage) Read(_ context.Context, resourceType, _ string) (map[string]any, error) {
	return nil, &FetchError{ResourceType: resourceType, StatusCode: 503, Retryable: true, Err: errors.New("down")}
}
