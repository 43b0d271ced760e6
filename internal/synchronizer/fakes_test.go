package synchronizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/clinical"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/identity"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/cache"
)

// fakeFetcher serves canned resources. Search answers from the collection
// registered for "Type?filter" when there is one, else from "Type".
type fakeFetcher struct {
	mu       sync.Mutex
	data     map[string][]map[string]any
	byID     map[string]map[string]any
	errs     map[string]error
	searches []string
	reads    map[string]int
	onSearch func(resourceType string)
	onRead   func(resourceType, id string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:  make(map[string][]map[string]any),
		byID:  make(map[string]map[string]any),
		errs:  make(map[string]error),
		reads: make(map[string]int),
	}
}

func (f *fakeFetcher) add(resourceType string, resources ...map[string]any) {
	f.addScoped(resourceType, "", resources...)
}

func (f *fakeFetcher) addScoped(resourceType, filter string, resources ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := resourceType
	if filter != "" {
		key += "?" + filter
	}
	f.data[key] = append(f.data[key], resources...)
	for _, r := range resources {
		f.byID[resourceType+"/"+r["id"].(string)] = r
	}
}

// put registers a resource for Read only.
func (f *fakeFetcher) put(resourceType string, r map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[resourceType+"/"+r["id"].(string)] = r
}

func (f *fakeFetcher) failSearch(resourceType string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[resourceType] = err
}

func (f *fakeFetcher) Search(_ context.Context, resourceType, filter string, _ int) ([]map[string]any, error) {
	f.mu.Lock()
	f.searches = append(f.searches, resourceType+"?"+filter)
	hook := f.onSearch
	err := f.errs[resourceType]
	rs, ok := f.data[resourceType+"?"+filter]
	if !ok {
		rs = f.data[resourceType]
	}
	out := append([]map[string]any(nil), rs...)
	f.mu.Unlock()

	if hook != nil {
		hook(resourceType)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeFetcher) Read(_ context.Context, resourceType, id string) (map[string]any, error) {
	f.mu.Lock()
	hook := f.onRead
	f.mu.Unlock()
	if hook != nil {
		hook(resourceType, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[resourceType+"/"+id]++
	r, ok := f.byID[resourceType+"/"+id]
	if !ok {
		return nil, &FetchError{ResourceType: resourceType, URL: "fake://" + resourceType + "/" + id, StatusCode: 404, Err: errors.New("not found")}
	}
	return r, nil
}

func (f *fakeFetcher) readCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[key]
}

// searchedTypes returns the searched types in call order.
func (f *fakeFetcher) searchedTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.searches))
	for i, s := range f.searches {
		out[i], _, _ = strings.Cut(s, "?")
	}
	return out
}

func (f *fakeFetcher) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSource() config.SourceConfig {
	ref := func(path string) string { return path + ".reference | ref" }
	return config.SourceConfig{
		ID:           "test",
		BaseURL:      "http://upstream.test/fhir",
		Organization: "ORG1",
		PageSize:     50,
		Resources: map[string]config.ResourceConfig{
			"Organization": {Fields: map[string]string{
				"externalId": "id", "name": "name", "active": "active",
			}},
			"Patient": {Search: "organization={organization}", Fields: map[string]string{
				"externalId":      "id",
				"firstName":       "name[0].given[0]",
				"lastName":        "name[0].family",
				"gender":          "gender",
				"birthDate":       "birthDate",
				"organizationRef": ref("managingOrganization"),
			}},
			"Practitioner": {Fields: map[string]string{
				"externalId": "id", "firstName": "name[0].given[0]", "lastName": "name[0].family",
			}},
			"Encounter": {Fields: map[string]string{
				"externalId":       "id",
				"status":           "status",
				"patientRef":       ref("subject"),
				"practitionerRefs": ref("participant[*].individual"),
			}},
			"Condition": {Fields: map[string]string{
				"externalId":   "id",
				"codeValue":    "code.coding[0].code",
				"encounterRef": ref("encounter"),
				"patientRef":   ref("subject"),
				"recorderRef":  ref("recorder"),
			}},
			"Observation": {Fields: map[string]string{
				"externalId":    "id",
				"status":        "status",
				"valueQuantity": "valueQuantity.value",
				"encounterRef":  ref("encounter"),
				"patientRef":    ref("subject"),
			}},
			"DiagnosticReport": {Fields: map[string]string{
				"externalId":   "id",
				"status":       "status",
				"encounterRef": ref("encounter"),
				"patientRef":   ref("subject"),
				"performerRef": ref("performer[0]"),
				"resultRefs":   ref("result[*]"),
			}},
			"Procedure": {Fields: map[string]string{
				"externalId":    "id",
				"status":        "status",
				"encounterRef":  ref("encounter"),
				"patientRef":    ref("subject"),
				"performerRefs": ref("performer[*].actor"),
				"reasonRefs":    ref("reasonReference[*]"),
			}},
			"Schedule": {Fields: map[string]string{
				"externalId": "id", "active": "active", "practitionerRef": ref("actor[0]"),
			}},
			"Slot": {Search: "schedule={parent}", Scope: "Schedule", Fields: map[string]string{
				"externalId": "id", "status": "status", "start": "start", "end": "end",
				"scheduleRef": ref("schedule"),
			}},
		},
	}
}

type harness struct {
	sync    *Synchronizer
	fetcher *fakeFetcher
	store   *Store
	clock   *fakeClock
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		fetcher: newFakeFetcher(),
		store:   NewMemoryStore(),
		clock:   &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	opts := Options{
		Source:  testSource(),
		Fetcher: h.fetcher,
		Store:   h.store,
		Cache:   cache.NewMemory(cache.WithClock(h.clock.Now)),
		Workers: 4,
		Logger:  zerolog.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.sync = s
	return h
}

func resource(format string, args ...any) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(fmt.Sprintf(format, args...)), &out); err != nil {
		panic(err)
	}
	return out
}

func refList(resourceType string, ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf(`{"reference":"%s/%s"}`, resourceType, id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func organizationRes(id string) map[string]any {
	return resource(`{"resourceType":"Organization","id":%q,"name":"Riverside Clinic","active":true}`, id)
}

func patientRes(id, family string) map[string]any {
	return resource(`{"resourceType":"Patient","id":%q,"name":[{"given":["Ann"],"family":%q}],
		"gender":"female","birthDate":"1980-02-03","managingOrganization":{"reference":"Organization/ORG1"}}`, id, family)
}

func practitionerRes(id, family string) map[string]any {
	return resource(`{"resourceType":"Practitioner","id":%q,"name":[{"given":["Sam"],"family":%q}]}`, id, family)
}

func encounterRes(id, patient string, practitioners ...string) map[string]any {
	parts := make([]string, len(practitioners))
	for i, p := range practitioners {
		parts[i] = fmt.Sprintf(`{"individual":{"reference":"Practitioner/%s"}}`, p)
	}
	return resource(`{"resourceType":"Encounter","id":%q,"status":"finished",
		"subject":{"reference":"Patient/%s"},"participant":[%s]}`, id, patient, strings.Join(parts, ","))
}

func observationRes(id, enc string, value float64) map[string]any {
	return resource(`{"resourceType":"Observation","id":%q,"status":"final",
		"encounter":{"reference":"Encounter/%s"},"valueQuantity":{"value":%v}}`, id, enc, value)
}

func conditionRes(id, enc string) map[string]any {
	return resource(`{"resourceType":"Condition","id":%q,"code":{"coding":[{"code":"38341003"}]},
		"encounter":{"reference":"Encounter/%s"}}`, id, enc)
}

func reportRes(id, enc string, results ...string) map[string]any {
	return resource(`{"resourceType":"DiagnosticReport","id":%q,"status":"final",
		"encounter":{"reference":"Encounter/%s"},"result":%s}`, id, enc, refList("Observation", results))
}

func procedureRes(id, enc string, reasons ...string) map[string]any {
	return resource(`{"resourceType":"Procedure","id":%q,"status":"completed",
		"encounter":{"reference":"Encounter/%s"},"reasonReference":%s}`, id, enc, refList("Condition", reasons))
}

func scheduleRes(id string) map[string]any {
	return resource(`{"resourceType":"Schedule","id":%q,"active":true}`, id)
}

func slotRes(id, schedule string) map[string]any {
	return resource(`{"resourceType":"Slot","id":%q,"status":"free","start":"2026-03-02T09:00:00Z",
		"end":"2026-03-02T09:30:00Z","schedule":{"reference":"Schedule/%s"}}`, id, schedule)
}

// seedBasics registers ORG1, patient P1 and encounter E1.
func (h *harness) seedBasics() {
	h.fetcher.put("Organization", organizationRes("ORG1"))
	h.fetcher.add("Patient", patientRes("P1", "Lee"))
	h.fetcher.add("Encounter", encounterRes("E1", "P1"))
}

// failingConditions rejects every insert.
type failingConditions struct {
	clinical.ConditionRepository
}

func (failingConditions) Create(context.Context, *clinical.Condition) error {
	return errors.New("disk full")
}

// failingPractitioners rejects every insert.
type failingPractitioners struct {
	identity.PractitionerRepository
}

func (failingPractitioners) Create(context.Context, *identity.Practitioner) error {
	return errors.New("disk full")
}

// racingConditions lets another writer insert the same natural key just
// before the first create, the way a concurrent process would.
type racingConditions struct {
	clinical.ConditionRepository
	mu    sync.Mutex
	raced bool
}

func (r *racingConditions) Create(ctx context.Context, c *clinical.Condition) error {
	r.mu.Lock()
	first := !r.raced
	r.raced = true
	r.mu.Unlock()
	if first {
		if err := r.ConditionRepository.Create(ctx, &clinical.Condition{ExternalID: c.ExternalID}); err != nil {
			return err
		}
	}
	return r.ConditionRepository.Create(ctx, c)
}
