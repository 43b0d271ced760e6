// Package synchronizer pulls clinical resources from one upstream source and
// upserts them into the local store, type by type in dependency order.
package synchronizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/admin"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/cache"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

const DefaultCacheTTL = 10 * time.Minute

// Fetcher reads resources from the upstream API. *upstream.Client
// implements it.
type Fetcher interface {
	Search(ctx context.Context, resourceType, filter string, pageSize int) ([]map[string]any, error)
	Read(ctx context.Context, resourceType, id string) (map[string]any, error)
}

type Options struct {
	Source  config.SourceConfig
	Fetcher Fetcher
	Store   *Store
	// Cache holds practitioner snapshots. Defaults to an in-memory store.
	Cache    cache.Store
	CacheTTL time.Duration
	Workers  int
	// Graph defaults to DefaultGraph.
	Graph  *Graph
	Logger zerolog.Logger
}

// Synchronizer runs sync jobs for a single source. At most one job runs at
// a time.
type Synchronizer struct {
	source   config.SourceConfig
	fetcher  Fetcher
	store    *Store
	cache    cache.Store
	cacheTTL time.Duration
	workers  int
	graph    *Graph
	log      zerolog.Logger

	binds     map[Kind]binding
	tables    map[Kind]*mapping.Table
	resources map[Kind]config.ResourceConfig
	scopes    map[Kind]Kind

	flight singleflight.Group

	mu     sync.Mutex
	active *run
	last   *Result
}

// New compiles the mapping tables of opts.Source. Unknown types, unknown
// target fields, malformed expressions and unusable scopes are reported
// here.
func New(opts Options) (*Synchronizer, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("synchronizer: fetcher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("synchronizer: store is required")
	}

	s := &Synchronizer{
		source:    opts.Source,
		fetcher:   opts.Fetcher,
		store:     opts.Store,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		workers:   opts.Workers,
		graph:     opts.Graph,
		log:       opts.Logger.With().Str("component", "synchronizer").Str("source", opts.Source.ID).Logger(),
		tables:    make(map[Kind]*mapping.Table),
		resources: make(map[Kind]config.ResourceConfig),
		scopes:    make(map[Kind]Kind),
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.graph == nil {
		s.graph = DefaultGraph()
	}
	s.binds = s.bindings()

	for name, rc := range opts.Source.Resources {
		if err := s.compile(name, rc); err != nil {
			return nil, fmt.Errorf("source %s: %w", opts.Source.ID, err)
		}
	}
	return s, nil
}

func (s *Synchronizer) compile(name string, rc config.ResourceConfig) error {
	k, err := ParseKind(name)
	if err != nil {
		return err
	}
	if _, dup := s.tables[k]; dup {
		return fmt.Errorf("%s mapped twice", k)
	}
	if k != KindPractitioner && !s.graph.Has(k) {
		return fmt.Errorf("%s is not part of the dependency graph", k)
	}

	table, err := mapping.NewTable(string(k), rc.Fields, s.binds[k].fields)
	if err != nil {
		return err
	}

	if rc.Scope != "" {
		scope, err := ParseKind(rc.Scope)
		if err != nil {
			return fmt.Errorf("%s scope: %w", k, err)
		}
		if !listable(scope) {
			return fmt.Errorf("%s cannot be scoped by %s", k, scope)
		}
		if !strings.Contains(rc.Search, "{parent}") {
			return fmt.Errorf("%s is scoped by %s but its search has no {parent}", k, scope)
		}
		s.scopes[k] = scope
	}
	if strings.Contains(rc.Search, "{organization}") && s.source.Organization == "" {
		return fmt.Errorf("%s search uses {organization} but the source has none", k)
	}
	if k == KindOrganization && strings.TrimSpace(rc.Search) == "" && s.source.Organization == "" {
		return errors.New("organization stage needs a search or a source organization id")
	}

	s.tables[k] = table
	s.resources[k] = rc
	s.log.Debug().Str("type", string(k)).Strs("fields", table.Fields()).Msg("mapping compiled")
	return nil
}

func (s *Synchronizer) Source() string { return s.source.ID }

// Kinds returns the configured resource types in name order.
func (s *Synchronizer) Kinds() []Kind {
	out := make([]Kind, 0, len(s.tables))
	for k := range s.tables {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Synchronizer) configured(k Kind) bool {
	_, ok := s.tables[k]
	return ok
}

// runnable reports whether stage k has anything to do for this source.
func (s *Synchronizer) runnable(k Kind) bool {
	if k.isLink() {
		return s.configured(links[k].Owner)
	}
	return s.configured(k)
}

// SyncAll runs every configured type in dependency order. Type failures are
// reported in the result; the error is only set when no run took place.
func (s *Synchronizer) SyncAll(ctx context.Context) (*Result, error) {
	return s.execute(ctx, "all", s.graph.Plan(s.runnable))
}

// SyncType runs a single type together with the stages bundled with it
// (Slot with Schedule, cross-links with their owner). Prerequisites are not
// run; references are resolved against what is already stored.
func (s *Synchronizer) SyncType(ctx context.Context, k Kind) (*Result, error) {
	switch {
	case k == KindPractitioner:
		return nil, fmt.Errorf("%w: practitioners are synced on demand", ErrUnknownType)
	case k.isLink() || !s.graph.Has(k):
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, k)
	case !s.configured(k):
		return nil, fmt.Errorf("%w: %s", ErrTypeNotConfigured, k)
	}

	in := map[Kind]bool{}
	for _, b := range s.graph.Bundle(k) {
		if s.runnable(b) {
			in[b] = true
		}
	}
	return s.execute(ctx, string(k), s.graph.Plan(func(x Kind) bool { return in[x] }))
}

func (s *Synchronizer) SyncOrganization(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindOrganization)
}

func (s *Synchronizer) SyncPatients(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindPatient)
}

func (s *Synchronizer) SyncMedications(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindMedication)
}

func (s *Synchronizer) SyncEncounters(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindEncounter)
}

func (s *Synchronizer) SyncConditions(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindCondition)
}

func (s *Synchronizer) SyncMedicationRequests(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindMedicationRequest)
}

func (s *Synchronizer) SyncAppointments(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindAppointment)
}

// SyncSchedules runs Schedule and then Slot.
func (s *Synchronizer) SyncSchedules(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindSchedule)
}

func (s *Synchronizer) SyncSlots(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindSlot)
}

func (s *Synchronizer) SyncObservations(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindObservation)
}

// SyncDiagnosticReports also links each report's results.
func (s *Synchronizer) SyncDiagnosticReports(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindDiagnosticReport)
}

// SyncProcedures also links each procedure's reason conditions.
func (s *Synchronizer) SyncProcedures(ctx context.Context) (*Result, error) {
	return s.SyncType(ctx, KindProcedure)
}

// SyncPractitioner fetches one practitioner, bypassing the cache, and
// refreshes its cache entry.
func (s *Synchronizer) SyncPractitioner(ctx context.Context, externalID string) (*Result, error) {
	if !s.configured(KindPractitioner) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotConfigured, KindPractitioner)
	}
	rc, release, err := s.begin(ctx, string(KindPractitioner)+"/"+externalID, nil)
	if err != nil {
		return nil, err
	}
	defer release()

	_, err, _ = s.flight.Do(s.practitionerKey(externalID), func() (any, error) {
		return s.refreshPractitioner(ctx, rc, externalID)
	})
	rc.practitioners.finish(err)
	return s.finish(ctx, rc), nil
}

// Status is the live view of a source.
type Status struct {
	Source  string  `json:"source"`
	Running bool    `json:"running"`
	Active  *Result `json:"active,omitempty"`
	Last    *Result `json:"last,omitempty"`
}

func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Source: s.source.ID, Last: s.last}
	if s.active != nil {
		st.Running = true
		st.Active = s.active.result()
	}
	return st
}

// Runs lists finished runs of this source, newest first.
func (s *Synchronizer) Runs(ctx context.Context, limit, offset int) ([]*admin.SyncRun, int, error) {
	return s.store.Runs.ListBySource(ctx, s.source.ID, limit, offset)
}

// persisted is one record written by the current run.
type persisted struct {
	id         uuid.UUID
	externalID string
	rec        mapping.Record
}

type run struct {
	id            uuid.UUID
	scope         string
	started       time.Time
	plan          [][]Kind
	trackers      map[Kind]*tracker
	practitioners *tracker

	mu      sync.Mutex
	written map[Kind][]persisted
	// practErr is the first store failure hit while syncing a practitioner.
	practErr error
}

func newRun(scope string, plan [][]Kind) *run {
	rc := &run{
		id:            uuid.New(),
		scope:         scope,
		started:       time.Now().UTC(),
		plan:          plan,
		trackers:      make(map[Kind]*tracker),
		practitioners: newTracker(KindPractitioner),
		written:       make(map[Kind][]persisted),
	}
	for _, tier := range plan {
		for _, k := range tier {
			rc.trackers[k] = newTracker(k)
		}
	}
	return rc
}

// setRecords stores what stage k wrote, in fetch order.
func (rc *run) setRecords(k Kind, out []*persisted) {
	var list []persisted
	for _, p := range out {
		if p != nil {
			list = append(list, *p)
		}
	}
	rc.mu.Lock()
	rc.written[k] = list
	rc.mu.Unlock()
}

func (rc *run) practitionerFailed(err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.practErr == nil {
		rc.practErr = err
	}
}

func (rc *run) practitionerErr() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.practErr
}

func (rc *run) records(k Kind) []persisted {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.written[k]
}

// ran reports whether k is a stage of this run.
func (rc *run) ran(k Kind) bool {
	_, ok := rc.trackers[k]
	return ok
}

func (rc *run) result() *Result {
	res := &Result{RunID: rc.id, Scope: rc.scope, StartedAt: rc.started}
	for _, tier := range rc.plan {
		for _, k := range tier {
			res.Types = append(res.Types, rc.trackers[k].snapshot())
		}
	}
	if rc.practitioners.state() != StatePending {
		res.Types = append(res.Types, rc.practitioners.snapshot())
	}
	return res
}

// begin claims the source for a new run.
func (s *Synchronizer) begin(ctx context.Context, scope string, plan [][]Kind) (*run, func(), error) {
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return nil, nil, ErrSyncInProgress
	}
	rc := newRun(scope, plan)
	s.active = rc
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}

	if s.store.Locker != nil {
		unlock, err := s.store.Locker.TryLock(ctx, s.source.ID)
		if err != nil {
			release()
			if errors.Is(err, db.ErrLocked) {
				return nil, nil, ErrSyncInProgress
			}
			return nil, nil, fmt.Errorf("take run lock: %w", err)
		}
		inner := release
		release = func() {
			unlock()
			inner()
		}
	}

	runsActive.WithLabelValues(s.source.ID).Inc()
	s.log.Info().Str("run_id", rc.id.String()).Str("scope", scope).Msg("sync started")
	return rc, func() {
		runsActive.WithLabelValues(s.source.ID).Dec()
		release()
	}, nil
}

func (s *Synchronizer) execute(ctx context.Context, scope string, plan [][]Kind) (*Result, error) {
	rc, release, err := s.begin(ctx, scope, plan)
	if err != nil {
		return nil, err
	}
	defer release()

	for i, tier := range plan {
		if err := ctx.Err(); err != nil {
			for _, rest := range plan[i:] {
				for _, k := range rest {
					rc.trackers[k].finish(fmt.Errorf("not started: %w", err))
				}
			}
			break
		}

		g := new(errgroup.Group)
		for _, k := range tier {
			k := k
			g.Go(func() error {
				s.runStage(ctx, rc, k)
				return nil
			})
		}
		_ = g.Wait()
	}
	return s.finish(ctx, rc), nil
}

func (s *Synchronizer) runStage(ctx context.Context, rc *run, k Kind) {
	t := rc.trackers[k]
	var err error
	if k.isLink() {
		err = s.runLink(ctx, rc, k)
	} else {
		err = s.runResource(ctx, rc, k)
	}
	t.finish(err)

	r := t.snapshot()
	observeStage(s.source.ID, r, r.Duration)

	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("type", string(k)).
		Str("state", string(r.State)).
		Int("fetched", r.Fetched).
		Int("created", r.Created).
		Int("merged", r.Merged).
		Int("succeeded", r.Succeeded()).
		Int("skipped", r.Skipped).
		Int("failed", r.Failed).
		Dur("duration", r.Duration).
		Msg("stage finished")
}

// runResource drives one resource type through fetch, map, resolve and
// persist. A returned error fails the whole stage; per-resource problems
// are only counted.
func (s *Synchronizer) runResource(ctx context.Context, rc *run, k Kind) error {
	t := rc.trackers[k]
	b := s.binds[k]
	table := s.tables[k]

	t.set(StateFetching)
	raw, err := s.fetch(ctx, rc, k)
	if err != nil {
		return err
	}
	t.update(func(r *TypeResult) { r.Fetched = len(raw) })

	t.set(StateMapping)
	var items []mapping.Record
	index := make(map[string]int, len(raw))
	for _, res := range raw {
		rec, err := table.Apply(res)
		if err == nil {
			err = b.check(rec)
		}
		if err != nil {
			id := resourceID(res)
			t.skip(id, annotate(err, k, id))
			continue
		}
		ext := rec.ExternalID()
		if i, dup := index[ext]; dup {
			items[i] = rec
			t.warn(ext, "duplicate entry in collection, last occurrence kept")
			continue
		}
		index[ext] = len(items)
		items = append(items, rec)
	}

	// Each item is resolved and persisted by one worker call, so an item
	// that was dispatched before a cancellation is always written.
	done := make([]bool, len(items))
	out := make([]*persisted, len(items))
	var persisting sync.Once

	t.set(StateResolving)
	_, err = s.forEach(ctx, len(items), func(ctx context.Context, i int) error {
		done[i] = true
		ext := items[i].ExternalID()
		w, err := b.prepare(ctx, rc, t, items[i])
		if err != nil {
			return classify(t, ext, err)
		}

		persisting.Do(func() { t.set(StatePersisting) })
		up, err := s.persist(ctx, w)
		if err != nil {
			return classify(t, ext, err)
		}
		t.update(func(r *TypeResult) {
			if up.created {
				r.Created++
			} else {
				r.Merged++
			}
		})
		out[i] = &persisted{id: up.id, externalID: ext, rec: items[i]}
		return nil
	})
	rc.setRecords(k, out)
	if err != nil {
		return err
	}

	cancelled := 0
	for _, d := range done {
		if !d {
			cancelled++
		}
	}
	if cancelled > 0 {
		t.update(func(r *TypeResult) { r.Cancelled = cancelled })
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return fmt.Errorf("%d of %d resources not dispatched: %w", cancelled, len(items), cause)
	}
	return nil
}

// persist runs w in a transaction. A create that lost a race on the natural
// key is retried once, which then merges into the row the other writer made.
func (s *Synchronizer) persist(ctx context.Context, w writeFn) (upserted, error) {
	var up upserted
	write := func() error {
		return s.store.Tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			up, err = w(ctx)
			return err
		})
	}
	err := write()
	if errors.Is(err, errNaturalKeyConflict) {
		err = write()
	}
	return up, err
}

// classify counts a per-resource error. Mapping and reference errors only
// drop the resource; anything else is returned to abort the stage.
func classify(t *tracker, externalID string, err error) error {
	var (
		me *MappingError
		re *ReferenceNotFoundError
	)
	switch {
	case errors.As(err, &me):
		t.skip(externalID, err)
		return nil
	case errors.As(err, &re):
		t.fail(externalID, err)
		return nil
	}
	t.fail(externalID, err)
	return err
}

func (s *Synchronizer) fetch(ctx context.Context, rc *run, k Kind) ([]map[string]any, error) {
	cfg := s.resources[k]
	if k == KindOrganization && strings.TrimSpace(cfg.Search) == "" {
		res, err := s.fetcher.Read(ctx, string(k), s.source.Organization)
		if err != nil {
			return nil, err
		}
		return []map[string]any{res}, nil
	}

	filter := strings.ReplaceAll(cfg.Search, "{organization}", url.QueryEscape(s.source.Organization))
	scope, scoped := s.scopes[k]
	if !scoped {
		return s.fetcher.Search(ctx, string(k), filter, s.source.PageSize)
	}

	parents, err := s.parentIDs(ctx, rc, scope)
	if err != nil {
		return nil, persistErr(scope, "", "list", err)
	}
	var out []map[string]any
	for _, p := range parents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.fetcher.Search(ctx, string(k), strings.ReplaceAll(filter, "{parent}", url.QueryEscape(p)), s.source.PageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func listable(k Kind) bool {
	switch k {
	case KindPatient, KindEncounter, KindSchedule:
		return true
	}
	return false
}

// parentIDs returns the external ids a scoped search is issued for: those
// written by this run when the parent type ran, else every stored one.
func (s *Synchronizer) parentIDs(ctx context.Context, rc *run, scope Kind) ([]string, error) {
	if rc.ran(scope) {
		recs := rc.records(scope)
		ids := make([]string, len(recs))
		for i, p := range recs {
			ids[i] = p.externalID
		}
		return ids, nil
	}
	switch scope {
	case KindPatient:
		return s.store.Patients.ListExternalIDs(ctx)
	case KindEncounter:
		return s.store.Encounters.ListExternalIDs(ctx)
	case KindSchedule:
		return s.store.Schedules.ListExternalIDs(ctx)
	}
	return nil, fmt.Errorf("%w: cannot list %s", ErrUnknownType, scope)
}

func resourceID(res map[string]any) string {
	id, _ := res["id"].(string)
	return id
}

// finish closes the run, appends it to the run log and publishes it as the
// last result.
func (s *Synchronizer) finish(ctx context.Context, rc *run) *Result {
	if err := rc.practitionerErr(); err != nil {
		rc.practitioners.finish(err)
	} else if st := rc.practitioners.state(); st != StatePending && st != StateDone && st != StateFailed {
		rc.practitioners.finish(nil)
	}
	if pr := rc.practitioners.snapshot(); pr.State != StatePending {
		observeStage(s.source.ID, pr, pr.Duration)
	}

	res := rc.result()
	res.Source = s.source.ID
	res.FinishedAt = time.Now().UTC()
	status := res.Status()

	body, err := json.Marshal(res)
	if err != nil {
		s.log.Error().Err(err).Msg("encode run result")
		body = []byte("{}")
	}
	entry := &admin.SyncRun{
		ID:         rc.id,
		Source:     s.source.ID,
		Scope:      rc.scope,
		Status:     status,
		StartedAt:  rc.started,
		FinishedAt: res.FinishedAt,
		Result:     body,
	}
	if err := s.store.Runs.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error().Err(err).Str("run_id", rc.id.String()).Msg("failed to record sync run")
	}
	runsTotal.WithLabelValues(s.source.ID, status).Inc()

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.log.Info().
		Str("run_id", rc.id.String()).
		Str("scope", rc.scope).
		Str("status", status).
		Dur("duration", res.FinishedAt.Sub(rc.started)).
		Msg("sync finished")
	return res
}
