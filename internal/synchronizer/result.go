package synchronizer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StatePending    State = "PENDING"
	StateFetching   State = "FETCHING"
	StateMapping    State = "MAPPING"
	StateResolving  State = "RESOLVING_REFERENCES"
	StatePersisting State = "PERSISTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// maxSamples bounds the per-resource issues kept on a TypeResult.
const maxSamples = 50

// ResourceIssue is one skipped resource or one warning.
type ResourceIssue struct {
	ExternalID string `json:"external_id,omitempty"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// TypeResult is the outcome of one stage of a run.
type TypeResult struct {
	Type       Kind            `json:"type"`
	State      State           `json:"state"`
	Fetched    int             `json:"fetched"`
	Created    int             `json:"created"`
	Merged     int             `json:"merged"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Cancelled  int             `json:"cancelled,omitempty"`
	Linked     int             `json:"linked,omitempty"`
	Unresolved int             `json:"unresolved,omitempty"`
	Warnings   int             `json:"warnings"`
	Error      *ErrorSummary   `json:"error,omitempty"`
	Issues     []ResourceIssue `json:"issues,omitempty"`
	Duration   time.Duration   `json:"duration_ns"`
}

// Succeeded is Created+Merged.
func (t *TypeResult) Succeeded() int { return t.Created + t.Merged }

// Result aggregates every stage of one run.
type Result struct {
	RunID      uuid.UUID     `json:"run_id"`
	Source     string        `json:"source"`
	Scope      string        `json:"scope"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Types      []*TypeResult `json:"types"`
}

// Failed reports whether any stage ended FAILED.
func (r *Result) Failed() bool {
	for _, t := range r.Types {
		if t.State == StateFailed {
			return true
		}
	}
	return false
}

func (r *Result) Status() string {
	if r.Failed() {
		return "failed"
	}
	return "succeeded"
}

// Type returns the stage result for k, or nil when k did not run.
func (r *Result) Type(k Kind) *TypeResult {
	for _, t := range r.Types {
		if t.Type == k {
			return t
		}
	}
	return nil
}

// tracker is the live, lock-protected form of a TypeResult.
type tracker struct {
	mu      sync.Mutex
	res     TypeResult
	started time.Time
}

func newTracker(k Kind) *tracker {
	return &tracker{res: TypeResult{Type: k, State: StatePending}}
}

func (t *tracker) set(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		t.started = time.Now()
	}
	t.res.State = s
}

func (t *tracker) state() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.res.State
}

func (t *tracker) update(fn func(r *TypeResult)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.res)
}

func (t *tracker) issue(externalID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.res.Issues) < maxSamples {
		t.res.Issues = append(t.res.Issues, ResourceIssue{ExternalID: externalID, Kind: errorKind(err), Message: err.Error()})
	}
}

// skip counts a resource dropped for a mapping problem.
func (t *tracker) skip(externalID string, err error) {
	t.update(func(r *TypeResult) { r.Skipped++ })
	t.issue(externalID, err)
}

// fail counts a resource dropped for any other reason.
func (t *tracker) fail(externalID string, err error) {
	t.update(func(r *TypeResult) { r.Failed++ })
	t.issue(externalID, err)
}

func (t *tracker) warn(externalID, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.res.Warnings++
	if len(t.res.Issues) < maxSamples {
		t.res.Issues = append(t.res.Issues, ResourceIssue{ExternalID: externalID, Kind: "warning", Message: msg})
	}
}

func (t *tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.res.State = StateFailed
		t.res.Error = summarize(err)
	} else {
		t.res.State = StateDone
	}
	if !t.started.IsZero() {
		t.res.Duration = time.Since(t.started)
	}
}

func (t *tracker) snapshot() *TypeResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := t.res
	cp.Issues = append([]ResourceIssue(nil), t.res.Issues...)
	return &cp
}
