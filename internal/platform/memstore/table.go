// Package memstore holds the in-process storage used by the memory
// repositories. Rows are copied on the way in and out, so callers never share
// state with the table.
package memstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

// ErrDuplicate mirrors a unique constraint violation on the natural key.
var ErrDuplicate = fmt.Errorf("external id: %w", db.ErrDuplicate)

// Table stores rows of T keyed by surrogate id, with a unique index on the
// natural key.
type Table[T any] struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*T
	ext  map[string]uuid.UUID
	key  func(*T) (uuid.UUID, string)
}

// NewTable creates a table. key returns the surrogate id and natural key of
// a row.
func NewTable[T any](key func(*T) (uuid.UUID, string)) *Table[T] {
	return &Table[T]{
		rows: make(map[uuid.UUID]*T),
		ext:  make(map[string]uuid.UUID),
		key:  key,
	}
}

func clone[T any](v *T) *T {
	cp := *v
	return &cp
}

func (t *Table[T]) Insert(v *T) error {
	id, ext := t.key(v)
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ext[ext]; ok {
		return ErrDuplicate
	}
	t.rows[id] = clone(v)
	t.ext[ext] = id
	return nil
}

// Replace overwrites an existing row with the same surrogate id.
func (t *Table[T]) Replace(v *T) error {
	id, ext := t.key(v)
	t.mu.Lock()
	defer t.mu.Unlock()

	old, ok := t.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	if owner, taken := t.ext[ext]; taken && owner != id {
		return ErrDuplicate
	}
	_, oldExt := t.key(old)
	delete(t.ext, oldExt)
	t.rows[id] = clone(v)
	t.ext[ext] = id
	return nil
}

// Modify applies fn to the stored row in place.
func (t *Table[T]) Modify(id uuid.UUID, fn func(*T)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	fn(row)
	return nil
}

func (t *Table[T]) ByID(id uuid.UUID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return clone(row), nil
}

func (t *Table[T]) ByExternalID(ext string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.ext[ext]
	if !ok {
		return nil, db.ErrNotFound
	}
	return clone(t.rows[id]), nil
}

// ExternalIDs returns every natural key in sorted order.
func (t *Table[T]) ExternalIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.ext))
	for ext := range t.ext {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Select returns copies of the rows matching keep, ordered by natural key.
func (t *Table[T]) Select(keep func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exts := make([]string, 0, len(t.ext))
	for ext := range t.ext {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var out []*T
	for _, ext := range exts {
		row := t.rows[t.ext[ext]]
		if keep == nil || keep(row) {
			out = append(out, clone(row))
		}
	}
	return out
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Links is an in-memory many-to-many association, such as encounter
// participants.
type Links struct {
	mu    sync.RWMutex
	links map[uuid.UUID][]uuid.UUID
}

func NewLinks() *Links {
	return &Links{links: make(map[uuid.UUID][]uuid.UUID)}
}

// Replace sets the full target list for owner.
func (l *Links) Replace(owner uuid.UUID, targets []uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links[owner] = append([]uuid.UUID(nil), targets...)
}

func (l *Links) Get(owner uuid.UUID) []uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]uuid.UUID(nil), l.links[owner]...)
}
