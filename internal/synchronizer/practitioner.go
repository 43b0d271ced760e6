package synchronizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/identity"
)

// practitionerSnapshot is what the read-through cache stores per
// practitioner. A snapshot younger than the TTL is trusted as is, so a
// practitioner changed upstream is served stale until it expires.
type practitionerSnapshot struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	SyncedAt   time.Time `json:"synced_at"`
}

func (s *Synchronizer) practitionerKey(externalID string) string {
	return "practitioner:" + s.source.ID + ":" + externalID
}

func (s *Synchronizer) cachedPractitioner(ctx context.Context, key string) (uuid.UUID, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		practitionerCache.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("practitioner cache read failed, treating as miss")
		return uuid.Nil, false
	}
	if !ok {
		return uuid.Nil, false
	}
	var snap practitionerSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.ID == uuid.Nil {
		s.log.Warn().Str("key", key).Msg("discarding unreadable practitioner cache entry")
		return uuid.Nil, false
	}
	return snap.ID, true
}

// practitioner resolves a practitioner reference through the read-through
// cache. A miss fetches the practitioner, syncs it into the store and caches
// the snapshot; concurrent misses for one key share a single fetch. Fetch
// and lookup failures leave the reference unset with a warning on t. A store
// failure is returned and marks the practitioner entry of rc failed.
func (s *Synchronizer) practitioner(ctx context.Context, rc *run, t *tracker, from, externalID string) (uuid.UUID, bool, error) {
	key := s.practitionerKey(externalID)
	if id, ok := s.cachedPractitioner(ctx, key); ok {
		practitionerCache.WithLabelValues("hit").Inc()
		return id, true, nil
	}
	practitionerCache.WithLabelValues("miss").Inc()

	v, err, _ := s.flight.Do(key, func() (any, error) {
		// a flight that finished between our read and Do already filled it
		if id, ok := s.cachedPractitioner(ctx, key); ok {
			return id, nil
		}
		return s.refreshPractitioner(ctx, rc, externalID)
	})
	if err == nil {
		return v.(uuid.UUID), true, nil
	}

	var pe *PersistenceError
	if errors.As(err, &pe) {
		rc.practitionerFailed(err)
		return uuid.Nil, false, err
	}

	var fe *FetchError
	if errors.As(err, &fe) && !fe.NotFound() {
		// upstream trouble: a stored copy is better than nothing
		id, found, lerr := s.lookup(ctx, KindPractitioner, externalID)
		if lerr != nil {
			rc.practitionerFailed(lerr)
			return uuid.Nil, false, lerr
		}
		if found {
			t.warn(from, fmt.Sprintf("practitioner %s served from store: %v", externalID, err))
			return id, true, nil
		}
	}
	t.warn(from, fmt.Sprintf("practitioner %s unresolved: %v", externalID, err))
	return uuid.Nil, false, nil
}

// refreshPractitioner fetches one practitioner, upserts it and caches the
// snapshot. Without a Practitioner mapping the store is the only source.
func (s *Synchronizer) refreshPractitioner(ctx context.Context, rc *run, externalID string) (uuid.UUID, error) {
	table, ok := s.tables[KindPractitioner]
	if !ok {
		id, found, err := s.lookup(ctx, KindPractitioner, externalID)
		if err != nil {
			return uuid.Nil, err
		}
		if !found {
			return uuid.Nil, &ReferenceNotFoundError{ResourceType: KindPractitioner, ExternalID: externalID, Field: "practitioner mapping", Target: KindPractitioner, TargetID: externalID}
		}
		return id, nil
	}

	pt := rc.practitioners
	pt.set(StateFetching)
	res, err := s.fetcher.Read(ctx, string(KindPractitioner), externalID)
	if err != nil {
		pt.fail(externalID, err)
		return uuid.Nil, err
	}
	pt.update(func(r *TypeResult) { r.Fetched++ })

	rec, err := table.Apply(res)
	if err == nil && rec.ExternalID() != externalID {
		err = annotate(&MappingError{Field: "externalId", Err: fmt.Errorf("read %s, got %s", externalID, rec.ExternalID())}, KindPractitioner, externalID)
	}
	if err != nil {
		pt.skip(externalID, err)
		return uuid.Nil, err
	}

	up, err := s.persist(ctx, func(ctx context.Context) (upserted, error) {
		return upsert[identity.Practitioner](ctx, KindPractitioner, s.store.Practitioners, rec, practitionerID, nil, nil)
	})
	if err != nil {
		pt.fail(externalID, err)
		return uuid.Nil, err
	}
	pt.update(func(r *TypeResult) {
		if up.created {
			r.Created++
		} else {
			r.Merged++
		}
	})

	snap, _ := json.Marshal(practitionerSnapshot{ID: up.id, ExternalID: externalID, SyncedAt: time.Now().UTC()})
	if err := s.cache.Set(ctx, s.practitionerKey(externalID), snap, s.cacheTTL); err != nil {
		practitionerCache.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("practitioner", externalID).Msg("practitioner cache write failed")
	}
	return up.id, nil
}
