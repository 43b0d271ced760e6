package synchronizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

// entity is a pointer to a row type with an explicit merge function.
type entity[T any] interface {
	*T
	Merge(rec mapping.Record) error
}

// repo is the slice of a domain repository the identity resolver needs.
type repo[T any] interface {
	GetByExternalID(ctx context.Context, externalID string) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
}

type upserted struct {
	id      uuid.UUID
	created bool
}

// upsert looks the row up by natural key, merges rec into it (or into a new
// row), applies relate, and writes it back. after runs once the row has its
// id, for association tables.
func upsert[T any, P entity[T]](
	ctx context.Context,
	kind Kind,
	r repo[T],
	rec mapping.Record,
	idOf func(P) uuid.UUID,
	relate func(P),
	after func(context.Context, P) error,
) (upserted, error) {
	ext := rec.ExternalID()

	row, err := r.GetByExternalID(ctx, ext)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		row = new(T)
		created = true
	default:
		return upserted{}, persistErr(kind, ext, "lookup", err)
	}

	p := P(row)
	if err := p.Merge(rec); err != nil {
		return upserted{}, annotate(err, kind, ext)
	}
	if relate != nil {
		relate(p)
	}

	if created {
		err = r.Create(ctx, row)
	} else {
		err = r.Update(ctx, row)
	}
	if err != nil {
		op := "update"
		if created {
			op = "create"
		}
		if db.IsUniqueViolation(err) {
			err = fmt.Errorf("%w: %w", errNaturalKeyConflict, err)
		}
		return upserted{}, persistErr(kind, ext, op, err)
	}

	if after != nil {
		if err := after(ctx, p); err != nil {
			return upserted{}, persistErr(kind, ext, "relations", err)
		}
	}
	return upserted{id: idOf(p), created: created}, nil
}

// dryMerge merges rec into a zero row so conversion errors surface during
// mapping rather than inside a write.
func dryMerge[T any, P entity[T]](rec mapping.Record) error {
	var v T
	return P(&v).Merge(rec)
}

// annotate fills in the resource identity on a mapping error.
func annotate(err error, kind Kind, externalID string) error {
	var me *mapping.Error
	if errors.As(err, &me) {
		if me.ResourceType == "" {
			me.ResourceType = string(kind)
		}
		if me.ExternalID == "" {
			me.ExternalID = externalID
		}
	}
	return err
}
