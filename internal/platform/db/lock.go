package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLocked is returned by TryLock when another session holds the lock.
var ErrLocked = errors.New("advisory lock held by another session")

// AdvisoryLocker hands out session-level Postgres advisory locks keyed by
// name. A lock pins one pooled connection until released.
type AdvisoryLocker struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewAdvisoryLocker(pool *pgxpool.Pool, namespace string) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool, namespace: namespace}
}

// TryLock takes the lock for name without waiting. The returned func
// releases it.
func (l *AdvisoryLocker) TryLock(ctx context.Context, name string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	key := l.namespace + ":" + name
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, ErrLocked
	}

	return func() {
		// unlock on a fresh context so a cancelled run still releases
		_ = unlock(context.Background(), pooledSession{conn}, key)
	}, nil
}

// lockSession is the part of a pooled connection the unlock path needs.
type lockSession interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// Discard closes the connection so it is not handed out again.
	Discard(ctx context.Context)
	Release()
}

type pooledSession struct{ conn *pgxpool.Conn }

func (p pooledSession) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.conn.QueryRow(ctx, sql, args...)
}

func (p pooledSession) Discard(ctx context.Context) { _ = p.conn.Conn().Close(ctx) }

func (p pooledSession) Release() { p.conn.Release() }

// unlock releases key on s and returns the connection to the pool. When the
// release cannot be confirmed the session may still hold the lock, so the
// connection is closed instead of reused.
func unlock(ctx context.Context, s lockSession, key string) error {
	var released bool
	err := s.QueryRow(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key).Scan(&released)
	if err == nil && !released {
		err = fmt.Errorf("advisory lock %s was not held", key)
	}
	if err != nil {
		s.Discard(ctx)
	}
	s.Release()
	return err
}
