// Package postgres backs the docstore port with a jsonb documents table.
// Change notifications ride LISTEN/NOTIFY: every upsert raises a notification
// for its collection and subscriptions re-materialize their query.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/docstore"
)

const changeChannel = "docstore_changes"

type Store struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewStore(pool *pgxpool.Pool, logger *logrus.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// NewPool dials postgres and verifies the connection before returning.
func NewPool(ctx context.Context, dsn string, maxConns, minConns int32, maxConnLife time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLife
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND doc_id = $2
	`, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		WITH upsert AS (
			INSERT INTO documents (collection, doc_id, data, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (collection, doc_id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		)
		SELECT pg_notify($4, $1)
	`, collection, id, raw, changeChannel)
	return err
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	sql := `SELECT data FROM documents WHERE collection = $1`
	args := []any{q.Collection}

	if len(q.Filters) > 0 {
		want := map[string]any{}
		for _, f := range q.Filters {
			want[f.Field] = f.Value
		}
		raw, err := json.Marshal(want)
		if err != nil {
			return nil, err
		}
		args = append(args, raw)
		sql += fmt.Sprintf(" AND data @> $%d", len(args))
	}
	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		sql += fmt.Sprintf(" ORDER BY data->$%d::text", len(args))
		if q.Descending {
			sql += " DESC"
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []docstore.Document{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query) (docstore.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		conn.Release()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		ch:     make(chan []docstore.Document, 1),
		cancel: cancel,
	}

	initial, err := s.Query(ctx, q)
	if err != nil {
		cancel()
		conn.Release()
		return nil, err
	}
	sub.push(initial)

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-subCtx.Done():
		}
	}()

	go func() {
		defer func() {
			conn.Release()
			sub.mu.Lock()
			if !sub.chClosed {
				sub.chClosed = true
				close(sub.ch)
			}
			sub.mu.Unlock()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil && s.logger != nil {
					s.logger.WithError(err).Warn("docstore listener stopped")
				}
				return
			}
			if n.Payload != q.Collection {
				continue
			}
			snap, err := s.Query(subCtx, q)
			if err != nil {
				if s.logger != nil {
					s.logger.WithError(err).Warn("docstore snapshot query failed")
				}
				continue
			}
			sub.push(snap)
		}
	}()
	return sub, nil
}

type subscription struct {
	ch       chan []docstore.Document
	cancel   context.CancelFunc
	once     sync.Once
	mu       sync.Mutex
	chClosed bool
}

func (sub *subscription) Snapshots() <-chan []docstore.Document { return sub.ch }

func (sub *subscription) Close() error {
	sub.once.Do(sub.cancel)
	return nil
}

// push coalesces: an unconsumed snapshot is replaced by the newer one.
func (sub *subscription) push(snap []docstore.Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.chClosed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- snap:
	default:
	}
}
