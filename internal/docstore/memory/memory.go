// Package memory provides an in-process docstore adapter. It is the
// authoritative adapter for tests and works for single-node local runs; the
// postgres adapter carries production traffic.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/movemate/movesync/internal/docstore"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Document
	subs        map[*subscription]struct{}
}

func NewStore() *Store {
	return &Store{
		collections: map[string]map[string]docstore.Document{},
		subs:        map[*subscription]struct{}{},
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return clone(doc), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	s.mu.Lock()
	col, ok := s.collections[collection]
	if !ok {
		col = map[string]docstore.Document{}
		s.collections[collection] = col
	}
	col[id] = clone(doc)

	// Re-materialize and push for every live subscription on this collection.
	// Pushing under the lock keeps delivery order aligned with write order, so
	// a coalescing subscriber's final snapshot always reflects the last write.
	for sub := range s.subs {
		if sub.query.Collection == collection {
			sub.push(s.runQuery(sub.query))
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runQuery(q), nil
}

// runQuery must be called with s.mu held.
func (s *Store) runQuery(q docstore.Query) []docstore.Document {
	out := []docstore.Document{}
	for _, doc := range s.collections[q.Collection] {
		if q.Matches(doc) {
			out = append(out, clone(doc))
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][q.OrderBy], out[j][q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query) (docstore.Subscription, error) {
	sub := &subscription{
		store:  s,
		query:  q,
		ch:     make(chan []docstore.Document, 1),
		closed: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	initial := s.runQuery(q)
	s.mu.Unlock()

	sub.push(initial)

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.closed:
			}
		}()
	}
	return sub, nil
}

type subscription struct {
	store  *Store
	query  docstore.Query
	ch     chan []docstore.Document
	once   sync.Once
	closed chan struct{}
	mu     sync.Mutex
}

func (s *Store) detach(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (sub *subscription) Snapshots() <-chan []docstore.Document { return sub.ch }

func (sub *subscription) Close() error {
	sub.once.Do(func() {
		sub.store.detach(sub)
		sub.mu.Lock()
		close(sub.ch)
		close(sub.closed)
		sub.mu.Unlock()
	})
	return nil
}

// push coalesces: an unconsumed snapshot is replaced by the newer one.
func (sub *subscription) push(snap []docstore.Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	select {
	case <-sub.closed:
		return
	default:
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

func clone(doc docstore.Document) docstore.Document {
	out := make(docstore.Document, len(doc))
	for k, v := range doc {
		if arr, ok := v.([]string); ok {
			v = append([]string(nil), arr...)
		}
		out[k] = v
	}
	return out
}

func compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
