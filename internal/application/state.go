package application

import (
	"sync"
)

// Snapshot is one observation of a controller's state: the last successfully
// loaded value, the loading flag, and the last failure.
type Snapshot[T any] struct {
	Value   T
	Loading bool
	Err     error
}

// State is an observable (value, isLoading, error) container. Watchers get a
// coalescing channel: an unconsumed snapshot is replaced by the newer one, so
// a slow observer always sees the latest state rather than a backlog.
//
// Writes from concurrent operations are not serialized beyond the mutex; the
// last write wins, matching the layer's ordering guarantees.
type State[T any] struct {
	mu       sync.Mutex
	snap     Snapshot[T]
	watchers map[int]chan Snapshot[T]
	nextID   int
}

func NewState[T any]() *State[T] {
	return &State[T]{watchers: map[int]chan Snapshot[T]{}}
}

func (s *State[T]) Get() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Watch returns a channel of snapshots (current state delivered immediately)
// and a cancel func that releases the watcher.
func (s *State[T]) Watch() (<-chan Snapshot[T], func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot[T], 1)
	s.watchers[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

func (s *State[T]) update(fn func(*Snapshot[T])) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.snap
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// SetValue records a successful load: value replaced, error cleared.
func (s *State[T]) SetValue(v T) {
	s.update(func(snap *Snapshot[T]) {
		snap.Value = v
		snap.Err = nil
	})
}

// Fail records a failure. The last loaded value is retained; stale-but-present
// beats wiped.
func (s *State[T]) Fail(err error) {
	s.update(func(snap *Snapshot[T]) {
		snap.Err = err
	})
}

// BeginLoad raises the loading flag and clears the error. The returned release
// must run on every exit path; callers defer it.
func (s *State[T]) BeginLoad() (release func()) {
	s.update(func(snap *Snapshot[T]) {
		snap.Loading = true
		snap.Err = nil
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			s.update(func(snap *Snapshot[T]) {
				snap.Loading = false
			})
		})
	}
}
