package docrepo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/movemate/movesync/internal/docstore"
	"github.com/movemate/movesync/internal/docstore/memory"
	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/internal/identity"
)

// trackingStore wraps a real store and counts calls, optionally injecting
// failures per operation.
type trackingStore struct {
	inner docstore.Store

	mu     sync.Mutex
	sets   int
	getErr error
	setErr error

	detaches int32
}

func newTrackingStore() *trackingStore {
	return &trackingStore{inner: memory.NewStore()}
}

func (s *trackingStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, collection, id)
}

func (s *trackingStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	s.mu.Lock()
	err := s.setErr
	if err == nil {
		s.sets++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, collection, id, doc)
}

func (s *trackingStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	return s.inner.Query(ctx, q)
}

func (s *trackingStore) Subscribe(ctx context.Context, q docstore.Query) (docstore.Subscription, error) {
	sub, err := s.inner.Subscribe(ctx, q)
	if err != nil {
		return nil, err
	}
	return &trackingSub{Subscription: sub, detaches: &s.detaches}, nil
}

func (s *trackingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *trackingStore) failGets(err error) {
	s.mu.Lock()
	s.getErr = err
	s.mu.Unlock()
}

type trackingSub struct {
	docstore.Subscription
	once     sync.Once
	detaches *int32
}

func (s *trackingSub) Close() error {
	s.once.Do(func() { atomic.AddInt32(s.detaches, 1) })
	return s.Subscription.Close()
}

// stepClock returns a clock advancing by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func completeDriver() *entity.Profile {
	return &entity.Profile{
		Name:          "Budi",
		Phone:         "+628111111111",
		City:          "Jakarta",
		Area:          "Kemang",
		TruckType:     "pickup",
		TruckCapacity: "1t",
	}
}

func TestGetOwnProfileFetchOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{ID: "u1"}, entity.KindDriver, nil).
		WithClock(stepClock(time.UnixMilli(1_700_000_000_000).UTC(), time.Second))

	p, err := r.GetOwnProfile(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, "u1", p.SubjectID)
	assert.Equal(t, entity.KindDriver, p.Kind)
	assert.Equal(t, false, p.CreatedAt.IsZero())
	assert.Equal(t, 1, store.setCount())

	// a second read hits the stored document and writes nothing
	p2, err := r.GetOwnProfile(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, p.CreatedAt, p2.CreatedAt)
	assert.Equal(t, 1, store.setCount())
}

func TestGetOwnProfileUnauthenticated(t *testing.T) {
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{}, entity.KindCustomer, nil)

	_, err := r.GetOwnProfile(context.Background())
	assert.Equal(t, repository.ErrUnauthenticated, err)
	assert.Equal(t, 0, store.setCount())
}

func TestSaveProfileValidationWritesNothing(t *testing.T) {
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{ID: "u1"}, entity.KindDriver, nil)

	p := completeDriver()
	p.TruckType = ""
	p.City = ""
	_, err := r.SaveProfile(context.Background(), p)

	var verr *repository.ValidationError
	assert.Equal(t, true, errors.As(err, &verr))
	assert.Equal(t, []string{"truckType", "city"}, verr.Fields)
	assert.Equal(t, 0, store.setCount())
}

func TestSaveProfileRewritesSubjectID(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{ID: "u1"}, entity.KindDriver, nil)

	p := completeDriver()
	p.SubjectID = "someone-else"
	saved, err := r.SaveProfile(ctx, p)
	assert.Equal(t, nil, err)
	assert.Equal(t, "u1", saved.SubjectID)

	// the write landed under the principal's id, not the supplied one
	_, err = store.Get(ctx, entity.KindDriver.Collection(), "u1")
	assert.Equal(t, nil, err)
	_, err = store.Get(ctx, entity.KindDriver.Collection(), "someone-else")
	assert.Equal(t, docstore.ErrNotFound, err)
}

func TestSaveProfilePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{ID: "u1"}, entity.KindCustomer, nil).
		WithClock(stepClock(time.UnixMilli(1_700_000_000_000).UTC(), time.Second))

	first, err := r.SaveProfile(ctx, &entity.Profile{Name: "Sari", Phone: "+628222"})
	assert.Equal(t, nil, err)

	second, err := r.SaveProfile(ctx, first)
	assert.Equal(t, nil, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, true, second.UpdatedAt.After(first.UpdatedAt))
}

func TestSetAvailabilityPersists(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := NewProfileRepository(store, identity.Static{ID: "u1"}, entity.KindDriver, nil)

	_, err := r.SaveProfile(ctx, completeDriver())
	assert.Equal(t, nil, err)

	p, err := r.SetAvailability(ctx, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, p.IsAvailable)

	got, err := r.GetOwnProfile(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got.IsAvailable)
}

func TestActiveListingsFilterIncomplete(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()

	complete := NewProfileRepository(store, identity.Static{ID: "d1"}, entity.KindDriver, nil)
	_, err := complete.SaveProfile(ctx, completeDriver())
	assert.Equal(t, nil, err)

	// a default (incomplete) profile exists but must not be listed
	incomplete := NewProfileRepository(store, identity.Static{ID: "d2"}, entity.KindDriver, nil)
	_, err = incomplete.GetOwnProfile(ctx)
	assert.Equal(t, nil, err)

	listings, err := complete.ActiveListings(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(listings))
	assert.Equal(t, "d1", listings[0].SubjectID)
}

func TestWatchActiveListings(t *testing.T) {
	store := newTrackingStore()
	writer := NewProfileRepository(store, identity.Static{ID: "d1"}, entity.KindDriver, nil)

	ctx, cancel := context.WithCancel(context.Background())
	watcher := NewProfileRepository(store, identity.Static{ID: "viewer"}, entity.KindDriver, nil)
	ch, err := watcher.WatchActiveListings(ctx)
	assert.Equal(t, nil, err)

	// initial snapshot: nothing listed yet
	assert.Equal(t, 0, len(<-ch))

	_, err = writer.SaveProfile(context.Background(), completeDriver())
	assert.Equal(t, nil, err)

	select {
	case listing := <-ch:
		assert.Equal(t, 1, len(listing))
		assert.Equal(t, "d1", listing[0].SubjectID)
	case <-time.After(time.Second):
		t.Fatal("no listing update after write")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.Equal(t, false, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.detaches))

	// a fresh watch starts from the current full set
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	ch2, err := watcher.WatchActiveListings(ctx2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(<-ch2))
}
