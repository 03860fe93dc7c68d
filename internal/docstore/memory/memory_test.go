package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/movemate/movesync/internal/docstore"
)

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.Get(ctx, "profiles", "a")
	assert.Equal(t, docstore.ErrNotFound, err)

	doc := docstore.Document{"name": "alice", "rating": 4.5}
	err = store.Set(ctx, "profiles", "a", doc)
	assert.Equal(t, nil, err)

	got, err := store.Get(ctx, "profiles", "a")
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", got["name"])

	// stored documents are isolated from caller mutation
	doc["name"] = "mallory"
	got, _ = store.Get(ctx, "profiles", "a")
	assert.Equal(t, "alice", got["name"])
}

func TestQueryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for i, id := range []string{"r1", "r2", "r3"} {
		_ = store.Set(ctx, "reviews", id, docstore.Document{
			"id":        id,
			"subjectId": "d1",
			"createdAt": int64(100 + i),
		})
	}
	_ = store.Set(ctx, "reviews", "other", docstore.Document{
		"id":        "other",
		"subjectId": "d2",
		"createdAt": int64(999),
	})

	docs, err := store.Query(ctx, docstore.Query{
		Collection: "reviews",
		Filters:    []docstore.Filter{{Field: "subjectId", Value: "d1"}},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      2,
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(docs))
	assert.Equal(t, "r3", docs[0]["id"])
	assert.Equal(t, "r2", docs[1]["id"])
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.Set(ctx, "profiles", "a", docstore.Document{"id": "a"})

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "profiles"})
	assert.Equal(t, nil, err)
	defer func() { _ = sub.Close() }()

	// initial snapshot carries the then-current set
	snap := <-sub.Snapshots()
	assert.Equal(t, 1, len(snap))

	_ = store.Set(ctx, "profiles", "b", docstore.Document{"id": "b"})
	select {
	case snap = <-sub.Snapshots():
		assert.Equal(t, 2, len(snap))
	case <-time.After(time.Second):
		t.Fatal("no snapshot after write")
	}
}

func TestCloseDetachesAndResubscribeIsFresh(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.Set(ctx, "profiles", "a", docstore.Document{"id": "a"})

	sub, _ := store.Subscribe(ctx, docstore.Query{Collection: "profiles"})
	<-sub.Snapshots()
	assert.Equal(t, nil, sub.Close())
	// closing twice is a no-op
	assert.Equal(t, nil, sub.Close())

	// channel is closed after detach
	_, open := <-sub.Snapshots()
	assert.Equal(t, false, open)

	// a fresh subscription re-delivers the current full set
	sub2, _ := store.Subscribe(ctx, docstore.Query{Collection: "profiles"})
	defer func() { _ = sub2.Close() }()
	snap := <-sub2.Snapshots()
	assert.Equal(t, 1, len(snap))
}

func TestConcurrentWritesDeliverFinalSnapshotLast(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sub, err := store.Subscribe(ctx, docstore.Query{Collection: "profiles"})
	assert.Equal(t, nil, err)
	defer func() { _ = sub.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(ctx, "profiles", fmt.Sprintf("d%d", i), docstore.Document{"n": int64(i)})
		}(i)
	}
	wg.Wait()

	// snapshots are delivered in write order, so once the channel drains the
	// last one seen is the full final set, never a staler intermediate
	var last []docstore.Document
	for {
		select {
		case snap := <-sub.Snapshots():
			last = snap
		case <-time.After(200 * time.Millisecond):
			assert.Equal(t, 20, len(last))
			return
		}
	}
}

func TestSubscribeDetachesOnContextCancel(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	sub, _ := store.Subscribe(ctx, docstore.Query{Collection: "profiles"})
	<-sub.Snapshots()
	cancel()

	select {
	case _, open := <-sub.Snapshots():
		assert.Equal(t, false, open)
	case <-time.After(time.Second):
		t.Fatal("subscription not detached on cancel")
	}
}
