package docrepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/domain/repository"
)

func newTestReviewRepo(store *trackingStore) *ReviewRepository {
	r := NewReviewRepository(store, nil).
		WithClock(stepClock(time.UnixMilli(1_700_000_000_000).UTC(), time.Second))
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("rev-%d", seq)
	}
	return r
}

func TestAddReviewAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	in := &entity.Review{SubjectID: "d1", AuthorID: "c1", AuthorName: "Sari", Rating: 5, Comment: "great"}
	written, err := r.AddReview(ctx, in)
	assert.Equal(t, nil, err)
	assert.Equal(t, "rev-1", written.ID)
	assert.Equal(t, false, written.CreatedAt.IsZero())

	// input is never mutated
	assert.Equal(t, "", in.ID)
	assert.Equal(t, true, in.CreatedAt.IsZero())
}

func TestAddReviewVerificationFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	store.failGets(errors.New("read replica down"))
	written, err := r.AddReview(ctx, &entity.Review{SubjectID: "d1", Rating: 4})
	assert.Equal(t, nil, err)
	assert.Equal(t, "rev-1", written.ID)
}

func TestAddReviewStoreFailure(t *testing.T) {
	store := newTrackingStore()
	r := newTestReviewRepo(store)
	store.mu.Lock()
	store.setErr = errors.New("write rejected")
	store.mu.Unlock()

	_, err := r.AddReview(context.Background(), &entity.Review{SubjectID: "d1", Rating: 4})
	var serr *repository.StoreError
	assert.Equal(t, true, errors.As(err, &serr))
	assert.Equal(t, "add review", serr.Op)
}

func TestAverageRatingEmptySubject(t *testing.T) {
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	avg, err := r.AverageRating(context.Background(), "nobody")
	assert.Equal(t, nil, err)
	assert.Equal(t, 0.0, avg)
}

func TestAverageRatingUnrounded(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	for _, rating := range []float64{2, 4, 5} {
		_, err := r.AddReview(ctx, &entity.Review{SubjectID: "d1", Rating: rating})
		assert.Equal(t, nil, err)
	}

	avg, err := r.AverageRating(ctx, "d1")
	assert.Equal(t, nil, err)
	assert.Equal(t, 11.0/3.0, avg)
}

func TestTopReviewsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	// rev-1 is oldest, rev-3 newest (clock steps forward per append)
	for i := 0; i < 3; i++ {
		_, err := r.AddReview(ctx, &entity.Review{SubjectID: "d1", Rating: float64(i + 1)})
		assert.Equal(t, nil, err)
	}
	_, err := r.AddReview(ctx, &entity.Review{SubjectID: "d2", Rating: 5})
	assert.Equal(t, nil, err)

	top, err := r.TopReviews(ctx, "d1", 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(top))
	assert.Equal(t, "rev-3", top[0].ID)
	assert.Equal(t, "rev-2", top[1].ID)
}

func TestTopReviewsDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	for i := 0; i < 5; i++ {
		_, err := r.AddReview(ctx, &entity.Review{SubjectID: "d1", Rating: 4})
		assert.Equal(t, nil, err)
	}

	top, err := r.TopReviews(ctx, "d1", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, defaultTopReviews, len(top))
}

func TestDriverReviewFlow(t *testing.T) {
	ctx := context.Background()
	store := newTrackingStore()
	r := newTestReviewRepo(store)

	for _, rating := range []float64{5, 3, 4} {
		_, err := r.AddReview(ctx, &entity.Review{SubjectID: "d1", AuthorID: "c1", Rating: rating})
		assert.Equal(t, nil, err)
	}

	all, err := r.ReviewsFor(ctx, "d1")
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(all))
	// newest first: the 4-star append came last
	assert.Equal(t, 4.0, all[0].Rating)
	assert.Equal(t, 3.0, all[1].Rating)
	assert.Equal(t, 5.0, all[2].Rating)

	avg, err := r.AverageRating(ctx, "d1")
	assert.Equal(t, nil, err)
	assert.Equal(t, 4.0, avg)
}
