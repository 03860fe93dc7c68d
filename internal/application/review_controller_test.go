package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/domain/repository"
)

// fakeReviewRepo appends into a slice, stamping increasing timestamps.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []entity.Review
	seq     int

	addErr error
	topErr error
	avgErr error
}

func (f *fakeReviewRepo) AddReview(ctx context.Context, review *entity.Review) (*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.seq++
	written := *review
	written.ID = fmt.Sprintf("rev-%d", f.seq)
	written.CreatedAt = time.UnixMilli(int64(f.seq) * 1000).UTC()
	f.reviews = append(f.reviews, written)
	return &written, nil
}

func (f *fakeReviewRepo) forSubject(subjectID string) []entity.Review {
	out := []entity.Review{}
	for _, r := range f.reviews {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeReviewRepo) ReviewsFor(ctx context.Context, subjectID string) ([]entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forSubject(subjectID), nil
}

func (f *fakeReviewRepo) TopReviews(ctx context.Context, subjectID string, limit int) ([]entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topErr != nil {
		return nil, f.topErr
	}
	out := f.forSubject(subjectID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReviewRepo) AverageRating(ctx context.Context, subjectID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.avgErr != nil {
		return 0, f.avgErr
	}
	all := f.forSubject(subjectID)
	if len(all) == 0 {
		return 0, nil
	}
	var sum float64
	for _, r := range all {
		sum += r.Rating
	}
	return sum / float64(len(all)), nil
}

var _ repository.ReviewRepository = (*fakeReviewRepo)(nil)

func seedReviews(t *testing.T, repo *fakeReviewRepo, subjectID string, ratings ...float64) {
	t.Helper()
	for _, rating := range ratings {
		_, err := repo.AddReview(context.Background(), &entity.Review{SubjectID: subjectID, Rating: rating})
		assert.Equal(t, nil, err)
	}
}

func TestLoadForPopulatesView(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 3, 4)
	ctl := NewReviewController(repo, nil, 3)

	ctl.LoadFor(context.Background(), "d1")

	snap := ctl.State().Get()
	assert.Equal(t, "d1", snap.Value.SubjectID)
	assert.Equal(t, 3, len(snap.Value.Reviews))
	// newest first: the 4-star review landed last
	assert.Equal(t, 4.0, snap.Value.Reviews[0].Rating)
	assert.Equal(t, 4.0, snap.Value.AverageRating)
	assert.Equal(t, false, snap.Loading)
	assert.Equal(t, nil, snap.Err)
}

func TestLoadForBoundsTopN(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 5, 5, 5, 5)
	ctl := NewReviewController(repo, nil, 2)

	ctl.LoadFor(context.Background(), "d1")
	assert.Equal(t, 2, len(ctl.State().Get().Value.Reviews))
}

func TestLoadForPartialFailure(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 3)
	avgErr := errors.New("aggregate query failed")
	repo.avgErr = avgErr
	ctl := NewReviewController(repo, nil, 3)

	ctl.LoadFor(context.Background(), "d1")

	// the read that succeeded still landed; the one that failed is recorded
	snap := ctl.State().Get()
	assert.Equal(t, 2, len(snap.Value.Reviews))
	assert.Equal(t, avgErr, snap.Err)
	assert.Equal(t, false, snap.Loading)
}

func TestLoadForSubjectSwitchResetsView(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 4)
	ctl := NewReviewController(repo, nil, 3)

	ctl.LoadFor(context.Background(), "d1")
	assert.Equal(t, 2, len(ctl.State().Get().Value.Reviews))

	ctl.LoadFor(context.Background(), "d2")
	snap := ctl.State().Get()
	assert.Equal(t, "d2", snap.Value.SubjectID)
	assert.Equal(t, 0, len(snap.Value.Reviews))
	assert.Equal(t, 0.0, snap.Value.AverageRating)
}

func TestSubmitRefreshesView(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 3)
	ctl := NewReviewController(repo, nil, 3)
	ctl.LoadFor(context.Background(), "d1")

	written, err := ctl.Submit(context.Background(), &entity.Review{SubjectID: "d1", AuthorID: "c9", Rating: 4})
	assert.Equal(t, nil, err)
	assert.Equal(t, "rev-3", written.ID)

	snap := ctl.State().Get()
	assert.Equal(t, 3, len(snap.Value.Reviews))
	assert.Equal(t, written.ID, snap.Value.Reviews[0].ID)
	assert.Equal(t, 4.0, snap.Value.AverageRating)
	assert.Equal(t, nil, snap.Err)
}

func TestSubmitFailureKeepsView(t *testing.T) {
	repo := &fakeReviewRepo{}
	seedReviews(t, repo, "d1", 5, 3)
	ctl := NewReviewController(repo, nil, 3)
	ctl.LoadFor(context.Background(), "d1")

	addErr := errors.New("append rejected")
	repo.mu.Lock()
	repo.addErr = addErr
	repo.mu.Unlock()

	_, err := ctl.Submit(context.Background(), &entity.Review{SubjectID: "d1", Rating: 1})
	assert.Equal(t, addErr, err)

	snap := ctl.State().Get()
	assert.Equal(t, 2, len(snap.Value.Reviews))
	assert.Equal(t, addErr, snap.Err)
}
