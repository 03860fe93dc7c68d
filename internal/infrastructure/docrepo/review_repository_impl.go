package docrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/docstore"
	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/domain/repository"
)

const defaultTopReviews = 3

// ReviewRepository is append-only: documents are written once under a
// writer-assigned id and never mutated.
type ReviewRepository struct {
	store  docstore.Store
	logger *logrus.Logger

	now   func() time.Time
	newID func() string
}

func NewReviewRepository(store docstore.Store, logger *logrus.Logger) *ReviewRepository {
	return &ReviewRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the repository clock for deterministic tests.
func (r *ReviewRepository) WithClock(now func() time.Time) *ReviewRepository {
	r.now = now
	return r
}

// AddReview writes the review under a fresh id, then reads the id back as a
// verification step. The read-back is observational only: its failure is
// logged and never fails the append.
func (r *ReviewRepository) AddReview(ctx context.Context, review *entity.Review) (*entity.Review, error) {
	written := *review
	written.ID = r.newID()
	written.CreatedAt = r.now().UTC()

	if err := r.store.Set(ctx, entity.ReviewCollection, written.ID, reviewToDoc(&written)); err != nil {
		return nil, &repository.StoreError{Op: "add review", Err: err}
	}
	if _, err := r.store.Get(ctx, entity.ReviewCollection, written.ID); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).WithField("review_id", written.ID).Warn("review write verification failed")
		}
	}
	return &written, nil
}

// ReviewsFor returns the subject's full review set, newest first.
func (r *ReviewRepository) ReviewsFor(ctx context.Context, subjectID string) ([]entity.Review, error) {
	return r.query(ctx, subjectID, 0)
}

// TopReviews bounds the newest-first query to limit (default 3).
func (r *ReviewRepository) TopReviews(ctx context.Context, subjectID string, limit int) ([]entity.Review, error) {
	if limit <= 0 {
		limit = defaultTopReviews
	}
	return r.query(ctx, subjectID, limit)
}

func (r *ReviewRepository) query(ctx context.Context, subjectID string, limit int) ([]entity.Review, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: entity.ReviewCollection,
		Filters:    []docstore.Filter{{Field: "subjectId", Value: subjectID}},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, &repository.StoreError{Op: "query reviews", Err: err}
	}
	out := make([]entity.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, reviewFromDoc(doc))
	}
	return out, nil
}

// AverageRating is a full-collection scan per call. That is acceptable while
// review volume per subject stays small; an incremental counter would change
// failure and consistency semantics, so it is deliberately not one.
func (r *ReviewRepository) AverageRating(ctx context.Context, subjectID string) (float64, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: entity.ReviewCollection,
		Filters:    []docstore.Filter{{Field: "subjectId", Value: subjectID}},
	})
	if err != nil {
		return 0, &repository.StoreError{Op: "query ratings", Err: err}
	}
	if len(docs) == 0 {
		return 0, nil
	}
	var sum float64
	for _, doc := range docs {
		sum += docFloat(doc, "rating")
	}
	return sum / float64(len(docs)), nil
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)
