package repository

import (
	"context"

	"github.com/movemate/movesync/internal/domain/entity"
)

// ReviewRepository is append-only review storage plus derived read queries.
type ReviewRepository interface {
	// AddReview assigns a fresh id, writes the document, and returns the
	// review as written.
	AddReview(ctx context.Context, r *entity.Review) (*entity.Review, error)

	// ReviewsFor returns every review for the subject, newest first.
	ReviewsFor(ctx context.Context, subjectID string) ([]entity.Review, error)

	// TopReviews returns at most limit reviews for the subject, newest first.
	// A non-positive limit falls back to the default bound of 3.
	TopReviews(ctx context.Context, subjectID string, limit int) ([]entity.Review, error)

	// AverageRating scans the subject's full review set and returns the
	// arithmetic mean rating, 0 when the set is empty.
	AverageRating(ctx context.Context, subjectID string) (float64, error)
}
