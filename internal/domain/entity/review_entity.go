package entity

import (
	"time"
)

// ReviewCollection is the single collection holding all reviews.
const ReviewCollection = "reviews"

// Review is an append-only rating left for a driver. Reviews are immutable
// once written; their ids are assigned by the writer, never by the store.
type Review struct {
	ID             string
	SubjectID      string // the driver being reviewed
	AuthorID       string
	AuthorName     string
	AuthorImageURL string
	Rating         float64 // nominal range [0,5]
	Comment        string
	CreatedAt      time.Time
}

// RatingAggregate is a derived view over a subject's review set. It is
// recomputed from source data on demand and never persisted.
type RatingAggregate struct {
	Average    float64
	TopReviews []Review
}
