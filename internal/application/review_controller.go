package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/domain/entity"
	repo "github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/pkg/helpers"
)

// ReviewView is the composite projection held for one subject at a time:
// the top-N reviews plus the mean rating. The two fields come from two
// independent reads and may be momentarily inconsistent with each other.
type ReviewView struct {
	SubjectID     string
	Reviews       []entity.Review
	AverageRating float64
}

// ReviewCreatedEvent is published after a successful append.
type ReviewCreatedEvent struct {
	ReviewID   string    `json:"review_id"`
	SubjectID  string    `json:"subject_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewController holds the review projection for one subject and refreshes
// it after writes.
type ReviewController struct {
	repo   repo.ReviewRepository
	logger *logrus.Logger
	pub    *helpers.RabbitPublisher
	topN   int
	state  *State[ReviewView]
}

func NewReviewController(r repo.ReviewRepository, logger *logrus.Logger, topN int) *ReviewController {
	if topN <= 0 {
		topN = 3
	}
	return &ReviewController{
		repo:   r,
		logger: logger,
		topN:   topN,
		state:  NewState[ReviewView](),
	}
}

// WithPublisher enables best-effort review-created events.
func (c *ReviewController) WithPublisher(pub *helpers.RabbitPublisher) *ReviewController {
	c.pub = pub
	return c
}

func (c *ReviewController) State() *State[ReviewView] { return c.state }

// LoadFor refreshes the projection for subjectID. Re-parameterizing by
// subject replaces the whole view. Top-N and average are issued as two
// independent reads: each success updates only its own field, the last
// failure wins when both fail, and the loading flag clears only after both
// have completed.
func (c *ReviewController) LoadFor(ctx context.Context, subjectID string) {
	release := c.state.BeginLoad()
	defer release()

	c.state.update(func(s *Snapshot[ReviewView]) {
		if s.Value.SubjectID != subjectID {
			s.Value = ReviewView{SubjectID: subjectID}
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reviews, err := c.repo.TopReviews(ctx, subjectID, c.topN)
		if err != nil {
			c.state.Fail(err)
			return
		}
		c.state.update(func(s *Snapshot[ReviewView]) {
			s.Value.Reviews = reviews
		})
	}()
	go func() {
		defer wg.Done()
		avg, err := c.repo.AverageRating(ctx, subjectID)
		if err != nil {
			c.state.Fail(err)
			return
		}
		c.state.update(func(s *Snapshot[ReviewView]) {
			s.Value.AverageRating = avg
		})
	}()
	wg.Wait()
}

// Submit appends a review, prepends it locally for an immediate visual
// update, then reconciles with a full refresh so ordering and the average
// come from the source of truth.
func (c *ReviewController) Submit(ctx context.Context, review *entity.Review) (*entity.Review, error) {
	written, err := c.repo.AddReview(ctx, review)
	if err != nil {
		c.state.Fail(err)
		return nil, err
	}

	c.state.update(func(s *Snapshot[ReviewView]) {
		if s.Value.SubjectID == written.SubjectID {
			s.Value.Reviews = append([]entity.Review{*written}, s.Value.Reviews...)
		}
		s.Err = nil
	})

	c.publishCreated(ctx, written)
	c.LoadFor(ctx, written.SubjectID)
	return written, nil
}

func (c *ReviewController) publishCreated(ctx context.Context, r *entity.Review) {
	if c.pub == nil {
		return
	}
	ev := ReviewCreatedEvent{
		ReviewID:   r.ID,
		SubjectID:  r.SubjectID,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
	if err := c.pub.PublishJSON(ctx, ev); err != nil && c.logger != nil {
		c.logger.WithError(err).WithField("review_id", r.ID).Warn("publish review event failed")
	}
}
