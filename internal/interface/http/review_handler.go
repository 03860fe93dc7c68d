package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/application"
	"github.com/movemate/movesync/internal/domain/entity"
	repo "github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/pkg/helpers"
	"github.com/movemate/movesync/pkg/response"
	"github.com/movemate/movesync/pkg/validation"
)

type ReviewHandler struct {
	Reviews repo.ReviewRepository
	Logger  *logrus.Logger
	Pub     *helpers.RabbitPublisher
	TopN    int
}

func NewReviewHandler(reviews repo.ReviewRepository, logger *logrus.Logger, pub *helpers.RabbitPublisher, topN int) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Logger: logger, Pub: pub, TopN: topN}
}

type createReviewRequest struct {
	Rating         *float64 `json:"rating" binding:"required,gte=0,lte=5"`
	Comment        string   `json:"comment"`
	AuthorName     string   `json:"author_name" binding:"required"`
	AuthorImageURL string   `json:"author_image_url"`
}

func (h *ReviewHandler) controller() *application.ReviewController {
	return application.NewReviewController(h.Reviews, h.Logger, h.TopN).WithPublisher(h.Pub)
}

// GetReviews returns the top-N reviews plus the average rating for a driver.
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	subject := c.Param("id")
	ctl := h.controller()
	ctl.LoadFor(c.Request.Context(), subject)
	snap := ctl.State().Get()
	if snap.Err != nil {
		response.Error[any](c, statusFor(snap.Err), "failed to load reviews", snap.Err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"subject_id":     snap.Value.SubjectID,
		"reviews":        reviewsJSON(snap.Value.Reviews),
		"average_rating": snap.Value.AverageRating,
	}, "reviews", nil)
}

// CreateReview appends a review authored by the current principal.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	subject := c.Param("id")
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	ctl := h.controller()
	written, err := ctl.Submit(c.Request.Context(), &entity.Review{
		SubjectID:      subject,
		AuthorID:       c.GetString("userID"),
		AuthorName:     req.AuthorName,
		AuthorImageURL: req.AuthorImageURL,
		Rating:         *req.Rating,
		Comment:        req.Comment,
	})
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to submit review", err.Error())
		return
	}
	snap := ctl.State().Get()
	response.Success(c, http.StatusCreated, gin.H{
		"review":         reviewJSON(*written),
		"average_rating": snap.Value.AverageRating,
	}, "review submitted", nil)
}

func reviewsJSON(reviews []entity.Review) []gin.H {
	out := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewJSON(r))
	}
	return out
}

func reviewJSON(r entity.Review) gin.H {
	return gin.H{
		"id":               r.ID,
		"subject_id":       r.SubjectID,
		"author_id":        r.AuthorID,
		"author_name":      r.AuthorName,
		"author_image_url": r.AuthorImageURL,
		"rating":           r.Rating,
		"comment":          r.Comment,
		"created_at":       r.CreatedAt,
	}
}
