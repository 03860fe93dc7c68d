package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/movemate/movesync/internal/container"
	handlers "github.com/movemate/movesync/internal/interface/http"
	"github.com/movemate/movesync/internal/interface/middleware"
	"github.com/movemate/movesync/pkg/helpers"
)

// ReviewModule wires review HTTP handlers into routes
// Public: GET /api/drivers/:id/reviews
// Protected: POST /api/drivers/:id/reviews

type ReviewModule struct {
	Handler *handlers.ReviewHandler
	JWT     *helpers.JWTManager
}

func NewReviewModule(h *handlers.ReviewHandler, jwt *helpers.JWTManager) *ReviewModule {
	return &ReviewModule{Handler: h, JWT: jwt}
}

func (m *ReviewModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP())
	rg.GET("/drivers/:id/reviews", readLimiter, m.Handler.GetReviews)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	// one submission per author every few seconds is plenty
	auth.Use(middleware.RateLimit(container.GetRedis(), 12, time.Minute, middleware.KeyByPrincipal()))
	{
		auth.POST("/drivers/:id/reviews", m.Handler.CreateReview)
	}
}
