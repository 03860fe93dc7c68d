package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/movemate/movesync/internal/container"
	handlers "github.com/movemate/movesync/internal/interface/http"
	"github.com/movemate/movesync/internal/interface/middleware"
	"github.com/movemate/movesync/pkg/helpers"
)

// ProfileModule wires profile HTTP handlers and auth middleware into routes
// Public: GET /api/drivers/listings, GET /api/drivers/listings/stream, GET /api/drivers/search
// Protected: GET /api/profile, PUT /api/profile, PUT /api/profile/availability

type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	listingLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP())

	rg.GET("/drivers/listings", listingLimiter, m.Handler.Listings)
	rg.GET("/drivers/listings/stream", listingLimiter, m.Handler.ListingsStream)
	rg.GET("/drivers/search", listingLimiter, m.Handler.Search)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByPrincipal()))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/profile/availability", m.Handler.UpdateAvailability)
	}
}
