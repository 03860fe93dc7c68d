package router

import (
	"github.com/movemate/movesync/internal/container"
	handlers "github.com/movemate/movesync/internal/interface/http"
	"github.com/movemate/movesync/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup after the container is wired.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	profileHandler := handlers.NewProfileHandler(
		container.GetDriverProfiles(),
		container.GetCustomerProfiles(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESDriversIndex,
	)
	reviewHandler := handlers.NewReviewHandler(
		container.GetReviews(),
		container.GetLogger(),
		container.GetRabbitPub(),
		cfg.TopReviewsLimit,
	)

	r.Add(modules.NewProfileModule(profileHandler, container.GetJWT()))
	r.Add(modules.NewReviewModule(reviewHandler, container.GetJWT()))
}
