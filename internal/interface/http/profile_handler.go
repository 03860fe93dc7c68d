package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/application"
	"github.com/movemate/movesync/internal/domain/entity"
	repo "github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/pkg/response"
	"github.com/movemate/movesync/pkg/validation"
)

// ProfileHandler adapts the profile controllers to HTTP. Controllers are
// short-lived per request; the repositories behind them are the process-wide
// singletons.
type ProfileHandler struct {
	Drivers   repo.ProfileRepository
	Customers repo.ProfileRepository
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
}

func NewProfileHandler(drivers, customers repo.ProfileRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ProfileHandler {
	return &ProfileHandler{Drivers: drivers, Customers: customers, Logger: logger, ES: es, ESIndex: esIndex}
}

type updateProfileRequest struct {
	Kind            string   `json:"kind" binding:"omitempty,oneof=driver customer"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	City            string   `json:"city"`
	Area            string   `json:"area"`
	ProfileImageURL string   `json:"profile_image_url"`
	TruckType       string   `json:"truck_type"`
	TruckCapacity   string   `json:"truck_capacity"`
	WorkingHours    string   `json:"working_hours"`
	VehicleImages   []string `json:"vehicle_images"`
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *ProfileHandler) controller(kind string) *application.ProfileController {
	r := h.Customers
	if kind == string(entity.KindDriver) {
		r = h.Drivers
	}
	ctl := application.NewProfileController(r, h.Logger)
	if kind == string(entity.KindDriver) {
		ctl.WithSearchIndex(h.ES, h.ESIndex)
	}
	return ctl
}

func kindParam(c *gin.Context) string {
	k := c.Query("kind")
	if k != string(entity.KindDriver) {
		return string(entity.KindCustomer)
	}
	return k
}

// GetProfile returns the caller's profile, creating a default one on first read.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ctl := h.controller(kindParam(c))
	if err := ctl.Load(c.Request.Context()); err != nil {
		response.Error[any](c, statusFor(err), "failed to load profile", err.Error())
		return
	}
	snap := ctl.State().Get()
	response.Success(c, http.StatusOK, profileJSON(snap.Value), "profile", nil)
}

// UpdateProfile saves the full profile form (non-optimistic write-through).
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = kindParam(c)
	}
	ctl := h.controller(kind)
	saved, err := ctl.UpdateProfile(c.Request.Context(), &entity.Profile{
		Kind:            entity.ProfileKind(kind),
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		City:            req.City,
		Area:            req.Area,
		ProfileImageURL: req.ProfileImageURL,
		TruckType:       req.TruckType,
		TruckCapacity:   req.TruckCapacity,
		WorkingHours:    req.WorkingHours,
		VehicleImages:   req.VehicleImages,
	})
	if err != nil {
		var verr *repo.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, "missing required fields", verr.Fields)
			return
		}
		response.Error[any](c, statusFor(err), "failed to save profile", err.Error())
		return
	}
	response.Success(c, http.StatusOK, profileJSON(saved), "profile saved", nil)
}

// UpdateAvailability toggles the driver availability flag. The controller
// applies the optimistic value immediately; the handler waits for the
// confirmation (or rollback) before answering.
func (h *ProfileHandler) UpdateAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	ctl := h.controller(string(entity.KindDriver))
	if err := ctl.Load(c.Request.Context()); err != nil {
		response.Error[any](c, statusFor(err), "failed to load profile", err.Error())
		return
	}
	if err := <-ctl.SetAvailability(c.Request.Context(), *req.Available); err != nil {
		response.Error[any](c, statusFor(err), "failed to update availability", err.Error())
		return
	}
	snap := ctl.State().Get()
	response.Success(c, http.StatusOK, profileJSON(snap.Value), "availability updated", nil)
}

// Listings returns the current complete driver listings.
func (h *ProfileHandler) Listings(c *gin.Context) {
	listing, err := h.Drivers.ActiveListings(c.Request.Context())
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to load listings", err.Error())
		return
	}
	out := make([]gin.H, 0, len(listing))
	for _, p := range listing {
		out = append(out, profileJSON(p))
	}
	response.Success(c, http.StatusOK, out, "listings", map[string]any{"count": len(out)})
}

// ListingsStream bridges the live listings watch onto SSE. Client disconnect
// cancels the request context, which detaches the store subscription.
func (h *ProfileHandler) ListingsStream(c *gin.Context) {
	ch, err := h.Drivers.WatchActiveListings(c.Request.Context())
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to subscribe", err.Error())
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		listing, ok := <-ch
		if !ok {
			return false
		}
		out := make([]gin.H, 0, len(listing))
		for _, p := range listing {
			out = append(out, profileJSON(p))
		}
		c.SSEvent("listings", out)
		return true
	})
}

// Search queries the driver search index.
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	ctl := h.controller(string(entity.KindDriver))
	hits, err := ctl.SearchDrivers(c.Request.Context(), q, 10)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "search failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

func profileJSON(p *entity.Profile) gin.H {
	if p == nil {
		return gin.H{}
	}
	return gin.H{
		"subject_id":        p.SubjectID,
		"kind":              p.Kind,
		"name":              p.Name,
		"phone":             p.Phone,
		"email":             p.Email,
		"city":              p.City,
		"area":              p.Area,
		"profile_image_url": p.ProfileImageURL,
		"truck_type":        p.TruckType,
		"truck_capacity":    p.TruckCapacity,
		"working_hours":     p.WorkingHours,
		"is_available":      p.IsAvailable,
		"vehicle_images":    p.VehicleImages,
		"created_at":        p.CreatedAt,
		"updated_at":        p.UpdatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repo.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	default:
		var serr *repo.StoreError
		if errors.As(err, &serr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}
