package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"staybook/internal/rentals/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// CalendarProvider renders a listing's monthly occupancy.
type CalendarProvider interface {
	MonthView(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error)
}

type RentalHandler struct {
	service  service.RentalService
	calendar CalendarProvider
	log      *logger.Logger
}

func NewRentalHandler(service service.RentalService, calendar CalendarProvider, log *logger.Logger) *RentalHandler {
	return &RentalHandler{
		service:  service,
		calendar: calendar,
		log:      log,
	}
}

func (h *RentalHandler) ListActive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	listings, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, listings)
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var listing model.RentalListing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		h.log.Debug("Invalid rental listing body", "handler", "Create", "error", err)
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &listing); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, listing)
}

func (h *RentalHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, listing)
}

func (h *RentalHandler) GetByPropertyID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByPropertyID(r.Context(), ps.ByName("propertyId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, listing)
}

func (h *RentalHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.RentalListingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.log.Debug("Invalid rental listing update body", "handler", "Update", "error", err)
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	listing, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, listing)
}

func (h *RentalHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *RentalHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listings, err := h.service.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, listings)
}

func (h *RentalHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	year, ok, err := httputil.QueryInt(r, "year")
	if err == nil && !ok {
		err = apperrors.InvalidInput("year parameter is required")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	month, ok, err := httputil.QueryInt(r, "month")
	if err == nil && !ok {
		err = apperrors.InvalidInput("month parameter is required")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.calendar.MonthView(r.Context(), ps.ByName("id"), year, month)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, view)
}

func (h *RentalHandler) Statistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

func parseSearchFilter(r *http.Request) (model.RentalSearchFilter, error) {
	var filter model.RentalSearchFilter
	var err error

	if filter.StartDate, _, err = httputil.QueryDate(r, "startDate"); err != nil {
		return filter, err
	}
	if filter.EndDate, _, err = httputil.QueryDate(r, "endDate"); err != nil {
		return filter, err
	}
	if filter.Guests, _, err = httputil.QueryInt(r, "guests"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = httputil.QueryMoney(r, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = httputil.QueryMoney(r, "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *RentalHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rentals", h.ListActive)
	router.POST("/api/v1/rentals", h.Create)
	router.GET("/api/v1/rentals/search", h.Search)
	router.GET("/api/v1/rentals/statistics", h.Statistics)
	router.GET("/api/v1/rentals/property/:propertyId", h.GetByPropertyID)
	router.GET("/api/v1/rentals/id/:id", h.GetByID)
	router.PUT("/api/v1/rentals/id/:id", h.Update)
	router.DELETE("/api/v1/rentals/id/:id", h.Deactivate)
	router.GET("/api/v1/rentals/id/:id/availability", h.Availability)
}
