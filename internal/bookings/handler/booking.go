package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service      service.BookingService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewBookingHandler(service service.BookingService, availability service.AvailabilityService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:      service,
		availability: availability,
		log:          log,
	}
}

// Create books a stay. A CLIENT books for themselves: their e-mail replaces
// the one in the body, and their name fills an empty guestName.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("Invalid booking request body", "handler", "Create", "error", err)
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if caller.IsClient() && !caller.Anonymous() {
		req.GuestEmail = caller.Email
		if strings.TrimSpace(req.GuestName) == "" {
			req.GuestName = caller.Name
		}
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, booking)
}

// List serves clients their own bookings. Staff may filter by rentalId,
// guestEmail or status, or page through every booking.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := middleware.RequireCaller(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	rentalID := strings.TrimSpace(query.Get("rentalId"))
	guestEmail := strings.TrimSpace(query.Get("guestEmail"))
	status := strings.TrimSpace(query.Get("status"))

	if caller.IsClient() {
		if rentalID != "" {
			httputil.WriteError(w, apperrors.Forbidden("Filtering by rental requires the AGENT or ADMIN role"))
			return
		}
		h.listOwn(w, r, caller, status)
		return
	}

	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var bookings []*model.Booking
	switch {
	case rentalID != "":
		bookings, err = h.service.ListByListing(r.Context(), rentalID)
	case guestEmail != "":
		bookings, err = h.service.ListByGuestEmail(r.Context(), guestEmail)
	case status != "":
		bookings, err = h.service.ListByStatus(r.Context(), status)
	default:
		h.listAll(w, r)
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) listOwn(w http.ResponseWriter, r *http.Request, caller middleware.Caller, status string) {
	var want model.BookingStatus
	if status != "" {
		parsed, err := model.ParseBookingStatus(status)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("Invalid booking status: "+status))
			return
		}
		want = parsed
	}

	bookings, err := h.service.ListByGuestEmail(r.Context(), caller.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if want != "" {
		filtered := make([]*model.Booking, 0, len(bookings))
		for _, b := range bookings {
			if b.Status == want {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}
	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) listAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WritePaginated(w, bookings, total, limit, offset)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := middleware.RequireCaller(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := authorizeBooking(caller, booking); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, booking)
}

// Cancel lets clients cancel their own bookings and staff cancel any.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := middleware.RequireCaller(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !caller.IsStaff() {
		existing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if err := authorizeBooking(caller, existing); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireStaff(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Complete(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) Upcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) Active(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rentalID := strings.TrimSpace(r.URL.Query().Get("rentalId"))
	if rentalID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("rentalId parameter is required"))
		return
	}

	start, err := httputil.RequireQueryDate(r, "startDate")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := httputil.RequireQueryDate(r, "endDate")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	available, err := h.availability.IsAvailable(r.Context(), rentalID, start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, model.AvailabilityResult{
		RentalID:  rentalID,
		StartDate: start,
		EndDate:   end,
		Available: available,
	})
}

func (h *BookingHandler) BookedDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	propertyID := ps.ByName("propertyId")

	dates, err := h.availability.BookedDates(r.Context(), propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, model.BookedDates{
		PropertyID:  propertyID,
		BookedDates: dates,
	})
}

// authorizeBooking lets staff see any booking and clients only their own.
func authorizeBooking(caller middleware.Caller, booking *model.Booking) error {
	if caller.IsStaff() {
		return nil
	}
	if caller.IsClient() && caller.Owns(booking.GuestEmail) {
		return nil
	}
	return apperrors.Forbidden("You can only access your own bookings")
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/upcoming", h.Upcoming)
	router.GET("/api/v1/bookings/active", h.Active)
	router.GET("/api/v1/bookings/check-availability", h.CheckAvailability)
	router.GET("/api/v1/bookings/booked-dates/:propertyId", h.BookedDates)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PUT("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.PUT("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.PUT("/api/v1/bookings/id/:id/complete", h.Complete)
}
