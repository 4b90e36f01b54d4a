package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockRentalService struct {
	createFunc    func(ctx context.Context, listing *model.RentalListing) error
	searchFunc    func(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error)
	deactivateIDs []string
}

func (m *mockRentalService) GetByID(ctx context.Context, id string) (*model.RentalListing, error) {
	return nil, apperrors.NotFoundWithID("Rental listing", id)
}

func (m *mockRentalService) GetByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	return &model.RentalListing{ID: "l1", PropertyID: propertyID}, nil
}

func (m *mockRentalService) Create(ctx context.Context, listing *model.RentalListing) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, listing)
	}
	listing.ID = "new-id"
	return nil
}

func (m *mockRentalService) Update(ctx context.Context, id string, update *model.RentalListingUpdate) (*model.RentalListing, error) {
	return &model.RentalListing{ID: id}, nil
}

func (m *mockRentalService) Deactivate(ctx context.Context, id string) error {
	m.deactivateIDs = append(m.deactivateIDs, id)
	return nil
}

func (m *mockRentalService) ResolveOrAutoProvision(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	return nil, nil
}

func (m *mockRentalService) ListActive(ctx context.Context) ([]*model.RentalListing, error) {
	return []*model.RentalListing{}, nil
}

func (m *mockRentalService) Search(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter)
	}
	return []*model.RentalListing{}, nil
}

func (m *mockRentalService) Statistics(ctx context.Context) (*model.RentalStatistics, error) {
	return &model.RentalStatistics{ActiveRentals: 2}, nil
}

type calendarFunc func(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error)

func (f calendarFunc) MonthView(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error) {
	return f(ctx, listingID, year, month)
}

func newRouter(svc *mockRentalService, cal CalendarProvider) *httprouter.Router {
	router := httprouter.New()
	NewRentalHandler(svc, cal, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string, caller middleware.Caller) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var (
	agent  = middleware.Caller{Email: "agent@example.com", Role: middleware.RoleAgent}
	client = middleware.Caller{Email: "guest@example.com", Role: middleware.RoleClient}
)

func TestCreate_RoleEnforcement(t *testing.T) {
	body := `{"propertyId":"7","nightlyRate":100,"maxGuests":2}`

	tests := []struct {
		name       string
		caller     middleware.Caller
		wantStatus int
	}{
		{name: "anonymous", caller: middleware.Caller{}, wantStatus: http.StatusUnauthorized},
		{name: "client", caller: client, wantStatus: http.StatusForbidden},
		{name: "agent", caller: agent, wantStatus: http.StatusCreated},
		{name: "admin", caller: middleware.Caller{Email: "root@example.com", Role: middleware.RoleAdmin}, wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(&mockRentalService{}, nil), http.MethodPost, "/api/v1/rentals", body, tt.caller)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestCreate_DecodesMoney(t *testing.T) {
	var got *model.RentalListing
	svc := &mockRentalService{createFunc: func(ctx context.Context, listing *model.RentalListing) error {
		got = listing
		return nil
	}}

	rec := serve(newRouter(svc, nil), http.MethodPost, "/api/v1/rentals",
		`{"propertyId":"7","nightlyRate":"120.50","cleaningFee":25,"maxGuests":3}`, agent)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got.NightlyRate != model.Cents(12050) || got.CleaningFee != model.Cents(2500) {
		t.Errorf("decoded rate/fee = %s/%s", got.NightlyRate, got.CleaningFee)
	}
	if !got.CleaningFeeSet {
		t.Error("expected the supplied cleaning fee to be marked as set")
	}
}

func TestDeactivate_NoContent(t *testing.T) {
	svc := &mockRentalService{}
	rec := serve(newRouter(svc, nil), http.MethodDelete, "/api/v1/rentals/id/abc", "", agent)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(svc.deactivateIDs) != 1 || svc.deactivateIDs[0] != "abc" {
		t.Errorf("deactivate called with %v", svc.deactivateIDs)
	}
}

func TestSearch_ParsesFilter(t *testing.T) {
	var got model.RentalSearchFilter
	svc := &mockRentalService{searchFunc: func(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error) {
		got = filter
		return []*model.RentalListing{}, nil
	}}
	router := newRouter(svc, nil)

	rec := serve(router, http.MethodGet,
		"/api/v1/rentals/search?startDate=2030-08-10&endDate=2030-08-13&guests=4&minPrice=50&maxPrice=150.5", "", client)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got.StartDate.String() != "2030-08-10" || got.EndDate.String() != "2030-08-13" {
		t.Errorf("dates = %s..%s", got.StartDate, got.EndDate)
	}
	if got.Guests != 4 || *got.MinPrice != model.Cents(5000) || *got.MaxPrice != model.Cents(15050) {
		t.Errorf("filter = %+v", got)
	}

	rec = serve(router, http.MethodGet, "/api/v1/rentals/search?startDate=10-08-2030", "", client)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func TestAvailability(t *testing.T) {
	cal := calendarFunc(func(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error) {
		return &model.CalendarView{
			RentalPropertyID: listingID,
			Year:             year,
			Month:            month,
			BlockedDates:     []model.Date{model.MustParseDate("2030-08-10")},
			Bookings:         map[string]model.CalendarEntry{},
		}, nil
	})
	router := newRouter(&mockRentalService{}, cal)

	rec := serve(router, http.MethodGet, "/api/v1/rentals/id/l1/availability?year=2030&month=8", "", middleware.Caller{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data model.CalendarView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.RentalPropertyID != "l1" || body.Data.Month != 8 || len(body.Data.BlockedDates) != 1 {
		t.Errorf("unexpected calendar %+v", body.Data)
	}

	rec = serve(router, http.MethodGet, "/api/v1/rentals/id/l1/availability?year=2030", "", middleware.Caller{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing month status = %d, want 400", rec.Code)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	rec := serve(newRouter(&mockRentalService{}, nil), http.MethodGet, "/api/v1/rentals/id/missing", "", middleware.Caller{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
