/*
handlers.go - HTTP API handlers for the booking marketplace

PURPOSE:
  Exposes the campaign/booking engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates every decision to
  the campaign service and pricing engine.

ENDPOINTS:
  Campaigns:
    GET    /api/campaigns                 List campaigns
    POST   /api/campaigns                 Publish campaign
    GET    /api/campaigns/{id}            Campaign details
    GET    /api/campaigns/{id}/quote      Live price quote
    GET    /api/campaigns/{id}/milestone  Next price-change projection
    GET    /api/campaigns/{id}/bookings   List bookings
    POST   /api/campaigns/{id}/bookings   Commit area (locks a price)
    POST   /api/campaigns/{id}/close      Fix the settlement price
    POST   /api/campaigns/{id}/cancel     Abandon an unviable campaign

  Bookings:
    GET    /api/bookings/{id}             Booking details
    DELETE /api/bookings/{id}             Cancel booking
    POST   /api/bookings/{id}/report      Submit work report (settles)
    GET    /api/bookings/{id}/report      Settled report details

  Demo:
    POST   /api/demo/seed                 Seed demo campaigns

ERROR HANDLING:
  - 422 + the capacity check's message VERBATIM: the text is written for
    the farmer ("remaining capacity is exactly 10.0 area-units").
  - 404 for missing records, 409 for lifecycle conflicts.
  - 400 with a generic message for configuration/input defects; their
    diagnostic text is for logs, not end users.

SECURITY NOTE:
  No authentication middleware. All endpoints are public; auth lives in
  the surrounding platform.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/campaign"
	"github.com/agrihawk/booking-engine/factory"
	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   campaign.TxStore
	Service *campaign.Service
}

// NewHandler creates a new handler over the given store.
func NewHandler(store campaign.TxStore) *Handler {
	return &Handler{
		Store:   store,
		Service: campaign.NewService(store),
	}
}

// =============================================================================
// CAMPAIGN HANDLERS
// =============================================================================

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Store.ListCampaigns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]CampaignDTO, 0, len(campaigns))
	for i := range campaigns {
		dtos = append(dtos, toCampaignDTO(&campaigns[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	terms, err := factory.BuildTerms(req.Terms)
	if err != nil {
		writeError(w, err)
		return
	}

	taxRate := pricing.DefaultTaxRatePercent
	if req.TaxRatePercent != nil {
		taxRate = decimal.NewFromFloat(*req.TaxRatePercent)
	}

	c, err := h.Service.CreateCampaign(r.Context(), campaign.Campaign{
		ID:             campaign.CampaignID(req.ID),
		ProviderID:     campaign.ProviderID(req.ProviderID),
		Name:           req.Name,
		ServiceKind:    req.ServiceKind,
		Region:         req.Region,
		Terms:          terms,
		TaxRatePercent: taxRate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignDTO(c))
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	c, err := h.Store.GetCampaign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(c))
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	quote, total, err := h.Service.QuoteAt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(id, total, quote))
}

func (h *Handler) GetMilestone(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	m, total, err := h.Service.NextMilestone(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMilestoneDTO(id, total, m))
}

func (h *Handler) CloseCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	c, err := h.Service.Close(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(c))
}

func (h *Handler) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	c, err := h.Service.CancelCampaign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(c))
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetCampaign(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	bookings, err := h.Store.ListBookings(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, toBookingDTO(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id := campaign.CampaignID(chi.URLParam(r, "id"))

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.FarmerID == "" {
		writeBadRequest(w, "farmer_id is required")
		return
	}
	area, ok := areaFromRequest(req.Area, req.AreaM2)
	if !ok {
		writeBadRequest(w, "exactly one of area or area_m2 is required")
		return
	}

	b, err := h.Service.Commit(r.Context(), id, campaign.FarmerID(req.FarmerID), req.FieldName, area)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := campaign.BookingID(chi.URLParam(r, "id"))
	b, err := h.Store.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := campaign.BookingID(chi.URLParam(r, "id"))
	b, err := h.Service.CancelBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// =============================================================================
// WORK REPORT HANDLERS
// =============================================================================

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	id := campaign.BookingID(chi.URLParam(r, "id"))

	var req SubmitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	area, ok := areaFromRequest(req.ActualArea, req.ActualAreaM2)
	if !ok {
		writeBadRequest(w, "exactly one of actual_area or actual_area_m2 is required")
		return
	}

	report, err := h.Service.SubmitReport(r.Context(), id, area)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportDTO(report))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := campaign.BookingID(chi.URLParam(r, "id"))
	report, err := h.Store.GetReportByBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// DEMO SEED
// =============================================================================

// SeedDemo creates two demo campaigns, one per regime, so a fresh
// deployment has something to click through.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	seeds := []struct {
		req   CreateCampaignRequest
		terms string
	}{
		{
			req: CreateCampaignRequest{
				ID: "demo-spray", ProviderID: "demo-provider",
				Name: "Demo: rice spraying", ServiceKind: "spraying", Region: "north",
			},
			terms: campaign.LinearTermsJSON(20000, 15000, 50),
		},
		{
			req: CreateCampaignRequest{
				ID: "demo-seeding", ProviderID: "demo-provider",
				Name: "Demo: direct seeding", ServiceKind: "seeding", Region: "delta",
			},
			terms: campaign.TwoThresholdTermsJSON(20000, 15000, 30, 50, 18000),
		},
	}

	created := []CampaignDTO{}
	for _, seed := range seeds {
		terms, err := factory.ParseTerms(seed.terms)
		if err != nil {
			writeError(w, err)
			return
		}
		c, err := h.Service.CreateCampaign(r.Context(), campaign.Campaign{
			ID:             campaign.CampaignID(seed.req.ID),
			ProviderID:     campaign.ProviderID(seed.req.ProviderID),
			Name:           seed.req.Name,
			ServiceKind:    seed.req.ServiceKind,
			Region:         seed.req.Region,
			Terms:          terms,
			TaxRatePercent: pricing.DefaultTaxRatePercent,
		})
		if errors.Is(err, campaign.ErrDuplicateCampaign) {
			continue // already seeded
		}
		if err != nil {
			writeError(w, err)
			return
		}
		created = append(created, toCampaignDTO(c))
	}
	writeJSON(w, http.StatusCreated, created)
}

// =============================================================================
// HELPERS
// =============================================================================

// areaFromRequest resolves the area from whichever unit the client sent.
func areaFromRequest(ares, squareMeters *float64) (decimal.Decimal, bool) {
	switch {
	case ares != nil && squareMeters == nil:
		return decimal.NewFromFloat(*ares), true
	case squareMeters != nil && ares == nil:
		return pricing.AresFromSquareMeters(decimal.NewFromFloat(*squareMeters)), true
	default:
		return decimal.Zero, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// writeError maps domain errors to HTTP statuses. Capacity rejections keep
// their user-facing text; config/input defects get a generic message (the
// diagnostic belongs in logs, not in farmers' faces).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrCapacityExceeded):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case campaign.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case campaign.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case pricing.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not process request"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
