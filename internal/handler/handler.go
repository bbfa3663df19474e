// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the booking service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BlacklistAdmin manages the customer blacklist.
type BlacklistAdmin interface {
	Add(ctx context.Context, c model.Customer) (bool, error)
	Remove(ctx context.Context, c model.Customer) (bool, error)
	Size(ctx context.Context) (int64, error)
}

// SnapshotSaver persists the booking state on demand.
type SnapshotSaver interface {
	SaveState(ctx context.Context, svc *service.BookingService) (int64, error)
}

// BookingHandler holds all HTTP handlers for the booking API.
type BookingHandler struct {
	svc       *service.BookingService
	blacklist BlacklistAdmin
	snapshots SnapshotSaver
	lg        zerolog.Logger

	// serializes the id check and the insert in RegisterEvent
	registerMu sync.Mutex
}

// NewBookingHandler constructs a BookingHandler. blacklist and snapshots may
// be nil, in which case their endpoints answer 503.
func NewBookingHandler(svc *service.BookingService, blacklist BlacklistAdmin, snapshots SnapshotSaver, lg zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		svc:       svc,
		blacklist: blacklist,
		snapshots: snapshots,
		lg:        lg.With().Str("component", "booking_handler").Logger(),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Registry ─────────────────────────────────────────────────────────────────

// RegisterCustomer handles POST /customers
func (h *BookingHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateCustomer(model.Customer{Name: req.Name, Address: req.Address}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := h.svc.RegisterCustomer(req.Name, req.Address)
	writeJSON(w, http.StatusCreated, c)
}

// ListCustomers handles GET /customers
func (h *BookingHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := h.svc.Customers()
	if customers == nil {
		customers = []model.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

// RegisterEvent handles POST /events
func (h *BookingHandler) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateEvent(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Events are addressed by id over HTTP, so ids stay unique here even
	// though the service accepts duplicates.
	h.registerMu.Lock()
	defer h.registerMu.Unlock()
	if _, exists := h.svc.EventByID(req.ID); exists {
		writeError(w, http.StatusConflict, "event id already registered")
		return
	}

	e := h.svc.RegisterEvent(req.ID, req.Title, req.Date, req.Price, req.Seating, req.OrganizerEmail)
	writeJSON(w, http.StatusCreated, e)
}

// ListEvents handles GET /events
func (h *BookingHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.svc.Events()
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *BookingHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := h.svc.EventByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// AvailableSeats handles GET /events/{id}/seats
func (h *BookingHandler) AvailableSeats(w http.ResponseWriter, r *http.Request) {
	e, ok := h.svc.EventByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	available, err := h.svc.AvailableSeats(e)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SeatsResponse{EventID: e.ID, Seating: e.Seating, Available: available})
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// CreateBooking handles POST /bookings
// Books seats for a registered customer on a registered event.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateBooking(req); err != nil {
		metrics.RecordRejection(metrics.ReasonInvalid)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, ok := h.svc.EventByID(strings.TrimSpace(req.EventID))
	if !ok {
		metrics.RecordRejection(metrics.ReasonNotRegistered)
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	b, err := h.svc.CreateBooking(r.Context(), req.Customer, e, req.Seats)
	if err != nil {
		metrics.RecordRejection(rejectionReason(err))
		h.writeServiceError(w, err)
		return
	}

	metrics.RecordBooking(req.Seats)
	writeJSON(w, http.StatusCreated, b)
}

// CustomerBooking handles GET /events/{id}/booking?name=&address=
// Returns the single booking the customer holds for the event.
func (h *BookingHandler) CustomerBooking(w http.ResponseWriter, r *http.Request) {
	e, ok := h.svc.EventByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	q := r.URL.Query()
	c := model.Customer{Name: q.Get("name"), Address: q.Get("address")}

	b, found, err := h.svc.CustomerBookingForEvent(c, e)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no booking for this customer")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ─── Blacklist ────────────────────────────────────────────────────────────────

// AddToBlacklist handles POST /blacklist
func (h *BookingHandler) AddToBlacklist(w http.ResponseWriter, r *http.Request) {
	if h.blacklist == nil {
		writeError(w, http.StatusServiceUnavailable, "blacklist is not configured")
		return
	}
	var c model.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateCustomer(c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := h.blacklist.Add(r.Context(), c)
	if err != nil {
		h.lg.Error().Err(err).Msg("blacklist add failed")
		writeError(w, http.StatusInternalServerError, "failed to update blacklist")
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
		h.refreshBlacklistSize(r.Context())
	}
	writeJSON(w, status, c)
}

// RemoveFromBlacklist handles DELETE /blacklist
func (h *BookingHandler) RemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	if h.blacklist == nil {
		writeError(w, http.StatusServiceUnavailable, "blacklist is not configured")
		return
	}
	var c model.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	removed, err := h.blacklist.Remove(r.Context(), c)
	if err != nil {
		h.lg.Error().Err(err).Msg("blacklist remove failed")
		writeError(w, http.StatusInternalServerError, "failed to update blacklist")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "customer is not blacklisted")
		return
	}
	h.refreshBlacklistSize(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) refreshBlacklistSize(ctx context.Context) {
	n, err := h.blacklist.Size(ctx)
	if err != nil {
		h.lg.Warn().Err(err).Msg("blacklist size unavailable")
		return
	}
	metrics.SetBlacklistSize(n)
}

// ─── Snapshots ────────────────────────────────────────────────────────────────

// SaveSnapshot handles POST /snapshots
func (h *BookingHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	id, err := h.snapshots.SaveState(r.Context(), h.svc)
	metrics.RecordSnapshot(err)
	if err != nil {
		h.lg.Error().Err(err).Msg("snapshot save failed")
		writeError(w, http.StatusInternalServerError, "failed to save snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "saved_at": time.Now().UTC()})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *BookingHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "customer or event not registered")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBlacklistedCustomer):
		writeError(w, http.StatusForbidden, "customer is blacklisted")
	default:
		h.lg.Error().Err(err).Msg("booking request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		return metrics.ReasonNotRegistered
	case errors.Is(err, service.ErrCapacityExceeded):
		return metrics.ReasonCapacity
	case errors.Is(err, service.ErrBlacklistedCustomer):
		return metrics.ReasonBlacklisted
	default:
		return metrics.ReasonInternal
	}
}
