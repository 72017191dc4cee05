package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"lokalebooking/internal/metrics"
	"lokalebooking/internal/model"
	"lokalebooking/internal/store"
)

// CreateBookingRequest is the request body for POST /api/v1/bookings.
type CreateBookingRequest struct {
	Room      string `json:"room"`
	Date      string `json:"date"` // YYYY-MM-DD
	StartMins int    `json:"start_mins"`
	Name      string `json:"name"`
}

// BookingResponse is the response for booking mutations.
type BookingResponse struct {
	Success bool           `json:"success"`
	Booking *model.Booking `json:"booking,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const notifyTimeout = 5 * time.Second

// handleCreateBooking claims a slot.
// POST /api/v1/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Error: "invalid JSON body"})
		return
	}

	booking := model.Booking{
		Room:         req.Room,
		Date:         req.Date,
		StartMinutes: req.StartMins,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := booking.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Error: err.Error()})
		return
	}
	if !s.roomSet().Contains(booking.Room) {
		writeJSON(w, http.StatusNotFound, BookingResponse{Error: "unknown room"})
		return
	}

	if err := s.store.Insert(r.Context(), booking); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeJSON(w, http.StatusConflict, BookingResponse{Error: "already booked"})
			return
		}
		s.log.Error().Err(err).Str("key", booking.Key()).Msg("insert booking failed")
		writeJSON(w, http.StatusInternalServerError, BookingResponse{Error: "failed to create booking"})
		return
	}

	s.log.Info().Str("key", booking.Key()).Str("name", booking.Name).Msg("booking created")
	if s.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifier.BookingCreated(ctx, booking)
		}()
	}

	writeJSON(w, http.StatusCreated, BookingResponse{Success: true, Booking: &booking})
}

// handleDeleteBooking releases a slot by composite key. Deleting an absent
// key succeeds.
// DELETE /api/v1/bookings/{key}
func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("delete_booking")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use DELETE")
		return
	}

	const prefix = "/api/v1/bookings/"
	key := strings.TrimPrefix(r.URL.Path, prefix)
	if key == "" {
		writeError(w, http.StatusBadRequest, "booking key is required")
		return
	}

	room, date, startMins, err := model.ParseKey(key)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking key")
		return
	}

	if err := s.store.Delete(r.Context(), key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("delete booking failed")
		writeError(w, http.StatusInternalServerError, "failed to delete booking")
		return
	}

	s.log.Info().Str("key", key).Msg("booking deleted")
	if s.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifier.BookingReleased(ctx, room, date, startMins)
		}()
	}

	writeJSON(w, http.StatusOK, BookingResponse{Success: true})
}
