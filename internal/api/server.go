// Package api exposes the booking store over HTTP JSON.
package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lokalebooking/internal/config"
	"lokalebooking/internal/notify"
	"lokalebooking/internal/store"
)

// HTTPServer serves the booking API.
type HTTPServer struct {
	store    store.Client
	notifier notify.Notifier
	log      *zerolog.Logger
	limiter  *rate.Limiter
	rooms    atomic.Pointer[config.RoomsConfig]
}

// New creates the server. notifier may be nil.
func New(st store.Client, rooms *config.RoomsConfig, notifier notify.Notifier, logger *zerolog.Logger, perSecond float64, burst int) *HTTPServer {
	s := &HTTPServer{
		store:    st,
		notifier: notifier,
		log:      logger,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
	}
	s.rooms.Store(rooms)
	return s
}

// SetRooms swaps the room set, used by the config hot-reload watcher.
func (s *HTTPServer) SetRooms(cfg *config.RoomsConfig) {
	if cfg != nil {
		s.rooms.Store(cfg)
	}
}

// Handler returns the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/rooms", s.limit(s.handleRooms))
	mux.HandleFunc("/api/v1/rooms/", s.limit(s.handleRoomSubresource))
	mux.HandleFunc("/api/v1/bookings", s.limit(s.handleCreateBooking))
	mux.HandleFunc("/api/v1/bookings/", s.limit(s.handleDeleteBooking))
	return mux
}

func (s *HTTPServer) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("api request")
		next(w, r)
	}
}

func (s *HTTPServer) roomSet() *config.RoomsConfig {
	return s.rooms.Load()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
