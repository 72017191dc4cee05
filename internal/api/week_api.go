package api

import (
	"net/http"
	"strings"
	"time"

	"lokalebooking/internal/calendar"
	"lokalebooking/internal/metrics"
	"lokalebooking/internal/slots"
)

// SlotCell is one bookable cell of the week grid.
type SlotCell struct {
	StartMins int    `json:"start_mins"`
	Label     string `json:"label"`
	Booked    bool   `json:"booked"`
	Name      string `json:"name,omitempty"`
}

// DayView is one weekday column.
type DayView struct {
	Date  string     `json:"date"`
	Label string     `json:"label"`
	Slots []SlotCell `json:"slots"`
}

// WeekResponse is the response for GET /api/v1/rooms/{room}/week.
type WeekResponse struct {
	Room      string    `json:"room"`
	Monday    string    `json:"monday"`
	WeekLabel string    `json:"week_label"`
	Days      []DayView `json:"days"`
}

// RoomInfo is one entry of GET /api/v1/rooms.
type RoomInfo struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity,omitempty"`
	Description string `json:"description,omitempty"`
}

// handleRooms returns the configured room set.
// GET /api/v1/rooms
func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cfg := s.roomSet()
	rooms := make([]RoomInfo, 0, len(cfg.Rooms))
	for _, rm := range cfg.Rooms {
		rooms = append(rooms, RoomInfo{Name: rm.Name, Capacity: rm.Capacity, Description: rm.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// handleRoomSubresource dispatches /api/v1/rooms/{room}/week and
// /api/v1/rooms/{room}/export.
func (s *HTTPServer) handleRoomSubresource(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/rooms/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idx := strings.LastIndex(rest, "/")
	if idx <= 0 {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	room, action := rest[:idx], rest[idx+1:]

	if !s.roomSet().Contains(room) {
		writeError(w, http.StatusNotFound, "unknown room")
		return
	}

	switch action {
	case "week":
		s.handleWeek(w, r, room)
	case "export":
		s.handleExport(w, r, room)
	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

// handleWeek returns the 5x9 grid for a week of a room.
// GET /api/v1/rooms/{room}/week?monday=YYYY-MM-DD
func (s *HTTPServer) handleWeek(w http.ResponseWriter, r *http.Request, room string) {
	metrics.IncHTTP("week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	monday, err := mondayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monday; expected YYYY-MM-DD")
		return
	}

	bookings, err := s.store.FetchByRoom(r.Context(), room)
	if err != nil {
		s.log.Error().Err(err).Str("room", room).Msg("fetch bookings failed")
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	ix := slots.BuildIndex(bookings)

	resp := WeekResponse{
		Room:      room,
		Monday:    calendar.ISODate(monday),
		WeekLabel: calendar.WeekRangeLabel(monday),
	}
	daySlots := slots.OfDay()
	for _, day := range calendar.WeekDays(monday) {
		view := DayView{
			Date:  calendar.ISODate(day),
			Label: calendar.DayLabel(day),
			Slots: make([]SlotCell, 0, len(daySlots)),
		}
		for _, slot := range daySlots {
			cell := SlotCell{StartMins: slot.StartMinutes, Label: slot.Label}
			if b, ok := ix.Lookup(room, view.Date, slot.StartMinutes); ok {
				cell.Booked = true
				cell.Name = b.Name
			}
			view.Slots = append(view.Slots, cell)
		}
		resp.Days = append(resp.Days, view)
	}

	writeJSON(w, http.StatusOK, resp)
}

// mondayParam reads the optional monday query parameter, defaulting to the
// current week. Any date is normalized to its week's Monday.
func mondayParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("monday")
	if raw == "" {
		return calendar.StartOfWeek(time.Now()), nil
	}
	d, err := calendar.ParseISODate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return calendar.StartOfWeek(d), nil
}
