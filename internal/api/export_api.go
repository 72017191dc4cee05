package api

import (
	"fmt"
	"net/http"

	"lokalebooking/internal/calendar"
	"lokalebooking/internal/export"
	"lokalebooking/internal/metrics"
	"lokalebooking/internal/slots"
)

// handleExport streams a week report as an Excel workbook.
// GET /api/v1/rooms/{room}/export?monday=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, room string) {
	metrics.IncHTTP("export")
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

	filename := fmt.Sprintf("week-%s.xlsx", calendar.ISODate(monday))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteWeek(w, room, monday, slots.BuildIndex(bookings)); err != nil {
		s.log.Error().Err(err).Str("room", room).Msg("write week report failed")
	}
}
