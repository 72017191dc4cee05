package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalebooking/internal/config"
	"lokalebooking/internal/model"
	"lokalebooking/internal/store"
)

const testRoom = "Lokale 308 (6 personer)"

func newTestServer(t *testing.T) (*HTTPServer, *store.SQLiteStore) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rooms := &config.RoomsConfig{Rooms: []config.RoomConfig{
		{Name: testRoom, Capacity: 6},
		{Name: "Lokale 110", Capacity: 4, Description: "Stueetagen"},
	}}
	return New(st, rooms, nil, &logger, 1000, 1000), st
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListRooms(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rooms []RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, testRoom, resp.Rooms[0].Name)
	assert.Equal(t, 6, resp.Rooms[0].Capacity)
}

func TestCreateBooking(t *testing.T) {
	s, st := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/bookings", CreateBookingRequest{
		Room: testRoom, Date: "2025-03-10", StartMins: 600, Name: "  Ida  ",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Booking)
	assert.Equal(t, "Ida", resp.Booking.Name)

	got, err := st.FetchByRoom(context.Background(), testRoom)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SlotKey(testRoom, "2025-03-10", 600), got[0].Key())
}

func TestCreateBookingConflict(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := CreateBookingRequest{Room: testRoom, Date: "2025-03-10", StartMins: 600, Name: "Ida"}
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/api/v1/bookings", req).Code)

	req.Name = "Jonas"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", req)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "already booked", resp.Error)
}

func TestCreateBookingValidation(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name string
		req  CreateBookingRequest
		code int
	}{
		{"blank name", CreateBookingRequest{Room: testRoom, Date: "2025-03-10", StartMins: 600, Name: "  "}, http.StatusBadRequest},
		{"bad date", CreateBookingRequest{Room: testRoom, Date: "10/03/2025", StartMins: 600, Name: "Ida"}, http.StatusBadRequest},
		{"off-grid slot", CreateBookingRequest{Room: testRoom, Date: "2025-03-10", StartMins: 605, Name: "Ida"}, http.StatusBadRequest},
		{"unknown room", CreateBookingRequest{Room: "Lokale 999", Date: "2025-03-10", StartMins: 600, Name: "Ida"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", tt.req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteBooking(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	b := model.Booking{Room: testRoom, Date: "2025-03-10", StartMinutes: 600, Name: "Ida"}
	require.NoError(t, st.Insert(context.Background(), b))

	target := "/api/v1/bookings/" + url.PathEscape(b.Key())
	rec := doJSON(t, h, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := st.FetchByRoom(context.Background(), testRoom)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting again still succeeds.
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodDelete, target, nil).Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/bookings/"+url.PathEscape("not-a-key"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeekGrid(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	require.NoError(t, st.Insert(context.Background(), model.Booking{
		Room: testRoom, Date: "2025-03-10", StartMinutes: 600, Name: "Ida",
	}))

	target := "/api/v1/rooms/" + url.PathEscape(testRoom) + "/week?monday=2025-03-10"
	rec := doJSON(t, h, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WeekResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testRoom, resp.Room)
	assert.Equal(t, "2025-03-10", resp.Monday)
	assert.Equal(t, "10.–14. mar", resp.WeekLabel)
	require.Len(t, resp.Days, 5)
	assert.Equal(t, "man 10. mar", resp.Days[0].Label)

	require.Len(t, resp.Days[0].Slots, 9)
	cell := resp.Days[0].Slots[2] // 10:00
	assert.Equal(t, 600, cell.StartMins)
	assert.Equal(t, "10:00-11:00", cell.Label)
	assert.True(t, cell.Booked)
	assert.Equal(t, "Ida", cell.Name)

	free := resp.Days[0].Slots[0]
	assert.False(t, free.Booked)
	assert.Empty(t, free.Name)
}

func TestWeekNormalizesDateToMonday(t *testing.T) {
	s, _ := newTestServer(t)

	// A Sunday maps to the Monday six days earlier.
	target := "/api/v1/rooms/" + url.PathEscape(testRoom) + "/week?monday=2025-03-16"
	rec := doJSON(t, s.Handler(), http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WeekResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-03-10", resp.Monday)
}

func TestWeekUnknownRoom(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/rooms/Lokale%20999/week", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportWeek(t *testing.T) {
	s, st := newTestServer(t)

	require.NoError(t, st.Insert(context.Background(), model.Booking{
		Room: testRoom, Date: "2025-03-10", StartMinutes: 600, Name: "Ida",
	}))

	target := "/api/v1/rooms/" + url.PathEscape(testRoom) + "/export?monday=2025-03-10"
	rec := doJSON(t, s.Handler(), http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "week-2025-03-10.xlsx"))
	assert.NotZero(t, rec.Body.Len())
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.New(io.Discard)
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rooms := &config.RoomsConfig{Rooms: []config.RoomConfig{{Name: testRoom}}}
	s := New(st, rooms, nil, &logger, 1, 1)
	h := s.Handler()

	first := doJSON(t, h, http.MethodGet, "/api/v1/rooms", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, h, http.MethodGet, "/api/v1/rooms", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
