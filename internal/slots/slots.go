// Package slots defines the fixed daily slot table and the derived index
// answering "is this cell free or booked, and by whom".
package slots

import (
	"lokalebooking/internal/calendar"
	"lokalebooking/internal/model"
)

// Slot is one fixed 60-minute bookable interval of a day.
type Slot struct {
	StartMinutes int    `json:"start_mins"`
	Label        string `json:"label"` // "08:00-09:00"
}

// OfDay returns the nine fixed slots of a working day, 08:00 through 16:00
// start times. The table is the same for every date.
func OfDay() []Slot {
	out := make([]Slot, len(model.SlotStarts))
	for i, start := range model.SlotStarts {
		out[i] = Slot{
			StartMinutes: start,
			Label:        calendar.FormatMinutes(start) + "-" + calendar.FormatMinutes(start+60),
		}
	}
	return out
}

// Index maps composite keys to bookings. It is ephemeral: rebuilt after
// every change to the underlying collection, never updated in place.
type Index map[string]model.Booking

// BuildIndex derives an index from a booking collection. Should the source
// ever contain duplicate keys the later entry wins silently.
func BuildIndex(bookings []model.Booking) Index {
	ix := make(Index, len(bookings))
	for _, b := range bookings {
		ix[b.Key()] = b
	}
	return ix
}

// Lookup returns the booking occupying the given cell, if any.
func (ix Index) Lookup(room, date string, startMinutes int) (model.Booking, bool) {
	b, ok := ix[model.SlotKey(room, date, startMinutes)]
	return b, ok
}
