package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeySep separates the parts of a composite booking key.
const KeySep = "|"

// Booking represents a single claimed room slot.
type Booking struct {
	Room         string    `json:"room"`
	Date         string    `json:"date"` // YYYY-MM-DD, local
	StartMinutes int       `json:"start_mins"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SlotStarts lists the valid slot start times in minutes since midnight
// (08:00 through 16:00, 60-minute slots).
var SlotStarts = []int{480, 540, 600, 660, 720, 780, 840, 900, 960}

// SlotKey builds the composite key for a (room, date, start) triple.
func SlotKey(room, date string, startMinutes int) string {
	return room + KeySep + date + KeySep + strconv.Itoa(startMinutes)
}

// Key returns the booking's composite key. The triple is the natural
// primary key: no two bookings may share it.
func (b Booking) Key() string {
	return SlotKey(b.Room, b.Date, b.StartMinutes)
}

// ParseKey splits a composite key back into its triple.
func ParseKey(key string) (room, date string, startMinutes int, err error) {
	parts := strings.Split(key, KeySep)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("invalid booking key %q", key)
	}
	start, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid slot start in key %q: %w", key, err)
	}
	return parts[0], parts[1], start, nil
}

// ValidSlotStart reports whether startMinutes is one of the fixed slot starts.
func ValidSlotStart(startMinutes int) bool {
	for _, s := range SlotStarts {
		if s == startMinutes {
			return true
		}
	}
	return false
}

// Validate checks the record shape. Remote records failing validation are
// dropped from the working set rather than surfaced to the user.
func (b Booking) Validate() error {
	if strings.TrimSpace(b.Room) == "" {
		return fmt.Errorf("room is required")
	}
	if _, err := time.ParseInLocation("2006-01-02", b.Date, time.Local); err != nil {
		return fmt.Errorf("invalid date %q: %w", b.Date, err)
	}
	if !ValidSlotStart(b.StartMinutes) {
		return fmt.Errorf("invalid slot start %d", b.StartMinutes)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
