// Package store provides the booking persistence client: fetch, insert,
// delete and a table-wide change-notification stream.
package store

import (
	"context"
	"errors"

	"lokalebooking/internal/model"
)

// ErrConflict is returned by Insert when the composite key already exists.
var ErrConflict = errors.New("booking already exists")

// ChangeKind classifies a change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeFunc receives change notifications. Notifications are table-wide,
// not pre-filtered by room; consumers filter themselves. Delivery is
// best-effort: duplicates and reordering relative to local mutations must be
// tolerated, so a notification only ever means "re-fetch this room".
type ChangeFunc func(room string, kind ChangeKind)

// Client is the narrow persistence interface consumed by the session
// controller and the HTTP surface.
type Client interface {
	// FetchByRoom returns all bookings for a room.
	FetchByRoom(ctx context.Context, room string) ([]model.Booking, error)
	// Insert stores a booking; ErrConflict if its key is taken.
	Insert(ctx context.Context, b model.Booking) error
	// Delete removes the booking at the composite key. Deleting a key that
	// does not exist is not an error.
	Delete(ctx context.Context, key string) error
	// Subscribe registers fn for change notifications. The returned handle
	// must be closed to stop delivery.
	Subscribe(fn ChangeFunc) *Subscription
}
