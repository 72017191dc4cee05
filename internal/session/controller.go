// Package session implements the booking session controller: it owns one
// user's view of a room week, applies optimistic mutations against the
// store and reconciles on external change notifications.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lokalebooking/internal/calendar"
	"lokalebooking/internal/metrics"
	"lokalebooking/internal/model"
	"lokalebooking/internal/slots"
	"lokalebooking/internal/store"
)

// Phase is the load state of the active room session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
)

// ModalMode distinguishes the two pending flows.
type ModalMode string

const (
	ModalCreate ModalMode = "create"
	ModalDelete ModalMode = "delete"
)

// Modal describes a pending create or delete flow.
type Modal struct {
	Mode         ModalMode
	Room         string
	Date         string
	StartMinutes int
	// Name is the editable booker input for create, the current booker's
	// name for delete.
	Name string
	// Err is the inline message shown while the flow stays open.
	Err string
}

var (
	ErrNoRoom       = errors.New("no room selected")
	ErrNoModal      = errors.New("no pending flow")
	ErrNameRequired = errors.New("name is required")
	ErrSlotTaken    = errors.New("slot already booked")
	ErrSlotFree     = errors.New("slot is not booked")
)

// Inline messages surfaced in the pending modal.
const (
	msgNameRequired  = "Enter a name."
	msgAlreadyBooked = "Already booked by someone else."
	msgCreateFailed  = "Could not save the booking. Try again."
	msgDeleteFailed  = "Could not remove the booking. Try again."
)

// reloadTimeout bounds reconciliation fetches triggered by notifications.
const reloadTimeout = 10 * time.Second

// Controller drives a single logical session. A mutex guards the state
// because change notifications arrive on other goroutines; the lock is
// never held across a store call, so navigation and notifications stay
// responsive while a mutation is in flight.
type Controller struct {
	store store.Client
	log   *zerolog.Logger

	mu       sync.Mutex
	phase    Phase
	room     string
	monday   time.Time
	bookings []model.Booking
	index    slots.Index
	modal    *Modal
	sub      *store.Subscription
}

// New creates an idle controller showing the current week.
func New(st store.Client, logger *zerolog.Logger) *Controller {
	return &Controller{
		store:  st,
		log:    logger,
		phase:  PhaseIdle,
		monday: calendar.StartOfWeek(time.Now()),
		index:  slots.Index{},
	}
}

// SelectRoom switches the session to a room: the previous subscription is
// released, prior bookings are cleared and the room is loaded. The
// subscription stays active across fetch failures so a later notification
// retries the load.
func (c *Controller) SelectRoom(ctx context.Context, room string) error {
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Close()
	}
	c.room = room
	c.phase = PhaseLoading
	c.bookings = nil
	c.index = slots.Index{}
	c.modal = nil
	c.sub = c.store.Subscribe(c.onChange)
	c.mu.Unlock()

	return c.reload(ctx, room)
}

// Close releases the subscription and returns the session to idle.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	c.room = ""
	c.phase = PhaseIdle
	c.bookings = nil
	c.index = slots.Index{}
	c.modal = nil
}

// reload replaces the booking collection with a fresh fetch. Malformed
// remote records are dropped; they are never shown nor counted.
func (c *Controller) reload(ctx context.Context, room string) error {
	c.mu.Lock()
	if c.room != room {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseLoading
	c.mu.Unlock()

	fetched, err := c.store.FetchByRoom(ctx, room)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != room {
		// Stale fetch for a room that is no longer selected.
		return nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("room", room).Msg("fetch bookings failed")
		c.bookings = nil
		c.index = slots.Index{}
		c.phase = PhaseReady
		return err
	}

	kept := fetched[:0:0]
	for _, b := range fetched {
		if verr := b.Validate(); verr != nil {
			c.log.Debug().Err(verr).Str("room", room).Msg("dropping malformed booking record")
			continue
		}
		kept = append(kept, b)
	}
	c.bookings = kept
	c.index = slots.BuildIndex(kept)
	c.phase = PhaseReady
	metrics.IncRefetch()
	return nil
}

// onChange handles a store notification. Notifications for other rooms are
// ignored; for the active room the collection is replaced wholesale by a
// fresh fetch, never patched.
func (c *Controller) onChange(room string, _ store.ChangeKind) {
	c.mu.Lock()
	active := c.room
	c.mu.Unlock()
	if active == "" || room != active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	_ = c.reload(ctx, active)
}

// NextWeek moves the displayed week forward. Purely local: the room's full
// collection is already loaded and not date-filtered server-side.
func (c *Controller) NextWeek() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monday = calendar.AddDays(c.monday, 7)
}

// PrevWeek moves the displayed week back.
func (c *Controller) PrevWeek() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monday = calendar.AddDays(c.monday, -7)
}

// OpenCreate starts a create flow for a free slot. No store mutation yet.
func (c *Controller) OpenCreate(date string, startMinutes int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == "" {
		return ErrNoRoom
	}
	if _, ok := c.index.Lookup(c.room, date, startMinutes); ok {
		return ErrSlotTaken
	}
	c.modal = &Modal{Mode: ModalCreate, Room: c.room, Date: date, StartMinutes: startMinutes}
	return nil
}

// SetName updates the editable name of a pending create flow.
func (c *Controller) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != nil && c.modal.Mode == ModalCreate {
		c.modal.Name = name
	}
}

// OpenDelete starts a delete flow for a booked slot, capturing the current
// booker's name for display.
func (c *Controller) OpenDelete(date string, startMinutes int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == "" {
		return ErrNoRoom
	}
	b, ok := c.index.Lookup(c.room, date, startMinutes)
	if !ok {
		return ErrSlotFree
	}
	c.modal = &Modal{Mode: ModalDelete, Room: c.room, Date: date, StartMinutes: startMinutes, Name: b.Name}
	return nil
}

// Cancel discards any pending flow without touching the store.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = nil
}

// ConfirmCreate validates the pending create, applies it optimistically and
// confirms against the store, reverting the tentative entry on failure. The
// flow stays open on failure so the user can retry without re-entering the
// name.
func (c *Controller) ConfirmCreate(ctx context.Context) error {
	c.mu.Lock()
	m := c.modal
	if m == nil || m.Mode != ModalCreate {
		c.mu.Unlock()
		return ErrNoModal
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		m.Err = msgNameRequired
		c.mu.Unlock()
		return ErrNameRequired
	}
	// Re-check occupancy: another client may have booked the slot after the
	// modal opened.
	if _, ok := c.index.Lookup(m.Room, m.Date, m.StartMinutes); ok {
		m.Err = msgAlreadyBooked
		c.mu.Unlock()
		return ErrSlotTaken
	}
	now := time.Now()
	booking := model.Booking{
		Room:         m.Room,
		Date:         m.Date,
		StartMinutes: m.StartMinutes,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Tentative apply: the slot renders as booked immediately.
	c.bookings = append(c.bookings, booking)
	c.index = slots.BuildIndex(c.bookings)
	c.mu.Unlock()

	err := c.store.Insert(ctx, booking)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		// The optimistic entry stays authoritative until the next refetch.
		if c.modal == m {
			c.modal = nil
		}
		metrics.IncBookingCreated("ok")
		return nil
	}

	// Revert exactly the tentative entry. If a reconciliation already
	// replaced the collection in the meantime there is nothing to remove.
	c.bookings = removeBooking(c.bookings, booking)
	c.index = slots.BuildIndex(c.bookings)
	if errors.Is(err, store.ErrConflict) {
		if c.modal == m {
			m.Err = msgAlreadyBooked
		}
		c.log.Info().Str("key", booking.Key()).Msg("create lost booking race")
		metrics.IncBookingCreated("conflict")
	} else {
		if c.modal == m {
			m.Err = msgCreateFailed
		}
		c.log.Error().Err(err).Str("key", booking.Key()).Msg("insert booking failed")
		metrics.IncBookingCreated("error")
	}
	return err
}

// ConfirmDelete snapshots the collection, removes the booking optimistically
// and confirms against the store. On failure the snapshot is restored
// verbatim, discarding any interleaved local changes.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	m := c.modal
	if m == nil || m.Mode != ModalDelete {
		c.mu.Unlock()
		return ErrNoModal
	}
	key := model.SlotKey(m.Room, m.Date, m.StartMinutes)
	snapshot := append([]model.Booking(nil), c.bookings...)
	c.bookings = removeByKey(c.bookings, key)
	c.index = slots.BuildIndex(c.bookings)
	c.mu.Unlock()

	err := c.store.Delete(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		if c.modal == m {
			c.modal = nil
		}
		metrics.IncBookingDeleted("ok")
		return nil
	}

	c.bookings = snapshot
	c.index = slots.BuildIndex(snapshot)
	if c.modal == m {
		m.Err = msgDeleteFailed
	}
	c.log.Error().Err(err).Str("key", key).Msg("delete booking failed")
	metrics.IncBookingDeleted("error")
	return err
}

// Phase returns the current load state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Room returns the selected room, empty when idle.
func (c *Controller) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Monday returns the displayed week's Monday.
func (c *Controller) Monday() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monday
}

// Bookings returns a copy of the current booking collection.
func (c *Controller) Bookings() []model.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Booking(nil), c.bookings...)
}

// Lookup answers whether a cell of the active room is booked, and by whom.
func (c *Controller) Lookup(date string, startMinutes int) (model.Booking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Lookup(c.room, date, startMinutes)
}

// Modal returns a copy of the pending flow descriptor, if any.
func (c *Controller) Modal() (Modal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return Modal{}, false
	}
	return *c.modal, true
}

// removeBooking removes the first entry equal to b, keeping order.
func removeBooking(list []model.Booking, b model.Booking) []model.Booking {
	for i := range list {
		if list[i] == b {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// removeByKey filters out the entry at key into a fresh slice.
func removeByKey(list []model.Booking, key string) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		if b.Key() != key {
			out = append(out, b)
		}
	}
	return out
}
