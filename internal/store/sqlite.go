package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"lokalebooking/internal/model"
)

// SQLiteStore implements Client on top of a SQLite database. The composite
// key is the primary key, so the engine is the sole arbiter under
// contention: of two concurrent inserts for one key exactly one commits.
type SQLiteStore struct {
	db     *sql.DB
	hub    *Hub
	log    *zerolog.Logger
	bridge *Bridge
}

// Open opens (and migrates) the database at path.
func Open(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, hub: NewHub(), log: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			room TEXT NOT NULL,
			date TEXT NOT NULL,
			start_mins INTEGER NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room ON bookings(room, date, start_mins)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// UseRedisBridge attaches a cross-process notification bridge. Local
// changes are published through it in addition to the in-process hub.
func (s *SQLiteStore) UseRedisBridge(b *Bridge) {
	s.bridge = b
}

// Hub exposes the in-process change hub, for bridges feeding remote events.
func (s *SQLiteStore) Hub() *Hub {
	return s.hub
}

// FetchByRoom returns all bookings for a room ordered by date and slot.
func (s *SQLiteStore) FetchByRoom(ctx context.Context, room string) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room, date, start_mins, name, created_at, updated_at
		FROM bookings
		WHERE room = ?
		ORDER BY date, start_mins`,
		room,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.Room, &b.Date, &b.StartMinutes, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Insert stores a booking under its composite key.
func (s *SQLiteStore) Insert(ctx context.Context, b model.Booking) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, room, date, start_mins, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Key(), b.Room, b.Date, b.StartMinutes, b.Name, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	s.publish(ctx, b.Room, ChangeInsert)
	return nil
}

// Delete removes the booking at key. Removing an absent key succeeds and
// emits no notification.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", key)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil || affected == 0 {
		return nil
	}
	room, _, _, kerr := model.ParseKey(key)
	if kerr != nil {
		s.log.Warn().Str("key", key).Msg("deleted booking with unparsable key")
		return nil
	}
	s.publish(ctx, room, ChangeDelete)
	return nil
}

// Subscribe registers fn on the in-process hub.
func (s *SQLiteStore) Subscribe(fn ChangeFunc) *Subscription {
	return s.hub.Subscribe(fn)
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) publish(ctx context.Context, room string, kind ChangeKind) {
	s.hub.Publish(room, kind)
	if s.bridge != nil {
		s.bridge.Publish(ctx, room, kind)
	}
}
