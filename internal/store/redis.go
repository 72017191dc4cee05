package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bridge relays change notifications across processes through a Redis
// pub/sub channel, so sessions served by other instances still reconcile.
type Bridge struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zerolog.Logger
	origin  string
}

type changeEvent struct {
	Origin string     `json:"origin"`
	Room   string     `json:"room"`
	Kind   ChangeKind `json:"kind"`
}

// NewBridge creates a bridge feeding remote events into hub.
func NewBridge(rdb *redis.Client, channel string, hub *Hub, logger *zerolog.Logger) *Bridge {
	if channel == "" {
		channel = "lokalebooking:changes"
	}
	return &Bridge{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
		log:     logger,
		origin:  uuid.NewString(),
	}
}

// Publish sends a local change to the channel. Failures are logged only;
// remote listeners fall back to their next reconciliation.
func (b *Bridge) Publish(ctx context.Context, room string, kind ChangeKind) {
	data, err := json.Marshal(changeEvent{Origin: b.origin, Room: room, Kind: kind})
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		b.log.Warn().Err(err).Str("room", room).Msg("publish change to redis failed")
	}
}

// Run consumes the channel until ctx is cancelled, republishing remote
// events on the local hub. Own events are skipped by origin id.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev changeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Msg("malformed change event from redis")
				continue
			}
			if ev.Origin == b.origin {
				continue
			}
			b.hub.Publish(ev.Room, ev.Kind)
		}
	}
}
