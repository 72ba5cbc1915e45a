// Package notifications publishes best-effort activity events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"vidnest/internal/cache"
	"vidnest/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types delivered to the owner of the affected content.
const (
	EventLiked      = "liked"
	EventCommented  = "commented"
	EventReplied    = "replied"
	EventSubscribed = "subscribed"
)

// Event is the JSON payload published on a user's channel.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actorId"`
	TargetType string    `json:"targetType,omitempty"`
	TargetID   uint      `json:"targetId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel is the channel carrying events for one user.
func UserChannel(userID uint) string {
	return cache.UserNotificationChannel(userID)
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Notify publishes ev to recipient. Events caused by the recipient themself are
// dropped, and delivery failures are logged rather than returned.
func (n *Notifier) Notify(ctx context.Context, recipient uint, ev Event) {
	if n == nil || n.rdb == nil || recipient == 0 || recipient == ev.ActorID {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := n.PublishUser(ctx, recipient, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.Uint64("recipient", uint64(recipient)),
			slog.String("type", ev.Type),
			slog.String("error", err.Error()))
	}
}

// SubscribeUser delivers every payload published to userID's channel to
// onMessage until ctx is done.
func (n *Notifier) SubscribeUser(ctx context.Context, userID uint, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("notifications are not available")
	}
	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", UserChannel(userID), err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
