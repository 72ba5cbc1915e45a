package server

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"vidnest/internal/cache"
	"vidnest/internal/middleware"
	"vidnest/internal/models"
	"vidnest/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	notificationBuffer    = 32
	notificationKeepAlive = 25 * time.Second
	wsTicketTTL           = 30 * time.Second
)

// subscribe forwards the user's notifications into a buffered channel until ctx ends.
// Events that arrive while the client is slow are dropped.
func (s *Server) subscribe(ctx context.Context, userID uint) (<-chan string, error) {
	events := make(chan string, notificationBuffer)
	err := s.notifier.SubscribeUser(ctx, userID, func(payload string) {
		select {
		case events <- payload:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// StreamNotifications handles GET /api/v1/notifications/stream as server-sent events.
func (s *Server) StreamNotifications(c *fiber.Ctx) error {
	userID := viewerID(c)
	ctx, cancel := context.WithCancel(s.baseContext())

	events, err := s.subscribe(ctx, userID)
	if err != nil {
		cancel()
		middleware.Logger.WarnContext(c.UserContext(), "notification stream unavailable",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			fiber.NewError(fiber.StatusServiceUnavailable, "Notifications are unavailable"))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		observability.NotificationStreams.WithLabelValues("sse").Inc()
		defer observability.NotificationStreams.WithLabelValues("sse").Dec()
		ticker := time.NewTicker(notificationKeepAlive)
		defer ticker.Stop()

		_, _ = fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-events:
				_, _ = fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			case <-ticker.C:
				_, _ = fmt.Fprint(w, ": ping\n\n")
			}
			// a failed flush means the client went away
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

// IssueNotificationTicket handles POST /api/v1/notifications/ticket. Browsers cannot
// set headers on a WebSocket handshake, so the socket authenticates with this
// short-lived single-use ticket instead of the access token.
func (s *Server) IssueNotificationTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			fiber.NewError(fiber.StatusServiceUnavailable, "Notifications are unavailable"))
	}

	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket), viewerID(c), wsTicketTTL).Err(); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to store websocket ticket", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			fiber.NewError(fiber.StatusServiceUnavailable, "Notifications are unavailable"))
	}

	return models.Respond(c, fiber.StatusCreated, fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(wsTicketTTL.Seconds()),
	}, "Ticket issued")
}

// NotificationTicketAuth admits WebSocket upgrades that present a valid ticket.
// The ticket is consumed on first use.
func (s *Server) NotificationTicketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired, fiber.ErrUpgradeRequired)
	}

	invalid := models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	ticket := c.Query("ticket")
	if ticket == "" || s.redis == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
	}
	raw, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
	}

	c.Locals(middleware.LocalUserID, uint(userID))
	return c.Next()
}

// NotificationSocket handles GET /api/v1/notifications/ws. Each notification is
// sent as one text frame holding the event JSON.
func (s *Server) NotificationSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer func() { _ = conn.Close() }()

		userID, ok := conn.Locals(middleware.LocalUserID).(uint)
		if !ok {
			return
		}
		observability.NotificationStreams.WithLabelValues("websocket").Inc()
		defer observability.NotificationStreams.WithLabelValues("websocket").Dec()

		ctx, cancel := context.WithCancel(s.baseContext())
		defer cancel()

		events, err := s.subscribe(ctx, userID)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"notifications unavailable"}`))
			return
		}

		// Clients send nothing; reading only detects the close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(notificationKeepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-events:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	})
}
