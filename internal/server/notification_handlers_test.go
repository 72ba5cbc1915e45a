package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"vidnest/internal/cache"
	"vidnest/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationTicket(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newTestEnvWithRedis(t, rdb)
	user := testutil.CreateUser(t, e.db, "listener")

	status, _ := e.do(t, http.MethodPost, "/api/v1/notifications/ticket", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := e.do(t, http.MethodPost, "/api/v1/notifications/ticket", nil, e.token(t, user.ID))
	require.Equal(t, http.StatusCreated, status, body.Message)
	issued := decode[struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expiresIn"`
	}](t, body)
	assert.Equal(t, 30, issued.ExpiresIn)

	key := cache.WSTicketKey(issued.Ticket)
	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(int(user.ID)), stored)
	assert.Equal(t, wsTicketTTL, mr.TTL(key))

	// a plain GET is refused before the ticket is consumed
	status, _ = e.do(t, http.MethodGet, "/api/v1/notifications/ws?ticket="+issued.Ticket, nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.True(t, mr.Exists(key))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/ws?ticket=bogus", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	status, body = e.send(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired WebSocket ticket", body.Message)
}

func TestNotificationTicketWithoutRedis(t *testing.T) {
	e := newTestEnvWithRedis(t, nil)
	status, body := e.do(t, http.MethodPost, "/api/v1/notifications/ticket", nil, e.token(t, 1))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Notifications are unavailable", body.Message)
}
