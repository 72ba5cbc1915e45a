package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const (
	videoListGenerationKey = "videos:list:gen"
	videoListKeyFormat     = "videos:list:%d:%s"
	revokedTokenKeyFormat  = "blacklist:%s"
	notifyChannelFormat    = "notifications:user:%d"
	wsTicketKeyFormat      = "ws_ticket:%s"
)

const (
	// VideoListTTL bounds staleness of cached anonymous listings.
	VideoListTTL = 30 * time.Second
)

// VideoListGeneration returns the current listing generation. Bumping it orphans every cached page.
func VideoListGeneration(ctx context.Context) int64 {
	c := GetClient()
	if c == nil {
		return 0
	}
	raw, err := c.Get(ctx, videoListGenerationKey).Result()
	if err != nil {
		return 0
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return gen
}

// VideoListKey builds the cache key for one listing query under generation gen.
func VideoListKey(gen int64, fingerprint string) string {
	sum := sha1.Sum([]byte(fingerprint))
	return fmt.Sprintf(videoListKeyFormat, gen, hex.EncodeToString(sum[:8]))
}

// InvalidateVideoLists orphans every cached listing page.
func InvalidateVideoLists(ctx context.Context) {
	if c := GetClient(); c != nil {
		c.Incr(ctx, videoListGenerationKey)
	}
}

// RevokedTokenKey is the blacklist key for a token id.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(revokedTokenKeyFormat, jti)
}

// UserNotificationChannel is the pub/sub channel carrying events for one user.
func UserNotificationChannel(userID uint) string {
	return fmt.Sprintf(notifyChannelFormat, userID)
}

// WSTicketKey holds the user id a single-use WebSocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf(wsTicketKeyFormat, ticket)
}
