// Package auth issues and verifies the bearer credentials used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vidnest/internal/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Issuer is stamped into and required from every token.
	Issuer = "vidnest-api"
	// Audience is stamped into and required from every token.
	Audience = "vidnest-client"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired and mis-signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevokedToken is returned for tokens on the blacklist.
	ErrRevokedToken = errors.New("token has been revoked")
)

// Identity is a verified token subject.
type Identity struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// Revocations tracks token ids that must no longer be accepted.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type claims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// Tokens signs and verifies HS256 access and refresh tokens.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    Revocations
	now        func() time.Time
}

// NewTokens builds a token service. revoked may be nil to disable the blacklist.
func NewTokens(secret string, accessTTL, refreshTTL time.Duration, revoked Revocations) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
}

// IssueAccess signs a short-lived access token for userID.
func (t *Tokens) IssueAccess(userID uint) (string, Identity, error) {
	return t.issue(userID, kindAccess, t.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for userID.
func (t *Tokens) IssueRefresh(userID uint) (string, Identity, error) {
	return t.issue(userID, kindRefresh, t.refreshTTL)
}

func (t *Tokens) issue(userID uint, kind string, ttl time.Duration) (string, Identity, error) {
	if len(t.secret) == 0 {
		return "", Identity{}, fmt.Errorf("JWT secret not configured")
	}
	now := t.now()
	id := Identity{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        id.TokenID,
		},
		Kind: kind,
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Identity{}, err
	}
	return signed, id, nil
}

// VerifyAccess resolves an access token to its subject, rejecting revoked tokens.
func (t *Tokens) VerifyAccess(ctx context.Context, raw string) (Identity, error) {
	id, err := t.verify(raw, kindAccess)
	if err != nil {
		return Identity{}, err
	}
	if t.revoked != nil {
		revoked, err := t.revoked.IsRevoked(ctx, id.TokenID)
		if err == nil && revoked {
			return Identity{}, ErrRevokedToken
		}
	}
	return id, nil
}

// VerifyRefresh resolves a refresh token to its subject.
func (t *Tokens) VerifyRefresh(raw string) (Identity, error) {
	return t.verify(raw, kindRefresh)
}

// Revoke blacklists an access token until it would have expired anyway.
func (t *Tokens) Revoke(ctx context.Context, id Identity) error {
	if t.revoked == nil || id.TokenID == "" {
		return nil
	}
	ttl := id.ExpiresAt.Sub(t.now())
	if ttl <= 0 {
		return nil
	}
	return t.revoked.Revoke(ctx, id.TokenID, ttl)
}

func (t *Tokens) verify(raw, kind string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || c.Kind != kind {
		return Identity{}, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || userID == 0 {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{UserID: uint(userID), TokenID: c.ID}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}

// RedisRevocations stores revoked token ids as expiring redis keys.
type RedisRevocations struct {
	rdb *redis.Client
}

// NewRedisRevocations returns nil when rdb is nil so callers can pass the result straight to NewTokens.
func NewRedisRevocations(rdb *redis.Client) Revocations {
	if rdb == nil {
		return nil
	}
	return &RedisRevocations{rdb: rdb}
}

// IsRevoked implements Revocations.
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, cache.RevokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke implements Revocations.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, cache.RevokedTokenKey(tokenID), "1", ttl).Err()
}
