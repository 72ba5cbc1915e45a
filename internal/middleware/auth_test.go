package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidnest/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens(testSecret, time.Hour, time.Hour, nil)

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": ViewerID(c)})
	})

	access, _, err := tokens.IssueAccess(123)
	require.NoError(t, err)
	refresh, _, err := tokens.IssueRefresh(123)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID float64
	}{
		{"Happy Path", "Bearer " + access, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Garbage Token", "Bearer not-a-jwt", http.StatusUnauthorized, 0},
		{"Refresh Token Rejected", "Bearer " + refresh, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedUserID, body["userID"])
			} else {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, float64(tt.expectedStatus), body["statusCode"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens(testSecret, time.Hour, time.Hour, nil)

	app := fiber.New()
	app.Get("/test", OptionalAuth(tokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": ViewerID(c)})
	})

	access, _, err := tokens.IssueAccess(5)
	require.NoError(t, err)

	cases := map[string]float64{
		"":                  0,
		"Bearer " + access:  5,
		"Bearer not-a-jwt":  0,
		"Token " + access:   0,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, want, body["userID"], header)
	}
}
