package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"videoId", "video ID"},
		{"commentId", "comment ID"},
		{"channelId", "channel ID"},
		{"subscriberId", "subscriber ID"},
		{"username", "username"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit})
	})

	tests := []struct {
		query string
		page  float64
		limit float64
	}{
		{"", 1, 0},
		{"?page=3&limit=25", 3, 25},
		{"?page=abc", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.page, body["page"])
			assert.Equal(t, tt.limit, body["limit"])
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name        string
		param       string
		value       string
		status      int
		expectedMsg string
	}{
		{"valid", "id", "42", http.StatusOK, ""},
		{"non numeric", "id", "abc", http.StatusBadRequest, "Invalid ID"},
		{"zero", "videoId", "0", http.StatusBadRequest, "Invalid video ID"},
		{"negative", "channelId", "-4", http.StatusBadRequest, "Invalid channel ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				id, err := s.parseID(c, tt.param)
				if err != nil {
					return nil
				}
				return c.JSON(fiber.Map{"id": id})
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.expectedMsg != "" {
				var body envelope
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedMsg, body.Message)
				assert.False(t, body.Success)
				assert.Equal(t, http.StatusBadRequest, body.StatusCode)
			}
		})
	}
}
