package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestReadyReportsDependencies(t *testing.T) {
	cases := []struct {
		name   string
		checks []dependencyCheck
		status int
	}{
		{"all disabled", []dependencyCheck{{name: "postgres"}, {name: "redis"}}, fiber.StatusOK},
		{"healthy", []dependencyCheck{{name: "postgres", ping: func(context.Context) error { return nil }}}, fiber.StatusOK},
		{"redis down", []dependencyCheck{
			{name: "postgres", ping: func(context.Context) error { return nil }},
			{name: "redis", ping: func(context.Context) error { return errors.New("dial tcp: refused") }},
		}, fiber.StatusServiceUnavailable},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("queue", "test", nil, nil)
			h.checks = tt.checks
			app := fiber.New()
			app.Get("/ready", h.Ready)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil), -1)
			if err != nil {
				t.Fatalf("Test: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status=%d want %d", resp.StatusCode, tt.status)
			}
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
		})
	}
}
