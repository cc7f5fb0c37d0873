package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/persistence"
)

// dependencyCheck pings one backing service. A nil ping marks the dependency
// as disabled in this deployment.
type dependencyCheck struct {
	name string
	ping func(context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	started     time.Time
	checks      []dependencyCheck
}

// NewHealthHandler returns a new handler instance. postgres and redis may be
// nil when the ledger runs on memory stores.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	h := &HealthHandler{serviceName: serviceName, version: version, started: time.Now()}

	pg := dependencyCheck{name: "postgres"}
	if postgres.PoolHandle() != nil {
		pg.ping = postgres.Ping
	}
	rd := dependencyCheck{name: "redis"}
	if redis != nil {
		rd.ping = redis.Ping
	}
	h.checks = []dependencyCheck{pg, rd}
	return h
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "alive",
		"service":       h.serviceName,
		"version":       h.version,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	})
}

// Ready reports service readiness by checking the configured dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		switch {
		case check.ping == nil:
			depStatus[check.name] = "disabled"
		case check.ping(ctx) != nil:
			depStatus[check.name] = "unreachable"
			ready = false
		default:
			depStatus[check.name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
