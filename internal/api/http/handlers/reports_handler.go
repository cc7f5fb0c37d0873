package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/stats"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// ReportsHandler serves dashboards and reports. Every endpoint accepts an
// optional from/to RFC3339 window unless noted.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// Overview GET /reports/overview.
func (h *ReportsHandler) Overview(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return err
	}
	overview, err := h.reports.Overview(c.UserContext(), w)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// Sectors GET /reports/sectors.
func (h *ReportsHandler) Sectors(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return err
	}
	summaries, err := h.reports.Sectors(c.UserContext(), w)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Users GET /reports/users.
func (h *ReportsHandler) Users(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return err
	}
	summaries, err := h.reports.Users(c.UserContext(), w)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Timeline GET /reports/timeline?ticketId=.
func (h *ReportsHandler) Timeline(c *fiber.Ctx) error {
	ticketID := strings.TrimSpace(c.Query("ticketId"))
	if ticketID == "" {
		return apperrors.NewValidationError("ticketId required", map[string]any{"ticketId": "required"})
	}
	timeline, err := h.reports.Timeline(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timeline})
}

// Daily GET /reports/daily?days=7.
func (h *ReportsHandler) Daily(c *fiber.Ctx) error {
	volume, err := h.reports.Daily(c.UserContext(), parseInt(c.Query("days"), 7))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": volume})
}

// Dashboard GET /reports/dashboard. Live state, no window.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	boards, err := h.reports.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": boards})
}

// Logs GET /reports/logs?kind=login|ticket&search=.
func (h *ReportsHandler) Logs(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return err
	}
	filter := stats.ActivityFilter{Window: w, Search: c.Query("search")}
	switch kind := stats.ActivityKind(c.Query("kind")); kind {
	case "", stats.ActivityLogin, stats.ActivityTicket:
		filter.Kind = kind
	default:
		return apperrors.NewValidationError("unknown activity kind", map[string]any{"kind": string(kind)})
	}
	logs, err := h.reports.Activity(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": logs})
}
