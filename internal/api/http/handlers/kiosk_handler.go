package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// KioskHandler serves the ticket issuing terminal.
type KioskHandler struct {
	sectors *service.SectorService
	tickets *service.TicketService
}

// NewKioskHandler constructs handler.
func NewKioskHandler(sectorService *service.SectorService, ticketService *service.TicketService) *KioskHandler {
	return &KioskHandler{sectors: sectorService, tickets: ticketService}
}

// Sectors handles GET /kiosk/sectors.
func (h *KioskHandler) Sectors(c *fiber.Ctx) error {
	sectors, err := h.sectors.ListVisible(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sectors})
}

// Issue handles POST /kiosk/tickets.
func (h *KioskHandler) Issue(c *fiber.Ctx) error {
	var req dto.IssueTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.SectorID) == "" {
		return apperrors.NewValidationError("sectorId required", map[string]any{"sectorId": "required"})
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), req.SectorID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}
