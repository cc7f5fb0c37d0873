package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
)

// DisplayHandler feeds the public call panel.
type DisplayHandler struct {
	tickets *service.TicketService
}

// NewDisplayHandler constructs handler.
func NewDisplayHandler(ticketService *service.TicketService) *DisplayHandler {
	return &DisplayHandler{tickets: ticketService}
}

// Board handles GET /display.
func (h *DisplayHandler) Board(c *fiber.Ctx) error {
	board, err := h.tickets.DisplayBoard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": board})
}

// PublicBoard handles GET /display/public for panels that run without a login.
func (h *DisplayHandler) PublicBoard(c *fiber.Ctx) error {
	board, err := h.tickets.DisplayBoard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPanelBoardResponse(board.Serving, board.LastCalls)})
}
