package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// TicketsHandler manages service desk ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets?sectorId=&status=waiting,serving&from=&to=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketListFilter{Statuses: parseStatuses(c.Query("status"))}
	if sectorID := c.Query("sectorId"); sectorID != "" {
		filter.SectorID = &sectorID
	}
	from, err := parseTime(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTime(c, "to")
	if err != nil {
		return err
	}
	filter.CreatedFrom, filter.CreatedTo = from, to

	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// UpdateStatus POST /tickets/:id/status. Moving the ticket to another sector
// also needs the forward permission.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.TargetSectorID != nil && *req.TargetSectorID != "" && !principal.Permissions.Allows(domain.PermForwardTickets) {
		return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient permissions", http.StatusForbidden,
			map[string]any{"permission": string(domain.PermForwardTickets)})
	}
	ticket, err := h.service.UpdateTicketStatus(c.UserContext(), service.StatusUpdate{
		TicketID:       c.Params("id"),
		Status:         domain.TicketStatus(strings.TrimSpace(req.Status)),
		UserID:         principal.User.ID,
		TargetSectorID: req.TargetSectorID,
		Note:           req.Note,
		Counter:        req.Counter,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// CallTicket POST /tickets/:id/call.
func (h *TicketsHandler) CallTicket(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CallTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CallTicket(c.UserContext(), c.Params("id"), principal.User.ID, req.Counter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// CompleteTicket POST /tickets/:id/complete.
func (h *TicketsHandler) CompleteTicket(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CompleteTicket(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// ForwardTicket POST /tickets/:id/forward.
func (h *TicketsHandler) ForwardTicket(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ForwardTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ForwardTicket(c.UserContext(), c.Params("id"), principal.User.ID, req.TargetSectorID, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// CallNext POST /sectors/:id/call-next.
func (h *TicketsHandler) CallNext(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CallTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CallNext(c.UserContext(), c.Params("id"), principal.User.ID, req.Counter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.service.AddTicketNote(c.UserContext(), c.Params("id"), req.Content, principal.User.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": note})
}

// UpdateTags PUT /tickets/:id/tags.
func (h *TicketsHandler) UpdateTags(c *fiber.Ctx) error {
	var req dto.UpdateTagsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicketTags(c.UserContext(), c.Params("id"), req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}
