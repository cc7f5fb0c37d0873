package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
)

// SectorsHandler manages the sector registry.
type SectorsHandler struct {
	sectors *service.SectorService
}

// NewSectorsHandler constructs handler.
func NewSectorsHandler(sectorService *service.SectorService) *SectorsHandler {
	return &SectorsHandler{sectors: sectorService}
}

// List handles GET /sectors.
func (h *SectorsHandler) List(c *fiber.Ctx) error {
	sectors, err := h.sectors.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sectors})
}

// Create handles POST /sectors.
func (h *SectorsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSectorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	sector, err := h.sectors.Add(c.UserContext(), service.SectorInput{
		Name:             req.Name,
		Prefix:           req.Prefix,
		Color:            req.Color,
		IsVisible:        visible,
		Tags:             req.Tags,
		AllowedForwardTo: req.AllowedForwardTo,
		IsReception:      req.IsReception,
		Counters:         req.Counters,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sector})
}

// Update handles PATCH /sectors/:id.
func (h *SectorsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateSectorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sector, err := h.sectors.Update(c.UserContext(), c.Params("id"), service.SectorPatch{
		Name:             req.Name,
		Prefix:           req.Prefix,
		Color:            req.Color,
		IsVisible:        req.IsVisible,
		Tags:             req.Tags,
		AllowedForwardTo: req.AllowedForwardTo,
		IsReception:      req.IsReception,
		Counters:         req.Counters,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sector})
}

// Delete handles DELETE /sectors/:id.
func (h *SectorsHandler) Delete(c *fiber.Ctx) error {
	if err := h.sectors.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
