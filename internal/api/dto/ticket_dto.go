package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// IssueTicketRequest payload for the kiosk.
type IssueTicketRequest struct {
	SectorID string `json:"sectorId"`
}

// StatusUpdateRequest payload for the generic status endpoint.
type StatusUpdateRequest struct {
	Status         string  `json:"status"`
	TargetSectorID *string `json:"targetSectorId"`
	Note           string  `json:"note"`
	Counter        *int    `json:"counter"`
}

// CallTicketRequest payload; Counter is required in reception sectors.
type CallTicketRequest struct {
	Counter *int `json:"counter"`
}

// ForwardTicketRequest payload.
type ForwardTicketRequest struct {
	TargetSectorID string `json:"targetSectorId"`
	Note           string `json:"note"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content string `json:"content"`
}

// UpdateTagsRequest payload; the list replaces the current tags.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// PanelTicket is the part of a ticket shown on the unauthenticated call panel.
type PanelTicket struct {
	Number      string              `json:"number"`
	SectorID    string              `json:"sectorId"`
	Status      domain.TicketStatus `json:"status"`
	Counter     *int                `json:"counter,omitempty"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

// PanelBoardResponse mirrors the display board without notes, history or operator ids.
type PanelBoardResponse struct {
	Serving   []PanelTicket `json:"serving"`
	LastCalls []PanelTicket `json:"lastCalls"`
}

// NewPanelBoardResponse trims the board tickets to their panel fields.
func NewPanelBoardResponse(serving, lastCalls []domain.Ticket) PanelBoardResponse {
	return PanelBoardResponse{Serving: panelTickets(serving), LastCalls: panelTickets(lastCalls)}
}

func panelTickets(tickets []domain.Ticket) []PanelTicket {
	out := make([]PanelTicket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, PanelTicket{
			Number:      t.Number,
			SectorID:    t.SectorID,
			Status:      t.Status,
			Counter:     t.Counter,
			StartedAt:   t.StartedAt,
			CompletedAt: t.CompletedAt,
		})
	}
	return out
}
