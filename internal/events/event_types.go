package events

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketIssued      EventType = "ticket_issued"
	EventTicketCalled      EventType = "ticket_called"
	EventTicketForwarded   EventType = "ticket_forwarded"
	EventTicketCompleted   EventType = "ticket_completed"
	EventTicketNoteAdded   EventType = "ticket_note_added"
	EventTicketTagsUpdated EventType = "ticket_tags_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticketId"`
	UserID    string      `json:"userId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketIssuedPayload payload.
type TicketIssuedPayload struct {
	Number   string `json:"number"`
	SectorID string `json:"sectorId"`
}

// TicketCalledPayload is what display panels announce.
type TicketCalledPayload struct {
	Number     string `json:"number"`
	SectorID   string `json:"sectorId"`
	SectorName string `json:"sectorName"`
	Counter    *int   `json:"counter,omitempty"`
}

// TicketForwardedPayload payload.
type TicketForwardedPayload struct {
	Number       string `json:"number"`
	FromSectorID string `json:"fromSectorId"`
	ToSectorID   string `json:"toSectorId"`
	Note         string `json:"note,omitempty"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	Number   string `json:"number"`
	SectorID string `json:"sectorId"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID  string `json:"noteId"`
	Preview string `json:"preview"`
}

// TicketTagsUpdatedPayload payload.
type TicketTagsUpdatedPayload struct {
	Tags []string `json:"tags"`
}

// StatusEvent maps a ticket status reached by a transition to its event type.
func StatusEvent(status domain.TicketStatus) EventType {
	switch status {
	case domain.TicketStatusServing:
		return EventTicketCalled
	case domain.TicketStatusCompleted:
		return EventTicketCompleted
	default:
		return EventTicketForwarded
	}
}
