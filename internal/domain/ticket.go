package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The string values are
// stored and exported verbatim.
type TicketStatus string

const (
	TicketStatusWaiting   TicketStatus = "waiting"
	TicketStatusServing   TicketStatus = "serving"
	TicketStatusForwarded TicketStatus = "forwarded"
	TicketStatusCompleted TicketStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusWaiting, TicketStatusServing, TicketStatusForwarded, TicketStatusCompleted:
		return true
	}
	return false
}

// Ticket is one customer's position in a sector queue.
type Ticket struct {
	ID          string         `json:"id"`
	Number      string         `json:"number"`
	SectorID    string         `json:"sectorId"`
	Status      TicketStatus   `json:"status"`
	Counter     *int           `json:"counter,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	History     []HistoryEntry `json:"history"`
	Notes       []Note         `json:"notes"`
	Tags        []string       `json:"tags"`
}

// HistoryEntry is an immutable record of one status or sector change.
type HistoryEntry struct {
	SectorID  string       `json:"sectorId"`
	Status    TicketStatus `json:"status"`
	Counter   *int         `json:"counter,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Note      string       `json:"note,omitempty"`
	UserID    string       `json:"userId,omitempty"`
}

// Note is free text attached to a ticket by an operator.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
}

// LastEntry returns the most recent history entry, if any.
func (t *Ticket) LastEntry() (HistoryEntry, bool) {
	if len(t.History) == 0 {
		return HistoryEntry{}, false
	}
	return t.History[len(t.History)-1], true
}

// TouchesSector reports whether any history entry was recorded in sectorID.
func (t *Ticket) TouchesSector(sectorID string) bool {
	for _, h := range t.History {
		if h.SectorID == sectorID {
			return true
		}
	}
	return false
}

// TouchesUser reports whether userID acted on the ticket.
func (t *Ticket) TouchesUser(userID string) bool {
	for _, h := range t.History {
		if h.UserID != "" && h.UserID == userID {
			return true
		}
	}
	return false
}

// WasForwarded reports whether the history spans more than one sector.
func (t *Ticket) WasForwarded() bool {
	if len(t.History) == 0 {
		return false
	}
	first := t.History[0].SectorID
	for _, h := range t.History[1:] {
		if h.SectorID != first {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share slices with a store.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.Counter = cloneInt(t.Counter)
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.History = make([]HistoryEntry, len(t.History))
	for i, h := range t.History {
		h.Counter = cloneInt(h.Counter)
		c.History[i] = h
	}
	c.Notes = append([]Note{}, t.Notes...)
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
