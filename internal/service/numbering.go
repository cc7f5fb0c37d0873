package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/queue-service/internal/domain"
)

// FormatTicketNumber renders prefix followed by the sequence padded to three
// digits. Sequences from 1000 on simply grow wider.
func FormatTicketNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// nextTicketNumber draws the next sequence for sector. The counter never goes
// below the number of tickets already in the sector plus one, so a fresh
// counter on an existing ledger continues where the tickets left off.
func (s *TicketService) nextTicketNumber(ctx context.Context, sector *domain.Sector) (string, error) {
	count, err := s.tickets.CountBySector(ctx, sector.ID)
	if err != nil {
		return "", err
	}
	seq, err := s.sequences.Next(ctx, sector.ID, int64(count)+1)
	if err != nil {
		return "", err
	}
	return FormatTicketNumber(sector.Prefix, seq), nil
}
