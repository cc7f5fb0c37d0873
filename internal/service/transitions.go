package service

import (
	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// allowedTransitions lists the statuses reachable from each status. A move
// into waiting from waiting or serving is a forward and additionally needs a
// sector change. forwarded is never a target; it only exists on older records.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusWaiting:   {domain.TicketStatusServing, domain.TicketStatusWaiting},
	domain.TicketStatusServing:   {domain.TicketStatusCompleted, domain.TicketStatusWaiting},
	domain.TicketStatusCompleted: {},
	domain.TicketStatusForwarded: {domain.TicketStatusWaiting, domain.TicketStatusServing},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidateTransition checks a status change against the transition table.
// Unknown targets are validation errors; disallowed moves are
// INVALID_TRANSITION.
func ValidateTransition(current, next domain.TicketStatus, sectorChanged bool) error {
	if !next.Valid() {
		return apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(next)})
	}
	if !isValidTransition(current, next) {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	if next == domain.TicketStatusWaiting && current != domain.TicketStatusForwarded && !sectorChanged {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	return nil
}
