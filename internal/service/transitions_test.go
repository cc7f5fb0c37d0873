package service

import (
	"testing"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

func TestValidateTransition(t *testing.T) {
	const (
		waiting   = domain.TicketStatusWaiting
		serving   = domain.TicketStatusServing
		completed = domain.TicketStatusCompleted
		forwarded = domain.TicketStatusForwarded
	)
	cases := []struct {
		name          string
		from, to      domain.TicketStatus
		sectorChanged bool
		wantCode      string
	}{
		{"call", waiting, serving, false, ""},
		{"complete", serving, completed, false, ""},
		{"forward waiting", waiting, waiting, true, ""},
		{"forward serving", serving, waiting, true, ""},
		{"requeue same sector", serving, waiting, false, apperrors.CodeInvalidTransition},
		{"self forward", waiting, waiting, false, apperrors.CodeInvalidTransition},
		{"skip serving", waiting, completed, false, apperrors.CodeInvalidTransition},
		{"serve twice", serving, serving, false, apperrors.CodeInvalidTransition},
		{"reopen", completed, waiting, true, apperrors.CodeInvalidTransition},
		{"recall completed", completed, serving, false, apperrors.CodeInvalidTransition},
		{"target forwarded", waiting, forwarded, false, apperrors.CodeInvalidTransition},
		{"legacy forwarded to waiting", forwarded, waiting, false, ""},
		{"legacy forwarded to serving", forwarded, serving, false, ""},
		{"unknown status", waiting, domain.TicketStatus("paused"), false, apperrors.CodeValidation},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.sectorChanged)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected transition allowed, got %v", err)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}
