package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/queue-service/internal/domain"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventTicketCalled, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("speaker offline")
	})
	d.Subscribe(EventTicketCalled, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketIssued, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCalled, TicketID: "t1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestStatusEvent(t *testing.T) {
	cases := map[domain.TicketStatus]EventType{
		domain.TicketStatusServing:   EventTicketCalled,
		domain.TicketStatusCompleted: EventTicketCompleted,
		domain.TicketStatusWaiting:   EventTicketForwarded,
	}
	for status, want := range cases {
		if got := StatusEvent(status); got != want {
			t.Fatalf("StatusEvent(%q)=%q, want %q", status, got, want)
		}
	}
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	reached := false
	d.Subscribe(EventTicketCompleted, func(context.Context, Event) error {
		panic("display crashed")
	})
	d.Subscribe(EventTicketCompleted, func(context.Context, Event) error {
		reached = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCompleted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !reached {
		t.Fatalf("handler after a panicking one was skipped")
	}
}
