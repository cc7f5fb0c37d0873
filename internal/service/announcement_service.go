package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/events"
)

// Publisher delivers a serialized event to a pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// AnnouncementService relays queue events to display panels.
type AnnouncementService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	channel    string
	logger     *zap.Logger
}

// NewAnnouncementService creates the service. A nil publisher only logs.
func NewAnnouncementService(dispatcher events.Dispatcher, publisher Publisher, channel string, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		dispatcher: dispatcher,
		publisher:  publisher,
		channel:    channel,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AnnouncementService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketIssued, a.handleTicketIssued)
	a.dispatcher.Subscribe(events.EventTicketCalled, a.handleTicketCalled)
	a.dispatcher.Subscribe(events.EventTicketForwarded, a.handleTicketForwarded)
	a.dispatcher.Subscribe(events.EventTicketCompleted, a.handleTicketCompleted)
}

func (a *AnnouncementService) handleTicketIssued(ctx context.Context, event events.Event) error {
	a.logger.Debug("TicketIssued", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return a.publish(ctx, event)
}

func (a *AnnouncementService) handleTicketCalled(ctx context.Context, event events.Event) error {
	a.logger.Info("TicketCalled", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return a.publish(ctx, event)
}

func (a *AnnouncementService) handleTicketForwarded(ctx context.Context, event events.Event) error {
	a.logger.Info("TicketForwarded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return a.publish(ctx, event)
}

func (a *AnnouncementService) handleTicketCompleted(ctx context.Context, event events.Event) error {
	a.logger.Debug("TicketCompleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return a.publish(ctx, event)
}

func (a *AnnouncementService) publish(ctx context.Context, event events.Event) error {
	if a.publisher == nil || a.channel == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return a.publisher.Publish(ctx, a.channel, body)
}
