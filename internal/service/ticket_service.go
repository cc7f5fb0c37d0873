package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// DefaultForwardNote is recorded on forwards made without a note.
const DefaultForwardNote = "Encaminhado para outro setor"

// TicketService owns the ticket ledger. Every mutation runs under one lock so
// a ticket number, a history append and the stored snapshot never interleave
// across operators.
type TicketService struct {
	mu            sync.Mutex
	tickets       repository.TicketRepository
	sectors       repository.SectorRepository
	sequences     repository.SequenceRepository
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
	recentServing int
	recentCalls   int
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	SectorRepo    repository.SectorRepository
	SequenceRepo  repository.SequenceRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         func() time.Time
	RecentServing int
	RecentCalls   int
}

// StatusUpdate requests a status change. TargetSectorID moves the ticket;
// Counter is the reception window calling it.
type StatusUpdate struct {
	TicketID       string
	Status         domain.TicketStatus
	UserID         string
	TargetSectorID *string
	Note           string
	Counter        *int
}

// TicketListFilter describes ticket listing filters. CreatedTo is exclusive.
type TicketListFilter struct {
	SectorID    *string
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// DisplayBoard is what the public panel shows.
type DisplayBoard struct {
	Serving   []domain.Ticket `json:"serving"`
	LastCalls []domain.Ticket `json:"lastCalls"`
}

type transitionOptions struct {
	requireCounter bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:       deps.TicketRepo,
		sectors:       deps.SectorRepo,
		sequences:     deps.SequenceRepo,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           deps.Clock,
		recentServing: deps.RecentServing,
		recentCalls:   deps.RecentCalls,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recentServing <= 0 {
		s.recentServing = 4
	}
	if s.recentCalls <= 0 {
		s.recentCalls = 10
	}
	return s
}

// CreateTicket issues a waiting ticket in sectorID.
func (s *TicketService) CreateTicket(ctx context.Context, sectorID string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.CreateTicket")
	defer span.End()

	s.mu.Lock()
	sector, err := s.sectors.GetByID(ctx, sectorID)
	if err != nil {
		s.mu.Unlock()
		return nil, sectorError(err, sectorID)
	}
	number, err := s.nextTicketNumber(ctx, sector)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	now := s.now()
	ticket := &domain.Ticket{
		ID:        uuid.NewString(),
		Number:    number,
		SectorID:  sector.ID,
		Status:    domain.TicketStatusWaiting,
		CreatedAt: now,
		History: []domain.HistoryEntry{{
			SectorID:  sector.ID,
			Status:    domain.TicketStatusWaiting,
			Timestamp: now,
		}},
		Notes: []domain.Note{},
		Tags:  []string{},
	}
	err = s.tickets.Create(ctx, ticket)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("ticket.id", ticket.ID), attribute.String("ticket.number", number))
	s.metrics.TicketIssued(sector.ID)
	s.logger.Info("ticket issued",
		zap.String("ticket_id", ticket.ID),
		zap.String("number", number),
		zap.String("sector_id", sector.ID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketIssued,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload:   events.TicketIssuedPayload{Number: number, SectorID: sector.ID},
	})
	return ticket, nil
}

// UpdateTicketStatus applies a status change and appends it to the history.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, upd StatusUpdate) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.UpdateTicketStatus")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", upd.TicketID), attribute.String("ticket.status", string(upd.Status)))

	s.mu.Lock()
	ticket, from, sector, err := s.applyStatus(ctx, upd, transitionOptions{})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, ticket, from, sector)
	return ticket, nil
}

// CallTicket puts a ticket in service. Reception sectors need the counter.
func (s *TicketService) CallTicket(ctx context.Context, ticketID, userID string, counter *int) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.CallTicket")
	defer span.End()

	s.mu.Lock()
	ticket, from, sector, err := s.applyStatus(ctx, StatusUpdate{
		TicketID: ticketID,
		Status:   domain.TicketStatusServing,
		UserID:   userID,
		Counter:  counter,
	}, transitionOptions{requireCounter: true})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, ticket, from, sector)
	return ticket, nil
}

// CompleteTicket finishes service of a ticket.
func (s *TicketService) CompleteTicket(ctx context.Context, ticketID, userID string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.CompleteTicket")
	defer span.End()

	s.mu.Lock()
	ticket, from, sector, err := s.applyStatus(ctx, StatusUpdate{
		TicketID: ticketID,
		Status:   domain.TicketStatusCompleted,
		UserID:   userID,
	}, transitionOptions{})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, ticket, from, sector)
	return ticket, nil
}

// ForwardTicket moves a ticket to the waiting queue of another sector.
func (s *TicketService) ForwardTicket(ctx context.Context, ticketID, userID, targetSectorID, note string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.ForwardTicket")
	defer span.End()

	if strings.TrimSpace(targetSectorID) == "" {
		return nil, apperrors.NewValidationError("target sector is required", map[string]any{"targetSectorId": "required"})
	}
	if strings.TrimSpace(note) == "" {
		note = DefaultForwardNote
	}

	s.mu.Lock()
	ticket, from, sector, err := s.applyStatus(ctx, StatusUpdate{
		TicketID:       ticketID,
		Status:         domain.TicketStatusWaiting,
		UserID:         userID,
		TargetSectorID: &targetSectorID,
		Note:           note,
	}, transitionOptions{})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, ticket, from, sector)
	return ticket, nil
}

// CallNext calls the oldest waiting ticket of sectorID.
func (s *TicketService) CallNext(ctx context.Context, sectorID, userID string, counter *int) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.CallNext")
	defer span.End()

	s.mu.Lock()
	if _, err := s.sectors.GetByID(ctx, sectorID); err != nil {
		s.mu.Unlock()
		return nil, sectorError(err, sectorID)
	}
	waiting, err := s.tickets.List(ctx, repository.TicketFilter{
		SectorID: &sectorID,
		Statuses: []domain.TicketStatus{domain.TicketStatusWaiting},
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(waiting) == 0 {
		s.mu.Unlock()
		return nil, apperrors.NewNotFound("waiting ticket", sectorID)
	}
	next := waiting[0]
	for _, candidate := range waiting[1:] {
		if candidate.CreatedAt.Before(next.CreatedAt) {
			next = candidate
		}
	}
	ticket, from, sector, err := s.applyStatus(ctx, StatusUpdate{
		TicketID: next.ID,
		Status:   domain.TicketStatusServing,
		UserID:   userID,
		Counter:  counter,
	}, transitionOptions{requireCounter: true})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, ticket, from, sector)
	return ticket, nil
}

// applyStatus must be called with s.mu held.
func (s *TicketService) applyStatus(ctx context.Context, upd StatusUpdate, opts transitionOptions) (*domain.Ticket, domain.HistoryEntry, *domain.Sector, error) {
	ticket, err := s.tickets.GetByID(ctx, upd.TicketID)
	if err != nil {
		return nil, domain.HistoryEntry{}, nil, ticketError(err, upd.TicketID)
	}
	from, _ := ticket.LastEntry()

	effective := ticket.SectorID
	if upd.TargetSectorID != nil && *upd.TargetSectorID != "" {
		effective = *upd.TargetSectorID
	}
	sectorChanged := effective != ticket.SectorID

	if err := ValidateTransition(ticket.Status, upd.Status, sectorChanged); err != nil {
		return nil, from, nil, err
	}

	sector, err := s.sectors.GetByID(ctx, effective)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound) && !sectorChanged:
		// the current sector was removed; the ticket can still be worked
		sector = nil
	default:
		return nil, from, nil, sectorError(err, effective)
	}

	if sectorChanged {
		if source, err := s.sectors.GetByID(ctx, ticket.SectorID); err == nil && !source.CanForwardTo(effective) {
			return nil, from, nil, apperrors.NewValidationError("forwarding to this sector is not allowed", map[string]any{
				"from": ticket.SectorID,
				"to":   effective,
			})
		}
	}

	counter := upd.Counter
	if sector != nil {
		switch {
		case !sector.IsReception:
			counter = nil
		case counter != nil && !sector.HasCounter(*counter):
			return nil, from, nil, apperrors.NewValidationError("counter out of range", map[string]any{
				"counter":  *counter,
				"counters": sector.Counters,
			})
		case counter == nil && opts.requireCounter:
			return nil, from, nil, apperrors.NewValidationError("counter is required for reception sectors", map[string]any{"counter": "required"})
		}
	}

	ts := s.now()
	if ts.Before(from.Timestamp) {
		ts = from.Timestamp
	}
	ticket.History = append(ticket.History, domain.HistoryEntry{
		SectorID:  effective,
		Status:    upd.Status,
		Counter:   counter,
		Timestamp: ts,
		Note:      strings.TrimSpace(upd.Note),
		UserID:    upd.UserID,
	})
	ticket.Status = upd.Status
	ticket.SectorID = effective
	ticket.Counter = counter
	if upd.Status == domain.TicketStatusServing && ticket.StartedAt == nil {
		started := ts
		ticket.StartedAt = &started
	}
	if upd.Status == domain.TicketStatusCompleted && ticket.CompletedAt == nil {
		completed := ts
		ticket.CompletedAt = &completed
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, from, nil, ticketError(err, ticket.ID)
	}
	return ticket, from, sector, nil
}

func (s *TicketService) afterTransition(ctx context.Context, ticket *domain.Ticket, from domain.HistoryEntry, sector *domain.Sector) {
	last, _ := ticket.LastEntry()
	s.metrics.TicketTransition(ticket.Status)
	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("number", ticket.Number),
		zap.String("sector_id", ticket.SectorID),
		zap.String("from", string(from.Status)),
		zap.String("status", string(ticket.Status)),
		zap.String("user_id", last.UserID))

	event := events.Event{
		Type:      events.StatusEvent(ticket.Status),
		TicketID:  ticket.ID,
		UserID:    last.UserID,
		Timestamp: last.Timestamp,
	}
	switch event.Type {
	case events.EventTicketCalled:
		payload := events.TicketCalledPayload{Number: ticket.Number, SectorID: ticket.SectorID, Counter: ticket.Counter}
		if sector != nil {
			payload.SectorName = sector.Name
		}
		event.Payload = payload
	case events.EventTicketCompleted:
		event.Payload = events.TicketCompletedPayload{Number: ticket.Number, SectorID: ticket.SectorID}
	default:
		event.Payload = events.TicketForwardedPayload{
			Number:       ticket.Number,
			FromSectorID: from.SectorID,
			ToSectorID:   ticket.SectorID,
			Note:         last.Note,
		}
	}
	s.publishEvent(ctx, event)
}

// AddTicketNote appends a note to a ticket.
func (s *TicketService) AddTicketNote(ctx context.Context, ticketID, content, userID string) (*domain.Note, error) {
	ctx, span := tracer.Start(ctx, "TicketService.AddTicketNote")
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("note content is required", map[string]any{"content": "required"})
	}

	s.mu.Lock()
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.mu.Unlock()
		return nil, ticketError(err, ticketID)
	}
	note := domain.Note{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: s.now(),
		UserID:    userID,
	}
	ticket.Notes = append(ticket.Notes, note)
	err = s.tickets.Update(ctx, ticket)
	s.mu.Unlock()
	if err != nil {
		return nil, ticketError(err, ticketID)
	}

	s.logger.Debug("ticket note added", zap.String("ticket_id", ticketID), zap.String("note_id", note.ID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketNoteAdded,
		TicketID:  ticketID,
		UserID:    userID,
		Timestamp: note.Timestamp,
		Payload:   events.TicketNoteAddedPayload{NoteID: note.ID, Preview: stringPreview(content, 80)},
	})
	return &note, nil
}

// UpdateTicketTags replaces the tags of a ticket.
func (s *TicketService) UpdateTicketTags(ctx context.Context, ticketID string, tags []string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.UpdateTicketTags")
	defer span.End()

	cleaned := make([]string, 0, len(tags))
	for i, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return nil, apperrors.NewValidationError("tags must not be blank", map[string]any{"index": i})
		}
		cleaned = append(cleaned, tag)
	}

	s.mu.Lock()
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.mu.Unlock()
		return nil, ticketError(err, ticketID)
	}
	ticket.Tags = cleaned
	err = s.tickets.Update(ctx, ticket)
	s.mu.Unlock()
	if err != nil {
		return nil, ticketError(err, ticketID)
	}

	s.logger.Debug("ticket tags updated", zap.String("ticket_id", ticketID), zap.Strings("tags", cleaned))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketTagsUpdated,
		TicketID: ticketID,
		Payload:  events.TicketTagsUpdatedPayload{Tags: cleaned},
	})
	return ticket, nil
}

// GetTicket returns one ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, ticketError(err, ticketID)
	}
	return ticket, nil
}

// ListTickets returns tickets in issue order.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(status)})
		}
	}
	return s.tickets.List(ctx, repository.TicketFilter{
		SectorID:    filter.SectorID,
		Statuses:    filter.Statuses,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
	})
}

// DisplayBoard returns the tickets most recently called that are still in
// service and the most recently completed ones, newest first.
func (s *TicketService) DisplayBoard(ctx context.Context) (*DisplayBoard, error) {
	ctx, span := tracer.Start(ctx, "TicketService.DisplayBoard")
	defer span.End()

	active, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusServing, domain.TicketStatusCompleted},
	})
	if err != nil {
		return nil, err
	}

	board := &DisplayBoard{Serving: []domain.Ticket{}, LastCalls: []domain.Ticket{}}
	for _, t := range active {
		switch {
		case t.Status == domain.TicketStatusServing && t.StartedAt != nil:
			board.Serving = append(board.Serving, t)
		case t.Status == domain.TicketStatusCompleted && t.CompletedAt != nil:
			board.LastCalls = append(board.LastCalls, t)
		}
	}
	sort.SliceStable(board.Serving, func(i, j int) bool {
		return board.Serving[i].StartedAt.After(*board.Serving[j].StartedAt)
	})
	sort.SliceStable(board.LastCalls, func(i, j int) bool {
		return board.LastCalls[i].CompletedAt.After(*board.LastCalls[j].CompletedAt)
	})
	if len(board.Serving) > s.recentServing {
		board.Serving = board.Serving[:s.recentServing]
	}
	if len(board.LastCalls) > s.recentCalls {
		board.LastCalls = board.LastCalls[:s.recentCalls]
	}
	return board, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ticketError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", id)
	}
	return err
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
