package service

import (
	"context"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/stats"
)

// ReportService computes dashboards and reports from the ledger. It never
// writes.
type ReportService struct {
	tickets repository.TicketRepository
	sectors repository.SectorRepository
	users   repository.UserRepository
	now     func() time.Time
}

// ReportDependencies bundles requirements for the report service.
type ReportDependencies struct {
	TicketRepo repository.TicketRepository
	SectorRepo repository.SectorRepository
	UserRepo   repository.UserRepository
	Clock      func() time.Time
}

// TicketTimeline is a ticket with its annotated history.
type TicketTimeline struct {
	Ticket  *domain.Ticket        `json:"ticket"`
	Entries []stats.TimelineEntry `json:"entries"`
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		tickets: deps.TicketRepo,
		sectors: deps.SectorRepo,
		users:   deps.UserRepo,
		now:     now,
	}
}

func (s *ReportService) ticketsIn(ctx context.Context, w stats.Window) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	if !w.Start.IsZero() {
		start := w.Start
		filter.CreatedFrom = &start
	}
	if !w.End.IsZero() {
		end := w.End
		filter.CreatedTo = &end
	}
	return s.tickets.List(ctx, filter)
}

// Overview summarises the tickets created in w.
func (s *ReportService) Overview(ctx context.Context, w stats.Window) (stats.Overview, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Overview")
	defer span.End()

	tickets, err := s.ticketsIn(ctx, w)
	if err != nil {
		return stats.Overview{}, err
	}
	return stats.ComputeOverview(tickets), nil
}

// Sectors aggregates the tickets created in w per sector.
func (s *ReportService) Sectors(ctx context.Context, w stats.Window) ([]stats.SectorSummary, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Sectors")
	defer span.End()

	sectors, err := s.sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketsIn(ctx, w)
	if err != nil {
		return nil, err
	}
	return stats.SectorSummaries(sectors, tickets), nil
}

// Users aggregates operator activity on the tickets created in w.
func (s *ReportService) Users(ctx context.Context, w stats.Window) ([]stats.UserSummary, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Users")
	defer span.End()

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketsIn(ctx, w)
	if err != nil {
		return nil, err
	}
	return stats.UserSummaries(users, tickets, s.now()), nil
}

// Timeline annotates the history of one ticket.
func (s *ReportService) Timeline(ctx context.Context, ticketID string) (*TicketTimeline, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, ticketError(err, ticketID)
	}
	return &TicketTimeline{Ticket: ticket, Entries: stats.Timeline(*ticket, s.now())}, nil
}

// Daily counts tickets per day for the last days days.
func (s *ReportService) Daily(ctx context.Context, days int) ([]stats.DayVolume, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tickets, err := s.ticketsIn(ctx, stats.Window{Start: today.AddDate(0, 0, -(days - 1))})
	if err != nil {
		return nil, err
	}
	return stats.DailyVolume(tickets, days, now), nil
}

// Dashboard returns the live board of every sector.
func (s *ReportService) Dashboard(ctx context.Context) ([]stats.SectorBoard, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Dashboard")
	defer span.End()

	sectors, err := s.sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	return stats.SectorBoards(sectors, tickets, s.now()), nil
}

// Activity returns the operator activity log.
func (s *ReportService) Activity(ctx context.Context, filter stats.ActivityFilter) ([]stats.Activity, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Activity")
	defer span.End()

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	return stats.ActivityLog(users, tickets, filter), nil
}
