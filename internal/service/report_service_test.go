package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/stats"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

func TestReportsReadTheLedger(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	if err := users.Create(ctx, &domain.User{ID: "u1", Name: "Ana", Role: domain.RoleAttendant}); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	reports := NewReportService(ReportDependencies{
		TicketRepo: f.tickets,
		SectorRepo: f.sectors,
		UserRepo:   users,
		Clock:      f.clock.Now,
	})

	start := f.clock.Now()
	done := f.issue(t, "lab")
	f.issue(t, "lab")
	f.clock.Advance(4 * time.Minute)
	if _, err := f.svc.CallTicket(ctx, done.ID, "u1", nil); err != nil {
		t.Fatalf("CallTicket: %v", err)
	}
	f.clock.Advance(3 * time.Minute)
	if _, err := f.svc.CompleteTicket(ctx, done.ID, "u1"); err != nil {
		t.Fatalf("CompleteTicket: %v", err)
	}

	overview, err := reports.Overview(ctx, stats.Window{Start: start})
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	// issued at 0, called at 6, completed at 9
	if overview.Total != 2 || overview.Completed != 1 || overview.AverageWaitMinutes != 6 || overview.AverageServiceMinutes != 3 {
		t.Fatalf("overview %+v", overview)
	}
	if empty, _ := reports.Overview(ctx, stats.Window{End: start}); empty.Total != 0 {
		t.Fatalf("window end must exclude later tickets")
	}

	sectors, err := reports.Sectors(ctx, stats.Window{})
	if err != nil || len(sectors) != 3 || sectors[1].SectorID != "lab" || sectors[1].Total != 2 {
		t.Fatalf("sector summaries %+v %v", sectors, err)
	}

	userStats, err := reports.Users(ctx, stats.Window{})
	if err != nil || len(userStats) != 1 || userStats[0].Total != 1 || userStats[0].TotalMinutes != 3 {
		t.Fatalf("user summaries %+v %v", userStats, err)
	}

	timeline, err := reports.Timeline(ctx, done.ID)
	if err != nil || len(timeline.Entries) != 3 || timeline.Entries[2].Minutes != 9 {
		t.Fatalf("timeline %+v %v", timeline, err)
	}
	_, err = reports.Timeline(ctx, "missing")
	assertCode(t, err, apperrors.CodeNotFound)

	boards, err := reports.Dashboard(ctx)
	if err != nil || boards[1].Waiting != 1 || boards[1].Completed != 1 {
		t.Fatalf("dashboard %+v %v", boards, err)
	}

	daily, err := reports.Daily(ctx, 0)
	if err != nil || len(daily) != 7 || daily[6].Total != 2 {
		t.Fatalf("daily %+v %v", daily, err)
	}

	activity, err := reports.Activity(ctx, stats.ActivityFilter{Kind: stats.ActivityTicket})
	if err != nil || len(activity) != 4 {
		t.Fatalf("activity %+v %v", activity, err)
	}
}
