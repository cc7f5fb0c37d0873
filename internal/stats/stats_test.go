package stats

import (
	"testing"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ptr(t time.Time) *time.Time { return &t }

// completedTicket was issued at 0, called at 5m30s and completed at 12m.
func completedTicket() domain.Ticket {
	return domain.Ticket{
		ID:          "t1",
		Number:      "REC001",
		SectorID:    "a",
		Status:      domain.TicketStatusCompleted,
		CreatedAt:   base,
		StartedAt:   ptr(base.Add(5*time.Minute + 30*time.Second)),
		CompletedAt: ptr(at(12)),
		History: []domain.HistoryEntry{
			{SectorID: "a", Status: domain.TicketStatusWaiting, Timestamp: base},
			{SectorID: "a", Status: domain.TicketStatusServing, Timestamp: base.Add(5*time.Minute + 30*time.Second), UserID: "u1"},
			{SectorID: "a", Status: domain.TicketStatusCompleted, Timestamp: at(12), UserID: "u1"},
		},
	}
}

// forwardedTicket waited in a, was served there by u1, forwarded to b and is
// waiting there.
func forwardedTicket() domain.Ticket {
	return domain.Ticket{
		ID:        "t2",
		Number:    "REC002",
		SectorID:  "b",
		Status:    domain.TicketStatusWaiting,
		CreatedAt: at(1),
		StartedAt: ptr(at(3)),
		History: []domain.HistoryEntry{
			{SectorID: "a", Status: domain.TicketStatusWaiting, Timestamp: at(1)},
			{SectorID: "a", Status: domain.TicketStatusServing, Timestamp: at(3), UserID: "u1"},
			{SectorID: "b", Status: domain.TicketStatusWaiting, Timestamp: at(7), UserID: "u1"},
		},
	}
}

func TestMinutesTruncate(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{59 * time.Second, 0},
		{time.Minute, 1},
		{5*time.Minute + 59*time.Second, 5},
		{-90 * time.Second, -1},
	}
	for _, tt := range cases {
		if got := Minutes(base, base.Add(tt.d)); got != tt.want {
			t.Fatalf("Minutes(%v)=%d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestWaitAndServiceMinutes(t *testing.T) {
	ticket := completedTicket()
	if m, ok := WaitMinutes(ticket); !ok || m != 5 {
		t.Fatalf("WaitMinutes=%d,%v", m, ok)
	}
	if m, ok := ServiceMinutes(ticket); !ok || m != 6 {
		t.Fatalf("ServiceMinutes=%d,%v", m, ok)
	}

	waiting := domain.Ticket{CreatedAt: base}
	if _, ok := WaitMinutes(waiting); ok {
		t.Fatalf("a ticket never called has no wait time")
	}
	if _, ok := ServiceMinutes(waiting); ok {
		t.Fatalf("a ticket never called has no service time")
	}
}

func TestComputeOverview(t *testing.T) {
	o := ComputeOverview([]domain.Ticket{completedTicket(), forwardedTicket()})
	if o.Total != 2 || o.Completed != 1 || o.Waiting != 1 {
		t.Fatalf("counts %+v", o)
	}
	if o.AverageWaitMinutes != 5 || o.AverageServiceMinutes != 6 || o.CompletionRate != 50 {
		t.Fatalf("averages %+v", o)
	}
	if empty := ComputeOverview(nil); empty.CompletionRate != 0 || empty.AverageWaitMinutes != 0 {
		t.Fatalf("empty overview %+v", empty)
	}
}

func TestSectorSummaries(t *testing.T) {
	sectors := []domain.Sector{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}
	got := SectorSummaries(sectors, []domain.Ticket{completedTicket(), forwardedTicket()})

	want := []SectorSummary{
		{SectorID: "a", Name: "A", Total: 2, Completed: 1, Forwarded: 1, AverageWaitMinutes: 5},
		{SectorID: "b", Name: "B", Total: 1, Completed: 0, Forwarded: 1, AverageWaitMinutes: 0},
		{SectorID: "c", Name: "C"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sector %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestUserSummaries(t *testing.T) {
	users := []domain.User{{ID: "u1", Name: "Ana"}, {ID: "u2", Name: "Bia"}}
	now := at(20)
	got := UserSummaries(users, []domain.Ticket{completedTicket(), forwardedTicket()}, now)

	// t1: serving 5:30 -> 12:00 = 6, completed entry is last and runs to
	// completedAt = 0. t2: serving 3 -> 7 = 4, waiting 7 -> now = 13.
	if got[0].Total != 2 || got[0].TotalMinutes != 23 || got[0].AverageServiceMinutes != 12 {
		t.Fatalf("u1 = %+v", got[0])
	}
	if got[1].Total != 0 || got[1].AverageServiceMinutes != 0 {
		t.Fatalf("u2 = %+v", got[1])
	}
}

func TestTimelineDualRule(t *testing.T) {
	now := at(30)

	entries := Timeline(completedTicket(), now)
	wantCompleted := []int{5, 6, 12}
	for i, want := range wantCompleted {
		if entries[i].Minutes != want {
			t.Fatalf("completed ticket entry %d minutes=%d, want %d", i, entries[i].Minutes, want)
		}
	}

	entries = Timeline(forwardedTicket(), now)
	wantOpen := []int{2, 4, 23}
	for i, want := range wantOpen {
		if entries[i].Minutes != want {
			t.Fatalf("open ticket entry %d minutes=%d, want %d", i, entries[i].Minutes, want)
		}
	}
}

func TestTimelineCompletedAfterForward(t *testing.T) {
	ticket := domain.Ticket{
		Status:      domain.TicketStatusCompleted,
		CompletedAt: ptr(at(40)),
		History: []domain.HistoryEntry{
			{SectorID: "a", Status: domain.TicketStatusWaiting, Timestamp: at(0)},
			{SectorID: "b", Status: domain.TicketStatusWaiting, Timestamp: at(10)},
			{SectorID: "b", Status: domain.TicketStatusServing, Timestamp: at(25)},
			{SectorID: "b", Status: domain.TicketStatusCompleted, Timestamp: at(40)},
		},
	}
	entries := Timeline(ticket, at(50))
	if entries[3].Minutes != 30 {
		t.Fatalf("completed entry must span the sector: got %d", entries[3].Minutes)
	}
	if entries[2].Minutes != 15 {
		t.Fatalf("serving entry uses the next-entry gap: got %d", entries[2].Minutes)
	}
}

func TestSectorBoards(t *testing.T) {
	sectors := []domain.Sector{{ID: "a", Name: "A"}, {ID: "b", Name: "B", Color: "#fff"}}
	extra := domain.Ticket{ID: "t3", SectorID: "b", Status: domain.TicketStatusWaiting, CreatedAt: at(10)}
	boards := SectorBoards(sectors, []domain.Ticket{completedTicket(), forwardedTicket(), extra}, at(20))

	if boards[0].Completed != 1 || boards[0].Waiting != 0 {
		t.Fatalf("board a %+v", boards[0])
	}
	// waits of 19 and 10 minutes
	if boards[1].Waiting != 2 || boards[1].AverageCurrentWaitMinutes != 15 || boards[1].Color != "#fff" {
		t.Fatalf("board b %+v", boards[1])
	}
}

func TestDailyVolume(t *testing.T) {
	now := time.Date(2024, 5, 7, 15, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		{CreatedAt: time.Date(2024, 5, 7, 8, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)},
	}
	got := DailyVolume(tickets, 7, now)
	if len(got) != 7 || got[0].Date != "2024-05-01" || got[6].Date != "2024-05-07" {
		t.Fatalf("days %+v", got)
	}
	if got[0].Total != 1 || got[6].Total != 2 || got[3].Total != 0 {
		t.Fatalf("totals %+v", got)
	}
}

func TestActivityLog(t *testing.T) {
	logout := at(60)
	users := []domain.User{{
		ID:   "u1",
		Name: "Ana",
		Sessions: []domain.Session{
			{ID: "s1", UserID: "u1", LoginTime: at(-5), LogoutTime: &logout},
		},
	}}
	tickets := []domain.Ticket{completedTicket()}

	all := ActivityLog(users, tickets, ActivityFilter{})
	// login, logout, creation, two attributed entries
	if len(all) != 5 {
		t.Fatalf("got %d entries", len(all))
	}
	if all[0].Action != "logout" || all[len(all)-1].Action != "login" {
		t.Fatalf("log must be newest first: %+v", all)
	}

	logins := ActivityLog(users, tickets, ActivityFilter{Kind: ActivityLogin})
	if len(logins) != 2 {
		t.Fatalf("login filter returned %d", len(logins))
	}

	search := ActivityLog(users, tickets, ActivityFilter{Search: "COMPLETED"})
	if len(search) != 1 || search[0].TicketID != "t1" {
		t.Fatalf("search returned %+v", search)
	}

	windowed := ActivityLog(users, tickets, ActivityFilter{Window: Window{Start: at(0), End: at(12)}})
	if len(windowed) != 2 {
		t.Fatalf("window returned %+v", windowed)
	}
}
