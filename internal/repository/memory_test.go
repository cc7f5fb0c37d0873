package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

func TestMemoryTicketRepositoryIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	ticket := &domain.Ticket{ID: "t1", SectorID: "a", Status: domain.TicketStatusWaiting, Tags: []string{"x"}}
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ticket.Tags[0] = "mutated"

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Tags[0] != "x" {
		t.Fatalf("store shares slices with caller: %v", got.Tags)
	}
	got.Status = domain.TicketStatusServing
	again, _ := repo.GetByID(ctx, "t1")
	if again.Status != domain.TicketStatusWaiting {
		t.Fatalf("store returned a live reference")
	}

	if err := repo.Update(ctx, &domain.Ticket{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing err=%v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID missing err=%v", err)
	}
}

func TestMemoryTicketRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	seed := []domain.Ticket{
		{ID: "1", SectorID: "a", Status: domain.TicketStatusWaiting, CreatedAt: base},
		{ID: "2", SectorID: "b", Status: domain.TicketStatusServing, CreatedAt: base.Add(time.Hour)},
		{ID: "3", SectorID: "a", Status: domain.TicketStatusCompleted, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	sectorA := "a"
	from := base.Add(time.Hour)
	to := base.Add(2 * time.Hour)
	cases := []struct {
		name   string
		filter TicketFilter
		want   []string
	}{
		{"all", TicketFilter{}, []string{"1", "2", "3"}},
		{"sector", TicketFilter{SectorID: &sectorA}, []string{"1", "3"}},
		{"status", TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusServing, domain.TicketStatusCompleted}}, []string{"2", "3"}},
		{"half-open window", TicketFilter{CreatedFrom: &from, CreatedTo: &to}, []string{"2"}},
	}
	for _, tt := range cases {
		got, err := repo.List(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("%s: got %d tickets, want %d", tt.name, len(got), len(tt.want))
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Fatalf("%s: position %d got %s want %s", tt.name, i, got[i].ID, id)
			}
		}
	}

	count, _ := repo.CountBySector(ctx, "a")
	if count != 2 {
		t.Fatalf("CountBySector=%d", count)
	}
}

func TestMemorySectorRepositoryOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySectorRepository()
	for _, id := range []string{"c", "a", "b"} {
		_ = repo.Create(ctx, &domain.Sector{ID: id, Name: id})
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err=%v", err)
	}
	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestMemoryUserRepositoryEmailLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	_ = repo.Create(ctx, &domain.User{ID: "1", Email: "Admin@Example.com"})
	user, err := repo.GetByEmail(ctx, "admin@example.com")
	if err != nil || user.ID != "1" {
		t.Fatalf("GetByEmail = %v, %v", user, err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing email err=%v", err)
	}
}

func TestMemorySequenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySequenceRepository()

	cases := []struct {
		sector string
		floor  int64
		want   int64
	}{
		{"a", 1, 1},
		{"a", 2, 2},
		{"a", 1, 3},
		{"b", 5, 5},
		{"b", 1, 6},
	}
	for _, tt := range cases {
		got, err := repo.Next(ctx, tt.sector, tt.floor)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != tt.want {
			t.Fatalf("Next(%q, %d)=%d, want %d", tt.sector, tt.floor, got, tt.want)
		}
	}
}
