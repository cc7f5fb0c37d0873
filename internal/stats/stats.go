// Package stats derives queue metrics from ticket snapshots. Every function is
// pure: the ledger is read, never written, and the current time is passed in.
package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// Minutes returns whole minutes from start to end, truncated toward zero.
func Minutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// WaitMinutes is the time from issue to first call. ok is false when the
// ticket was never called.
func WaitMinutes(t domain.Ticket) (minutes int, ok bool) {
	if t.StartedAt == nil {
		return 0, false
	}
	return Minutes(t.CreatedAt, *t.StartedAt), true
}

// ServiceMinutes is the time from first call to completion.
func ServiceMinutes(t domain.Ticket) (minutes int, ok bool) {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0, false
	}
	return Minutes(*t.StartedAt, *t.CompletedAt), true
}

func average(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Window bounds tickets by creation time. A zero Start or End is open.
// End is exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls in the window.
func (w Window) Contains(ts time.Time) bool {
	if !w.Start.IsZero() && ts.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !ts.Before(w.End) {
		return false
	}
	return true
}

// Overview summarises a set of tickets.
type Overview struct {
	Total                 int `json:"total"`
	Completed             int `json:"completed"`
	Waiting               int `json:"waiting"`
	Serving               int `json:"serving"`
	AverageWaitMinutes    int `json:"averageWaitMinutes"`
	AverageServiceMinutes int `json:"averageServiceMinutes"`
	CompletionRate        int `json:"completionRate"`
}

// ComputeOverview averages wait and service time over completed tickets.
// CompletionRate is a rounded percentage of completed over total.
func ComputeOverview(tickets []domain.Ticket) Overview {
	var o Overview
	var waitSum, serviceSum int
	for _, t := range tickets {
		o.Total++
		switch t.Status {
		case domain.TicketStatusWaiting:
			o.Waiting++
		case domain.TicketStatusServing:
			o.Serving++
		case domain.TicketStatusCompleted:
			o.Completed++
			if m, ok := WaitMinutes(t); ok {
				waitSum += m
			}
			if m, ok := ServiceMinutes(t); ok {
				serviceSum += m
			}
		}
	}
	o.AverageWaitMinutes = average(waitSum, o.Completed)
	o.AverageServiceMinutes = average(serviceSum, o.Completed)
	if o.Total > 0 {
		o.CompletionRate = int(math.Round(float64(o.Completed) / float64(o.Total) * 100))
	}
	return o
}

// SectorSummary aggregates the tickets that passed through one sector.
type SectorSummary struct {
	SectorID           string `json:"sectorId"`
	Name               string `json:"name"`
	Total              int    `json:"total"`
	Completed          int    `json:"completed"`
	Forwarded          int    `json:"forwarded"`
	AverageWaitMinutes int    `json:"averageWaitMinutes"`
}

// SectorSummaries reports, per sector, the tickets with any history entry in
// it, those completed while in it, and those whose history spans more than
// one sector. The wait average covers the completed ones.
func SectorSummaries(sectors []domain.Sector, tickets []domain.Ticket) []SectorSummary {
	result := make([]SectorSummary, 0, len(sectors))
	for _, sector := range sectors {
		summary := SectorSummary{SectorID: sector.ID, Name: sector.Name}
		waitSum := 0
		for i := range tickets {
			t := &tickets[i]
			if !t.TouchesSector(sector.ID) {
				continue
			}
			summary.Total++
			if t.WasForwarded() {
				summary.Forwarded++
			}
			if t.Status == domain.TicketStatusCompleted && t.SectorID == sector.ID {
				summary.Completed++
				if m, ok := WaitMinutes(*t); ok {
					waitSum += m
				}
			}
		}
		summary.AverageWaitMinutes = average(waitSum, summary.Completed)
		result = append(result, summary)
	}
	return result
}

// UserSummary aggregates the work of one operator.
type UserSummary struct {
	UserID                string `json:"userId"`
	Name                  string `json:"name"`
	Total                 int    `json:"total"`
	TotalMinutes          int    `json:"totalMinutes"`
	AverageServiceMinutes int    `json:"averageServiceMinutes"`
}

// UserSummaries credits each history entry made by a user with the time until
// the next entry. The last entry runs to completedAt, or to now while the
// ticket is open. The average divides by the number of tickets touched.
func UserSummaries(users []domain.User, tickets []domain.Ticket, now time.Time) []UserSummary {
	result := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summary := UserSummary{UserID: user.ID, Name: user.Name}
		for i := range tickets {
			t := &tickets[i]
			if !t.TouchesUser(user.ID) {
				continue
			}
			summary.Total++
			for idx, entry := range t.History {
				if entry.UserID != user.ID {
					continue
				}
				summary.TotalMinutes += Minutes(entry.Timestamp, entryEnd(t, idx, now))
			}
		}
		summary.AverageServiceMinutes = average(summary.TotalMinutes, summary.Total)
		result = append(result, summary)
	}
	return result
}

func entryEnd(t *domain.Ticket, idx int, now time.Time) time.Time {
	if idx < len(t.History)-1 {
		return t.History[idx+1].Timestamp
	}
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return now
}

// TimelineEntry is a history entry annotated with the minutes spent in it.
type TimelineEntry struct {
	domain.HistoryEntry
	Minutes int `json:"minutes"`
}

// Timeline annotates each entry with the gap to the next one; the last entry
// runs to completedAt for completed tickets and to now otherwise.
//
// Completed entries instead report the time from the first entry in the same
// sector to the completion. Existing reports depend on this mixed rule, so it
// is reproduced as is.
func Timeline(t domain.Ticket, now time.Time) []TimelineEntry {
	result := make([]TimelineEntry, 0, len(t.History))
	for idx, entry := range t.History {
		var minutes int
		if entry.Status == domain.TicketStatusCompleted {
			minutes = Minutes(firstInSector(t.History, entry.SectorID), entry.Timestamp)
		} else {
			end := now
			switch {
			case idx < len(t.History)-1:
				end = t.History[idx+1].Timestamp
			case t.Status == domain.TicketStatusCompleted && t.CompletedAt != nil:
				end = *t.CompletedAt
			}
			minutes = Minutes(entry.Timestamp, end)
		}
		result = append(result, TimelineEntry{HistoryEntry: entry, Minutes: minutes})
	}
	return result
}

func firstInSector(history []domain.HistoryEntry, sectorID string) time.Time {
	for _, h := range history {
		if h.SectorID == sectorID {
			return h.Timestamp
		}
	}
	return time.Time{}
}

// SectorBoard is the live state of one sector queue.
type SectorBoard struct {
	SectorID                  string `json:"sectorId"`
	Name                      string `json:"name"`
	Color                     string `json:"color"`
	Waiting                   int    `json:"waiting"`
	Serving                   int    `json:"serving"`
	Completed                 int    `json:"completed"`
	AverageCurrentWaitMinutes int    `json:"averageCurrentWaitMinutes"`
}

// SectorBoards counts tickets currently in each sector by status. The wait
// average is how long the waiting tickets have been waiting as of now.
func SectorBoards(sectors []domain.Sector, tickets []domain.Ticket, now time.Time) []SectorBoard {
	result := make([]SectorBoard, 0, len(sectors))
	for _, sector := range sectors {
		board := SectorBoard{SectorID: sector.ID, Name: sector.Name, Color: sector.Color}
		var waited time.Duration
		for _, t := range tickets {
			if t.SectorID != sector.ID {
				continue
			}
			switch t.Status {
			case domain.TicketStatusWaiting:
				board.Waiting++
				waited += now.Sub(t.CreatedAt)
			case domain.TicketStatusServing:
				board.Serving++
			case domain.TicketStatusCompleted:
				board.Completed++
			}
		}
		if board.Waiting > 0 {
			board.AverageCurrentWaitMinutes = int(math.Round(waited.Minutes() / float64(board.Waiting)))
		}
		result = append(result, board)
	}
	return result
}

// DayVolume is the number of tickets issued on one calendar day.
type DayVolume struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// DailyVolume counts tickets per day for the last days calendar days ending
// today, in now's location. Oldest day first.
func DailyVolume(tickets []domain.Ticket, days int, now time.Time) []DayVolume {
	if days <= 0 {
		return []DayVolume{}
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(days - 1))

	result := make([]DayVolume, days)
	for i := range result {
		result[i].Date = first.AddDate(0, 0, i).Format("2006-01-02")
	}
	for _, t := range tickets {
		created := t.CreatedAt.In(loc)
		day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, loc)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(math.Round(day.Sub(first).Hours() / 24))
		if idx >= 0 && idx < days {
			result[idx].Total++
		}
	}
	return result
}

// ActivityKind classifies activity log entries.
type ActivityKind string

const (
	ActivityLogin  ActivityKind = "login"
	ActivityTicket ActivityKind = "ticket"
)

// Activity is one line of the operator activity log.
type Activity struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      ActivityKind `json:"kind"`
	Action    string       `json:"action"`
	UserID    string       `json:"userId,omitempty"`
	TicketID  string       `json:"ticketId,omitempty"`
	Details   string       `json:"details"`
}

// ActivityFilter narrows the activity log. Zero values match everything.
type ActivityFilter struct {
	Kind   ActivityKind
	Window Window
	Search string
}

// ActivityLog merges session logins/logouts, ticket creations and
// user-attributed history entries, newest first.
func ActivityLog(users []domain.User, tickets []domain.Ticket, filter ActivityFilter) []Activity {
	names := make(map[string]string, len(users))
	var logs []Activity
	for _, u := range users {
		names[u.ID] = u.Name
		for _, s := range u.Sessions {
			logs = append(logs, Activity{
				ID:        s.ID + ":login",
				Timestamp: s.LoginTime,
				Kind:      ActivityLogin,
				Action:    "login",
				UserID:    u.ID,
				Details:   "user " + u.Name + " logged in",
			})
			if s.LogoutTime != nil {
				logs = append(logs, Activity{
					ID:        s.ID + ":logout",
					Timestamp: *s.LogoutTime,
					Kind:      ActivityLogin,
					Action:    "logout",
					UserID:    u.ID,
					Details:   "user " + u.Name + " logged out",
				})
			}
		}
	}

	for _, t := range tickets {
		logs = append(logs, Activity{
			ID:        t.ID + ":created",
			Timestamp: t.CreatedAt,
			Kind:      ActivityTicket,
			Action:    "ticket_created",
			TicketID:  t.ID,
			Details:   "ticket " + t.Number + " issued for sector " + t.SectorID,
		})
		for idx, entry := range t.History {
			if entry.UserID == "" {
				continue
			}
			name, ok := names[entry.UserID]
			if !ok {
				name = "unknown user"
			}
			logs = append(logs, Activity{
				ID:        t.ID + ":" + strconv.Itoa(idx),
				Timestamp: entry.Timestamp,
				Kind:      ActivityTicket,
				Action:    "status_changed",
				UserID:    entry.UserID,
				TicketID:  t.ID,
				Details:   "ticket " + t.Number + " " + string(entry.Status) + " by " + name,
			})
		}
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]Activity, 0, len(logs))
	for _, a := range logs {
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if !filter.Window.Contains(a.Timestamp) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Details), search) &&
			!strings.Contains(strings.ToLower(a.Action), search) {
			continue
		}
		result = append(result, a)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}
