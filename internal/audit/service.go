package audit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/stockroom-app/stockroom/internal/ledger"
)

// MaxEntries caps a single query result. The UI pages by narrowing the time
// window instead of offset paging.
const MaxEntries = 300

// Entry is one movement enriched with display names for presentation.
type Entry struct {
	ID        string
	CreatedAt time.Time
	ItemID    string
	ItemName  string
	ActorID   string
	ActorName string
	Delta     int64
	Reason    ledger.Reason
	Note      string
}

// Query bounds a movement lookup.
type Query struct {
	Since  time.Time
	Filter string
	Limit  int
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	MovementsSince(ctx context.Context, since time.Time, limit int) ([]Entry, error)
}

// Service is the read-only window over the movement log.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// QueryMovements returns movements since the given time, newest first, capped
// at MaxEntries. The text filter runs in-process over the capped window: it
// matches case-insensitively against item name, actor name, note, reason, and
// the decimal rendering of the delta.
func (s *Service) QueryMovements(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}
	entries, err := s.repo.MovementsSince(ctx, q.Since, limit)
	if err != nil {
		return nil, err
	}
	filter := strings.ToLower(strings.TrimSpace(q.Filter))
	if filter == "" {
		return entries, nil
	}
	out := []Entry{}
	for _, entry := range entries {
		if entry.matches(filter) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (e Entry) matches(filter string) bool {
	for _, field := range []string{
		e.ItemName,
		e.ActorName,
		e.Note,
		string(e.Reason),
		strconv.FormatInt(e.Delta, 10),
	} {
		if strings.Contains(strings.ToLower(field), filter) {
			return true
		}
	}
	return false
}

// DayGroup is one calendar day of entries, for the grouped history view.
type DayGroup struct {
	Day     string
	Entries []Entry
}

// GroupByDay splits entries by calendar day, preserving order. The key is the
// dd/mm/yy rendering the history page shows. Pure transform: no lookups, no
// extra invariants.
func GroupByDay(entries []Entry) []DayGroup {
	groups := []DayGroup{}
	for _, entry := range entries {
		day := entry.CreatedAt.Format("02/01/06")
		if n := len(groups); n > 0 && groups[n-1].Day == day {
			groups[n-1].Entries = append(groups[n-1].Entries, entry)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Entries: []Entry{entry}})
	}
	return groups
}
