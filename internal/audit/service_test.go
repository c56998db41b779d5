package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/ledger"
)

type stubRepo struct {
	entries []Entry
}

func (s stubRepo) MovementsSince(_ context.Context, since time.Time, limit int) ([]Entry, error) {
	out := []Entry{}
	for _, entry := range s.entries {
		if !entry.CreatedAt.Before(since) {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func at(day int, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func fixtureEntries() []Entry {
	// Newest first, as the repository returns them.
	return []Entry{
		{ID: "m4", CreatedAt: at(14, 16), ItemName: "Bolt 10mm", ActorName: "Sam", Delta: -2, Reason: ledger.ReasonIssue},
		{ID: "m3", CreatedAt: at(14, 9), ItemName: "Nut 10mm", ActorName: "Alex", Delta: 12, Reason: ledger.ReasonReceive, Note: "order 0a1b2c3d"},
		{ID: "m2", CreatedAt: at(13, 11), ItemName: "Washer", ActorName: "Sam", Delta: 5, Reason: ledger.ReasonAdjustment, Note: "recount"},
		{ID: "m1", CreatedAt: at(12, 8), ItemName: "Bolt 10mm", ActorName: "Alex", Delta: -7, Reason: ledger.ReasonIssue},
	}
}

func TestQueryMovementsWindowAndCap(t *testing.T) {
	svc := NewService(stubRepo{entries: fixtureEntries()})

	entries, err := svc.QueryMovements(context.Background(), Query{Since: at(13, 0)})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "m4", entries[0].ID)

	entries, err = svc.QueryMovements(context.Background(), Query{Since: at(1, 0), Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestQueryMovementsTextFilter(t *testing.T) {
	svc := NewService(stubRepo{entries: fixtureEntries()})
	ctx := context.Background()
	since := at(1, 0)

	byItem, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "BOLT"})
	require.NoError(t, err)
	require.Len(t, byItem, 2)

	byActor, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "alex"})
	require.NoError(t, err)
	require.Len(t, byActor, 2)

	byNote, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "recount"})
	require.NoError(t, err)
	require.Len(t, byNote, 1)
	require.Equal(t, "m2", byNote[0].ID)

	byReason, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "issue"})
	require.NoError(t, err)
	require.Len(t, byReason, 2)

	// Delta matches against its decimal rendering, sign included.
	byDelta, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "-7"})
	require.NoError(t, err)
	require.Len(t, byDelta, 1)
	require.Equal(t, "m1", byDelta[0].ID)

	none, err := svc.QueryMovements(ctx, Query{Since: since, Filter: "grommet"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGroupByDay(t *testing.T) {
	groups := GroupByDay(fixtureEntries())
	require.Len(t, groups, 3)
	require.Equal(t, "14/03/26", groups[0].Day)
	require.Len(t, groups[0].Entries, 2)
	require.Equal(t, "13/03/26", groups[1].Day)
	require.Equal(t, "12/03/26", groups[2].Day)

	require.Empty(t, GroupByDay(nil))
}
