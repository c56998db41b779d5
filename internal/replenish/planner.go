package replenish

import (
	"context"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stockroom-app/stockroom/internal/catalog"
)

// ItemLister supplies the active catalogue for planning.
type ItemLister interface {
	ListItems(ctx context.Context, includeInactive bool) ([]catalog.Item, error)
}

// PendingLookup reports which items already sit on a pending order.
type PendingLookup interface {
	PendingItemIDs(ctx context.Context) (map[string]bool, error)
}

// Planner derives reorder candidates. Read-only: it never mutates items,
// orders, or the ledger.
type Planner struct {
	items   ItemLister
	pending PendingLookup
}

// NewPlanner builds Planner.
func NewPlanner(items ItemLister, pending PendingLookup) *Planner {
	return &Planner{items: items, pending: pending}
}

// LowStockCandidates returns every active item at or below its reorder level,
// ordered by name. SuggestedQty is enough to clear the threshold by one.
// Items already on a pending order are flagged rather than hidden so the UI
// can show them as in flight.
func (p *Planner) LowStockCandidates(ctx context.Context) ([]Candidate, error) {
	items, err := p.items.ListItems(ctx, false)
	if err != nil {
		return nil, err
	}
	pending, err := p.pending.PendingItemIDs(ctx)
	if err != nil {
		return nil, err
	}

	candidates := []Candidate{}
	for _, item := range items {
		if !item.LowStock() {
			continue
		}
		suggested := item.ReorderLevel - item.StockOnHand + 1
		if suggested < 1 {
			suggested = 1
		}
		candidates = append(candidates, Candidate{
			Item:         item,
			SuggestedQty: suggested,
			Pending:      pending[item.ID],
		})
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(candidates, func(i, j int) bool {
		return coll.CompareString(candidates[i].Item.Name, candidates[j].Item.Name) < 0
	})
	return candidates, nil
}
