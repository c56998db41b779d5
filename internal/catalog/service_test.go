package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/shared"
)

type memoryRepo struct {
	items map[string]Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]Item{}}
}

func (m *memoryRepo) GetItem(_ context.Context, id string) (Item, error) {
	item, ok := m.items[id]
	if !ok {
		return Item{}, fmt.Errorf("item %s: %w", id, shared.ErrNotFound)
	}
	return item, nil
}

func (m *memoryRepo) ListItems(_ context.Context, includeInactive bool) ([]Item, error) {
	out := []Item{}
	for _, item := range m.items {
		if !item.Active && !includeInactive {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memoryRepo) InsertItem(_ context.Context, item Item) error {
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepo) UpdateItem(_ context.Context, item Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("item %s: %w", item.ID, shared.ErrNotFound)
	}
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepo) SetActive(_ context.Context, id string, active bool) error {
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, shared.ErrNotFound)
	}
	item.Active = active
	m.items[id] = item
	return nil
}

type stubLedger struct {
	repo   *memoryRepo
	posted []ledger.MovementInput
}

func (s *stubLedger) ApplyMovement(_ context.Context, input ledger.MovementInput) (ledger.Movement, error) {
	s.posted = append(s.posted, input)
	item := s.repo.items[input.ItemID]
	item.StockOnHand += input.Delta
	s.repo.items[input.ItemID] = item
	return ledger.Movement{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		ItemID:    input.ItemID,
		ActorID:   input.Actor.ID,
		Delta:     input.Delta,
		Reason:    input.Reason,
		Note:      input.Note,
	}, nil
}

var tester = shared.Actor{ID: "u-1", Name: "Sam", Admin: true}

func TestCreateItemPostsOpeningBalance(t *testing.T) {
	repo := newMemoryRepo()
	led := &stubLedger{repo: repo}
	svc := NewService(repo, led)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:         "  M4 bolts  ",
		InitialStock: 25,
		ReorderLevel: 5,
		ReorderQty:   50,
		Unit:         "box",
		Actor:        tester,
	})
	require.NoError(t, err)
	require.Equal(t, "M4 bolts", item.Name)
	require.EqualValues(t, 25, item.StockOnHand)
	require.True(t, item.Active)

	require.Len(t, led.posted, 1)
	require.Equal(t, ledger.ReasonAdjustment, led.posted[0].Reason)
	require.Equal(t, "opening balance", led.posted[0].Note)
	require.EqualValues(t, 25, led.posted[0].Delta)

	stored, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.EqualValues(t, 25, stored.StockOnHand)
}

func TestCreateItemDefaults(t *testing.T) {
	repo := newMemoryRepo()
	led := &stubLedger{repo: repo}
	svc := NewService(repo, led)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:  "Cable ties",
		Actor: tester,
	})
	require.NoError(t, err)
	require.EqualValues(t, DefaultReorderLevel, item.ReorderLevel)
	require.EqualValues(t, DefaultReorderQty, item.ReorderQty)
	require.Equal(t, DefaultUnit, item.Unit)
	require.Zero(t, item.StockOnHand)
	require.Empty(t, led.posted, "no opening movement for zero initial stock")
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{Name: "   ", Actor: tester})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateItem(context.Background(), CreateItemInput{Name: "Screws", InitialStock: -1, Actor: tester})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateItem(context.Background(), CreateItemInput{Name: "Screws"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestUpdateItemKeepsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["i-1"] = Item{ID: "i-1", Name: "Washers", StockOnHand: 40, ReorderLevel: 2, ReorderQty: 10, Unit: "each", Active: true}
	svc := NewService(repo, nil)

	item, err := svc.UpdateItem(context.Background(), UpdateItemInput{
		ID: "i-1", Name: "Washers M6", ReorderLevel: 8, ReorderQty: 20, Unit: "bag",
	})
	require.NoError(t, err)
	require.Equal(t, "Washers M6", item.Name)
	require.EqualValues(t, 40, item.StockOnHand)
	require.EqualValues(t, 8, item.ReorderLevel)

	_, err = svc.UpdateItem(context.Background(), UpdateItemInput{ID: "missing", Name: "x"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetActiveHidesFromDefaultList(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["i-1"] = Item{ID: "i-1", Name: "Fuses", Active: true}
	svc := NewService(repo, nil)

	require.NoError(t, svc.SetActive(context.Background(), "i-1", false))

	visible, err := svc.ListItems(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, visible)

	all, err := svc.ListItems(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.False(t, all[0].Active)
}
