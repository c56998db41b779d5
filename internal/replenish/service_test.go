package replenish

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// memoryStore backs both the order repository and the ledger transaction so
// receive tests observe line, status, and stock changes together.
type memoryStore struct {
	mu        sync.Mutex
	items     map[string]*ledger.ItemState
	names     map[string]string
	orders    map[string]*Order
	movements []ledger.Movement
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items:  map[string]*ledger.ItemState{},
		names:  map[string]string{},
		orders: map[string]*Order{},
	}
}

func (m *memoryStore) addItem(id, name string, stock int64, active bool) {
	m.items[id] = &ledger.ItemState{ID: id, Active: active, StockOnHand: stock}
	m.names[id] = name
}

func (m *memoryStore) WithTx(_ context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.clone()
	if err := fn(context.Background(), m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) clone() *memoryStore {
	c := newMemoryStore()
	for id, st := range m.items {
		v := *st
		c.items[id] = &v
	}
	for id, name := range m.names {
		c.names[id] = name
	}
	for id, o := range m.orders {
		v := *o
		v.Lines = append([]OrderLine{}, o.Lines...)
		c.orders[id] = &v
	}
	c.movements = append([]ledger.Movement{}, m.movements...)
	return c
}

func (m *memoryStore) restore(s *memoryStore) {
	m.items, m.names, m.orders, m.movements = s.items, s.names, s.orders, s.movements
}

func (m *memoryStore) Ledger() ledger.TxRepository { return m }

func (m *memoryStore) GetItemForUpdate(_ context.Context, itemID string) (ledger.ItemState, error) {
	st, ok := m.items[itemID]
	if !ok {
		return ledger.ItemState{}, fmt.Errorf("item %s: %w", itemID, shared.ErrNotFound)
	}
	return *st, nil
}

func (m *memoryStore) InsertMovement(_ context.Context, mv ledger.Movement) error {
	m.movements = append(m.movements, mv)
	return nil
}

func (m *memoryStore) AddItemStock(_ context.Context, itemID string, delta int64) error {
	m.items[itemID].StockOnHand += delta
	return nil
}

func (m *memoryStore) InsertOrder(_ context.Context, order Order) error {
	o := order
	o.Lines = nil
	m.orders[order.ID] = &o
	return nil
}

func (m *memoryStore) InsertOrderLine(_ context.Context, line OrderLine) error {
	order := m.orders[line.OrderID]
	for _, existing := range order.Lines {
		if existing.ItemID == line.ItemID {
			return fmt.Errorf("order line exists: %w", shared.ErrConflict)
		}
	}
	line.ItemName = m.names[line.ItemID]
	order.Lines = append(order.Lines, line)
	return nil
}

func (m *memoryStore) GetOrderForUpdate(_ context.Context, orderID string) (Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order %s: %w", orderID, shared.ErrNotFound)
	}
	out := *order
	out.Lines = append([]OrderLine{}, order.Lines...)
	return out, nil
}

func (m *memoryStore) AddLineReceived(_ context.Context, orderID, itemID string, qty int64) error {
	order := m.orders[orderID]
	for i := range order.Lines {
		if order.Lines[i].ItemID == itemID {
			if order.Lines[i].QtyReceived+qty > order.Lines[i].QtyOrdered {
				return fmt.Errorf("received exceeds ordered: %w", shared.ErrInvalidArgument)
			}
			order.Lines[i].QtyReceived += qty
			return nil
		}
	}
	return fmt.Errorf("line %s/%s: %w", orderID, itemID, shared.ErrNotFound)
}

func (m *memoryStore) SetOrderStatus(_ context.Context, orderID string, status OrderStatus) error {
	m.orders[orderID].Status = status
	return nil
}

func (m *memoryStore) PendingItemConflicts(_ context.Context, itemIDs []string) ([]string, error) {
	conflicts := []string{}
	for _, order := range m.orders {
		if order.Status != StatusPending {
			continue
		}
		for _, line := range order.Lines {
			for _, id := range itemIDs {
				if line.ItemID == id {
					conflicts = append(conflicts, id)
				}
			}
		}
	}
	return conflicts, nil
}

func (m *memoryStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetOrderForUpdate(ctx, orderID)
}

func (m *memoryStore) ListOrders(_ context.Context, status OrderStatus) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Order{}
	for _, order := range m.orders {
		if status != "" && order.Status != status {
			continue
		}
		o := *order
		o.Lines = append([]OrderLine{}, order.Lines...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) PendingItemIDs(_ context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[string]bool{}
	for _, order := range m.orders {
		if order.Status != StatusPending {
			continue
		}
		for _, line := range order.Lines {
			ids[line.ItemID] = true
		}
	}
	return ids, nil
}

func (m *memoryStore) stock(itemID string) int64 {
	return m.items[itemID].StockOnHand
}

func (m *memoryStore) movementSum(itemID string) int64 {
	var sum int64
	for _, mv := range m.movements {
		if mv.ItemID == itemID {
			sum += mv.Delta
		}
	}
	return sum
}

var receiver = shared.Actor{ID: "u-1", Name: "Sam", Admin: true}

func newTestService(store *memoryStore) *Service {
	return NewService(store, ledger.NewService(nil))
}

func TestCreatePendingOrder(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 6}},
		Note:  "weekly top-up",
		Actor: receiver,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Lines, 1)
	require.EqualValues(t, 6, order.Lines[0].QtyOrdered)
	require.Zero(t, order.Lines[0].QtyReceived)
}

func TestCreatePendingOrderValidation(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{Actor: receiver})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "a", Qty: 0}}, Actor: receiver,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "a", Qty: 1}, {ItemID: "a", Qty: 2}}, Actor: receiver,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestCreatePendingOrderConflict(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	store.addItem("nut-10mm", "Nut 10mm", 3, true)
	svc := newTestService(store)

	_, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 6}}, Actor: receiver,
	})
	require.NoError(t, err)

	// Second order naming the pending item fails whole; the clean line is
	// not created either.
	_, err = svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "nut-10mm", Qty: 2}, {ItemID: "bolt-10mm", Qty: 3}},
		Actor: receiver,
	})
	require.ErrorIs(t, err, shared.ErrConflict)

	pending, err := store.PendingItemIDs(context.Background())
	require.NoError(t, err)
	require.True(t, pending["bolt-10mm"])
	require.False(t, pending["nut-10mm"])
}

func TestReceiveOrderLinePartialThenComplete(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 6}}, Actor: receiver,
	})
	require.NoError(t, err)

	order, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "bolt-10mm", Qty: 4, Actor: receiver,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.EqualValues(t, 4, order.Lines[0].QtyReceived)
	require.EqualValues(t, 9, store.stock("bolt-10mm"))

	order, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "bolt-10mm", Qty: 2, Actor: receiver,
	})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, order.Status)
	require.EqualValues(t, 6, order.Lines[0].QtyReceived)
	require.EqualValues(t, 11, store.stock("bolt-10mm"))
	require.EqualValues(t, 6, store.movementSum("bolt-10mm"))
}

func TestReceiveOrderLineRejectsOverReceive(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 6}}, Actor: receiver,
	})
	require.NoError(t, err)
	_, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "bolt-10mm", Qty: 4, Actor: receiver,
	})
	require.NoError(t, err)

	_, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "bolt-10mm", Qty: 10, Actor: receiver,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	// No state change from the rejected call.
	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.EqualValues(t, 4, got.Lines[0].QtyReceived)
	require.EqualValues(t, 9, store.stock("bolt-10mm"))
}

func TestReceiveRejectedOnTerminalOrder(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 2}}, Actor: receiver,
	})
	require.NoError(t, err)
	order, err = svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, order.Status)

	_, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "bolt-10mm", Qty: 1, Actor: receiver,
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.CancelOrder(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestReceiveAllRemaining(t *testing.T) {
	store := newMemoryStore()
	store.addItem("bolt-10mm", "Bolt 10mm", 5, true)
	store.addItem("nut-10mm", "Nut 10mm", 3, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "bolt-10mm", Qty: 6}, {ItemID: "nut-10mm", Qty: 4}},
		Actor: receiver,
	})
	require.NoError(t, err)
	_, err = svc.ReceiveOrderLine(context.Background(), ReceiveInput{
		OrderID: order.ID, ItemID: "nut-10mm", Qty: 1, Actor: receiver,
	})
	require.NoError(t, err)

	order, err = svc.ReceiveAllRemaining(context.Background(), order.ID, receiver)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, order.Status)
	require.EqualValues(t, 11, store.stock("bolt-10mm"))
	require.EqualValues(t, 7, store.stock("nut-10mm"))
}

func TestReceiveAllStopsAtFirstFailure(t *testing.T) {
	store := newMemoryStore()
	store.addItem("alpha", "Alpha", 0, true)
	store.addItem("beta", "Beta", 0, true)
	svc := newTestService(store)

	order, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		Lines: []OrderLineInput{{ItemID: "alpha", Qty: 2}, {ItemID: "beta", Qty: 3}},
		Actor: receiver,
	})
	require.NoError(t, err)

	// Deactivating the second item makes its ledger post fail; the first
	// line's receipt stands. Receive-all is a loop, not one transaction.
	store.items["beta"].Active = false
	_, err = svc.ReceiveAllRemaining(context.Background(), order.ID, receiver)
	require.Error(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.EqualValues(t, 2, store.stock("alpha"))
	require.EqualValues(t, 0, store.stock("beta"))
}

func TestEmailDraft(t *testing.T) {
	order := Order{
		ID:     "0a1b2c3d-aaaa-bbbb-cccc-ddddeeeeffff",
		Status: StatusPending,
		Lines: []OrderLine{
			{ItemID: "bolt-10mm", ItemName: "Bolt 10mm", QtyOrdered: 6},
			{ItemID: "nut-10mm", ItemName: "Nut 10mm", QtyOrdered: 4},
		},
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	draft := EmailDraft(order, now)

	require.True(t, strings.HasPrefix(draft, "Subject: STZ Stock Order – 2026-03-14 – #0a1b2c3d\n"), draft)
	require.Contains(t, draft, "- Bolt 10mm — Qty: 6")
	require.Contains(t, draft, "- Nut 10mm — Qty: 4")
	require.Contains(t, draft, "Please can you supply / quote the following items:")

	empty := EmailDraft(Order{ID: "short"}, now)
	require.Contains(t, empty, "#short")
	require.Contains(t, empty, "(no lines)")
}
