package replenish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, status OrderStatus) ([]Order, error)
}

// LedgerPort posts receiving movements inside the order transaction.
type LedgerPort interface {
	PostInTx(ctx context.Context, tx ledger.TxRepository, input ledger.MovementInput) (ledger.Movement, error)
}

// Service owns the purchase order lifecycle: creation, partial and complete
// receiving, cancellation. Stock increments on receipt go through the ledger
// in the same transaction as the line update.
type Service struct {
	repo   RepositoryPort
	ledger LedgerPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, ledger LedgerPort) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// OrderLineInput is one requested (item, quantity) pair.
type OrderLineInput struct {
	ItemID string
	Qty    int64
}

// CreateOrderInput describes a new pending order.
type CreateOrderInput struct {
	Lines []OrderLineInput
	Note  string
	Actor shared.Actor
}

// CreatePendingOrder inserts the order and all its lines atomically. The call
// fails with Conflict when any requested item already sits on a pending order,
// and in that case creates nothing.
func (s *Service) CreatePendingOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if len(input.Lines) == 0 {
		return Order{}, fmt.Errorf("order needs at least one line: %w", shared.ErrInvalidArgument)
	}
	if !input.Actor.Known() {
		return Order{}, fmt.Errorf("actor required: %w", shared.ErrInvalidArgument)
	}
	seen := map[string]bool{}
	itemIDs := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.ItemID == "" {
			return Order{}, fmt.Errorf("line item id required: %w", shared.ErrInvalidArgument)
		}
		if line.Qty <= 0 {
			return Order{}, fmt.Errorf("line quantity for %s must be positive: %w",
				line.ItemID, shared.ErrInvalidArgument)
		}
		if seen[line.ItemID] {
			return Order{}, fmt.Errorf("item %s listed twice: %w", line.ItemID, shared.ErrInvalidArgument)
		}
		seen[line.ItemID] = true
		itemIDs = append(itemIDs, line.ItemID)
	}

	order := Order{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		Note:      strings.TrimSpace(input.Note),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		conflicts, err := tx.PendingItemConflicts(ctx, itemIDs)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("items already on a pending order (%s): %w",
				strings.Join(conflicts, ", "), shared.ErrConflict)
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, line := range input.Lines {
			ol := OrderLine{OrderID: order.ID, ItemID: line.ItemID, QtyOrdered: line.Qty}
			if err := tx.InsertOrderLine(ctx, ol); err != nil {
				return err
			}
			order.Lines = append(order.Lines, ol)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// ReceiveInput is a partial or complete receipt against one order line.
type ReceiveInput struct {
	OrderID string
	ItemID  string
	Qty     int64
	Actor   shared.Actor
}

// ReceiveOrderLine applies a receipt in a single transaction: the line's
// received quantity grows by Qty, a receive movement posts to the ledger, and
// the order flips to received when every line is now full. Qty must be
// positive and no more than the line's remaining quantity.
func (s *Service) ReceiveOrderLine(ctx context.Context, input ReceiveInput) (Order, error) {
	if input.OrderID == "" || input.ItemID == "" {
		return Order{}, fmt.Errorf("order and item id required: %w", shared.ErrInvalidArgument)
	}
	if input.Qty <= 0 {
		return Order{}, fmt.Errorf("quantity must be positive: %w", shared.ErrInvalidArgument)
	}
	if !input.Actor.Known() {
		return Order{}, fmt.Errorf("actor required: %w", shared.ErrInvalidArgument)
	}

	var out Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return fmt.Errorf("order %s is %s: %w", order.Ref(), order.Status, shared.ErrInvalidState)
		}
		idx := -1
		for i, line := range order.Lines {
			if line.ItemID == input.ItemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("order %s has no line for item %s: %w",
				order.Ref(), input.ItemID, shared.ErrNotFound)
		}
		if remaining := order.Lines[idx].Remaining(); input.Qty > remaining {
			return fmt.Errorf("quantity %d exceeds remaining %d: %w",
				input.Qty, remaining, shared.ErrInvalidArgument)
		}

		if err := tx.AddLineReceived(ctx, order.ID, input.ItemID, input.Qty); err != nil {
			return err
		}
		if _, err := s.ledger.PostInTx(ctx, tx.Ledger(), ledger.MovementInput{
			ItemID: input.ItemID,
			Delta:  input.Qty,
			Reason: ledger.ReasonReceive,
			Note:   "order " + order.Ref(),
			Actor:  input.Actor,
		}); err != nil {
			return err
		}

		order.Lines[idx].QtyReceived += input.Qty
		if order.FullyReceived() {
			if err := tx.SetOrderStatus(ctx, order.ID, StatusReceived); err != nil {
				return err
			}
			order.Status = StatusReceived
		}
		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// ReceiveAllRemaining receives the outstanding quantity on every open line,
// one line per transaction. It is not atomic across lines: the loop stops at
// the first failure and earlier receipts stand.
func (s *Service) ReceiveAllRemaining(ctx context.Context, orderID string, actor shared.Actor) (Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.Status != StatusPending {
		return Order{}, fmt.Errorf("order %s is %s: %w", order.Ref(), order.Status, shared.ErrInvalidState)
	}
	for _, line := range order.Lines {
		if line.Remaining() == 0 {
			continue
		}
		order, err = s.ReceiveOrderLine(ctx, ReceiveInput{
			OrderID: orderID,
			ItemID:  line.ItemID,
			Qty:     line.Remaining(),
			Actor:   actor,
		})
		if err != nil {
			return Order{}, fmt.Errorf("receive item %s: %w", line.ItemID, err)
		}
	}
	return order, nil
}

// CancelOrder moves a pending order to cancelled. Terminal orders reject the
// call.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, fmt.Errorf("order id required: %w", shared.ErrInvalidArgument)
	}
	var out Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return fmt.Errorf("order %s is %s: %w", order.Ref(), order.Status, shared.ErrInvalidState)
		}
		if err := tx.SetOrderStatus(ctx, order.ID, StatusCancelled); err != nil {
			return err
		}
		order.Status = StatusCancelled
		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// GetOrder returns one order with its lines.
func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, fmt.Errorf("order id required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetOrder(ctx, orderID)
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	if status != "" && status != StatusPending && status != StatusReceived && status != StatusCancelled {
		return nil, fmt.Errorf("unknown status %q: %w", status, shared.ErrInvalidArgument)
	}
	return s.repo.ListOrders(ctx, status)
}
