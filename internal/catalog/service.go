package catalog

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
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, includeInactive bool) ([]Item, error)
	InsertItem(ctx context.Context, item Item) error
	UpdateItem(ctx context.Context, item Item) error
	SetActive(ctx context.Context, id string, active bool) error
}

// LedgerPort posts opening-balance movements for newly created items.
type LedgerPort interface {
	ApplyMovement(ctx context.Context, input ledger.MovementInput) (ledger.Movement, error)
}

// Service manages the item catalogue. Quantities are never edited here; an
// opening balance is posted through the ledger like any other movement.
type Service struct {
	repo   RepositoryPort
	ledger LedgerPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, ledger LedgerPort) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// GetItem returns the item or ErrNotFound.
func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item id required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetItem(ctx, id)
}

// ListItems lists items ordered by name.
func (s *Service) ListItems(ctx context.Context, includeInactive bool) ([]Item, error) {
	return s.repo.ListItems(ctx, includeInactive)
}

// CreateItemInput describes a new catalogue entry.
type CreateItemInput struct {
	Name         string
	InitialStock int64
	ReorderLevel int64
	ReorderQty   int64
	Unit         string
	Actor        shared.Actor
}

// CreateItem inserts the item with zero stock and, when an initial quantity
// is given, posts an opening adjustment through the ledger. The two steps are
// separate atomic operations; the stock invariant holds after each commit.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Item{}, fmt.Errorf("item name required: %w", shared.ErrInvalidArgument)
	}
	if input.InitialStock < 0 || input.ReorderLevel < 0 || input.ReorderQty < 0 {
		return Item{}, fmt.Errorf("quantities must not be negative: %w", shared.ErrInvalidArgument)
	}
	if !input.Actor.Known() {
		return Item{}, fmt.Errorf("actor required: %w", shared.ErrInvalidArgument)
	}

	item := Item{
		ID:           uuid.NewString(),
		Name:         name,
		ReorderLevel: input.ReorderLevel,
		ReorderQty:   input.ReorderQty,
		Unit:         input.Unit,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if item.ReorderLevel == 0 {
		item.ReorderLevel = DefaultReorderLevel
	}
	if item.ReorderQty == 0 {
		item.ReorderQty = DefaultReorderQty
	}
	if item.Unit == "" {
		item.Unit = DefaultUnit
	}

	if err := s.repo.InsertItem(ctx, item); err != nil {
		return Item{}, err
	}

	if input.InitialStock != 0 && s.ledger != nil {
		mv, err := s.ledger.ApplyMovement(ctx, ledger.MovementInput{
			ItemID: item.ID,
			Delta:  input.InitialStock,
			Reason: ledger.ReasonAdjustment,
			Note:   "opening balance",
			Actor:  input.Actor,
		})
		if err != nil {
			return Item{}, fmt.Errorf("item created, opening balance failed: %w", err)
		}
		item.StockOnHand = mv.Delta
	}
	return item, nil
}

// UpdateItemInput carries the editable item fields.
type UpdateItemInput struct {
	ID           string
	Name         string
	ReorderLevel int64
	ReorderQty   int64
	Unit         string
}

// UpdateItem rewrites name, thresholds and unit.
func (s *Service) UpdateItem(ctx context.Context, input UpdateItemInput) (Item, error) {
	name := strings.TrimSpace(input.Name)
	if input.ID == "" || name == "" {
		return Item{}, fmt.Errorf("item id and name required: %w", shared.ErrInvalidArgument)
	}
	if input.ReorderLevel < 0 || input.ReorderQty < 0 {
		return Item{}, fmt.Errorf("thresholds must not be negative: %w", shared.ErrInvalidArgument)
	}
	current, err := s.repo.GetItem(ctx, input.ID)
	if err != nil {
		return Item{}, err
	}
	current.Name = name
	current.ReorderLevel = input.ReorderLevel
	current.ReorderQty = input.ReorderQty
	if input.Unit != "" {
		current.Unit = input.Unit
	}
	if err := s.repo.UpdateItem(ctx, current); err != nil {
		return Item{}, err
	}
	return current, nil
}

// SetActive toggles whether the item participates in movements and planning.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return fmt.Errorf("item id required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.SetActive(ctx, id, active)
}
