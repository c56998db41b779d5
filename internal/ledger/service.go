package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Service owns the append-only movement log. It is the only writer of
// items.stock_on_hand; every stock change in the system funnels through here.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ApplyMovement appends a movement and updates the item's cached stock total
// in a single transaction. Two concurrent calls against the same item
// serialize on the item row; each delta applies exactly once. Retrying the
// same logical call posts a second movement: dedup is the caller's job.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (Movement, error) {
	if err := validate(input); err != nil {
		return Movement{}, err
	}
	var mv Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := post(ctx, tx, input)
		if err != nil {
			return err
		}
		mv = m
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	return mv, nil
}

// PostInTx appends a movement inside a transaction owned by the caller. Used
// by order receiving so the line update, the movement, and the order status
// recompute commit together or not at all.
func (s *Service) PostInTx(ctx context.Context, tx TxRepository, input MovementInput) (Movement, error) {
	if err := validate(input); err != nil {
		return Movement{}, err
	}
	return post(ctx, tx, input)
}

func validate(input MovementInput) error {
	if input.ItemID == "" {
		return fmt.Errorf("item id required: %w", shared.ErrInvalidArgument)
	}
	if input.Delta == 0 {
		return fmt.Errorf("delta must be nonzero: %w", shared.ErrInvalidArgument)
	}
	if !input.Reason.Valid() {
		return fmt.Errorf("unknown reason %q: %w", input.Reason, shared.ErrInvalidArgument)
	}
	if !input.Actor.Known() {
		return fmt.Errorf("actor required: %w", shared.ErrInvalidArgument)
	}
	return nil
}

func post(ctx context.Context, tx TxRepository, input MovementInput) (Movement, error) {
	item, err := tx.GetItemForUpdate(ctx, input.ItemID)
	if err != nil {
		return Movement{}, err
	}
	if !item.Active {
		return Movement{}, fmt.Errorf("item %s is inactive: %w", item.ID, shared.ErrInvalidArgument)
	}
	// Issues may drive the total below zero; the ledger records what happened
	// rather than rejecting it.
	m := Movement{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		ItemID:    item.ID,
		ActorID:   input.Actor.ID,
		Delta:     input.Delta,
		Reason:    input.Reason,
		Note:      input.Note,
	}
	if err := tx.InsertMovement(ctx, m); err != nil {
		return Movement{}, err
	}
	if err := tx.AddItemStock(ctx, item.ID, input.Delta); err != nil {
		return Movement{}, err
	}
	return m, nil
}
