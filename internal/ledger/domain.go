package ledger

import (
	"time"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Reason enumerates why stock moved.
type Reason string

const (
	// ReasonReceive marks inbound stock (manual receipt or order receiving).
	ReasonReceive Reason = "receive"
	// ReasonIssue marks outbound stock.
	ReasonIssue Reason = "issue"
	// ReasonAdjustment marks manual corrections such as opening balances.
	ReasonAdjustment Reason = "adjustment"
)

// Valid reports whether the reason is one of the known enum values.
func (r Reason) Valid() bool {
	switch r {
	case ReasonReceive, ReasonIssue, ReasonAdjustment:
		return true
	}
	return false
}

// Movement is one signed, immutable stock adjustment. Movements are only ever
// appended; the sum of deltas per item is the ground truth for stock on hand.
type Movement struct {
	ID        string
	CreatedAt time.Time
	ItemID    string
	ActorID   string
	Delta     int64
	Reason    Reason
	Note      string
}

// MovementInput describes a requested stock change.
type MovementInput struct {
	ItemID string
	Delta  int64
	Reason Reason
	Note   string
	Actor  shared.Actor
}

// ItemState is the slice of the item row the ledger reads and writes: the
// active flag plus the cached running total.
type ItemState struct {
	ID          string
	Active      bool
	StockOnHand int64
}
