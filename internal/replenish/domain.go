package replenish

import (
	"time"

	"github.com/stockroom-app/stockroom/internal/catalog"
)

// OrderStatus is the purchase order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusReceived  OrderStatus = "received"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further mutation of the order is permitted.
func (s OrderStatus) Terminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// Order is one purchase order. Status moves pending -> received automatically
// when every line is fully received, or pending -> cancelled manually; both
// end states are terminal.
type Order struct {
	ID        string
	Status    OrderStatus
	CreatedAt time.Time
	Note      string
	Lines     []OrderLine
}

// FullyReceived reports whether every line has been received in full.
func (o Order) FullyReceived() bool {
	if len(o.Lines) == 0 {
		return false
	}
	for _, line := range o.Lines {
		if line.QtyReceived < line.QtyOrdered {
			return false
		}
	}
	return true
}

// Ref is the short reference used in email drafts and receiving notes.
func (o Order) Ref() string {
	if len(o.ID) < 8 {
		return o.ID
	}
	return o.ID[:8]
}

// OrderLine tracks ordered versus received quantity for one item on an order.
// QtyReceived only ever grows and never passes QtyOrdered.
type OrderLine struct {
	OrderID     string
	ItemID      string
	ItemName    string
	QtyOrdered  int64
	QtyReceived int64
}

// Remaining is the quantity still outstanding on the line.
func (l OrderLine) Remaining() int64 {
	return l.QtyOrdered - l.QtyReceived
}

// Candidate is a low-stock item the planner suggests reordering. Pending
// candidates already sit on an open order and are surfaced but not newly
// orderable.
type Candidate struct {
	Item         catalog.Item
	SuggestedQty int64
	Pending      bool
}
