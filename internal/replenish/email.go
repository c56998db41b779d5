package replenish

import (
	"fmt"
	"strings"
	"time"
)

// EmailDraft renders the plain-text purchase email staff paste into their
// mail client. The wording is fixed; suppliers recognise the format.
func EmailDraft(order Order, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: STZ Stock Order – %s – #%s\n\n", now.Format("2006-01-02"), order.Ref())
	b.WriteString("Hi,\n\nPlease can you supply / quote the following items:\n\n")
	if len(order.Lines) == 0 {
		b.WriteString("(no lines)")
	} else {
		for i, line := range order.Lines {
			if i > 0 {
				b.WriteString("\n")
			}
			name := line.ItemName
			if name == "" {
				name = line.ItemID
			}
			fmt.Fprintf(&b, "- %s — Qty: %d", name, line.QtyOrdered)
		}
	}
	b.WriteString("\n\nThanks,\n")
	return b.String()
}
