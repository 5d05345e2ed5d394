// Package sink persists parsed ledger entries in append-only storage.
package sink

import (
	"context"
	"time"
)

// Entry is one row of the ledger. Field order mirrors the historical sheet:
// receipt timestamp, date, item, amount, sender, chat id, message id, raw text.
type Entry struct {
	ReceivedAt time.Time
	Date       *time.Time
	Item       string
	Amount     *float64
	Sender     string
	ChatID     string
	MessageID  int64
	Raw        string
}

// Sink receives parsed records. Entries are never updated after creation.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}
