// Package record parses structured KEY=value chat messages into ledger records.
package record

import "time"

// Record is a normalized structured message. Date and Amount are nil when the
// corresponding segment was absent or malformed; Raw always preserves the
// original text for audit.
type Record struct {
	Date   *time.Time
	Item   string
	Amount *float64
	Raw    string
}
