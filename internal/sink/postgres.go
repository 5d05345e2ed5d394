package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gastolog/gastobot/pkg/metrics"
)

// PostgresSink appends ledger entries to the ledger_entries table.
type PostgresSink struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink creates a SQL-backed sink.
func NewPostgresSink(db *sql.DB, log *slog.Logger) *PostgresSink {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresSink{
		db:  db,
		log: log,
	}
}

// Append inserts one entry.
func (s *PostgresSink) Append(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO ledger_entries (received_at, entry_date, item, amount, sender, chat_id, message_id, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var entryDate sql.NullTime
	if entry.Date != nil {
		entryDate = sql.NullTime{Time: *entry.Date, Valid: true}
	}

	var amount sql.NullFloat64
	if entry.Amount != nil {
		amount = sql.NullFloat64{Float64: *entry.Amount, Valid: true}
	}

	if _, err := s.db.ExecContext(
		ctx,
		query,
		entry.ReceivedAt,
		entryDate,
		entry.Item,
		amount,
		entry.Sender,
		entry.ChatID,
		entry.MessageID,
		entry.Raw,
	); err != nil {
		metrics.RecordLedgerAppend("error")
		s.log.Error("failed to append ledger entry",
			slog.String("chat_id", entry.ChatID),
			slog.Int64("message_id", entry.MessageID),
			slog.Any("error", err),
		)
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	metrics.RecordLedgerAppend("ok")

	return nil
}

// HealthCheck pings the database.
func (s *PostgresSink) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
