package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gastolog/gastobot/internal/poll"
	"github.com/gastolog/gastobot/internal/ratelimit"
	"github.com/gastolog/gastobot/internal/record"
	"github.com/gastolog/gastobot/internal/sink"
	"github.com/gastolog/gastobot/internal/telegram"
	"github.com/gastolog/gastobot/pkg/metrics"
)

// Telegram allows roughly 20 messages per minute to the same group; staying
// under that avoids provider-side flood errors.
const (
	sendLimit  = 20
	sendWindow = time.Minute
)

// Dispatcher consumes one update at a time, deduplicates against the persisted
// watermark, and invokes the matching side effect: keyboard send, callback
// answer, or ledger append.
type Dispatcher struct {
	api          telegram.API
	sink         sink.Sink
	limiter      ratelimit.Limiter
	targetChatID string
	log          *slog.Logger
	now          func() time.Time
}

// NewDispatcher wires the dispatcher's collaborators. limiter may be nil to
// disable outbound rate limiting.
func NewDispatcher(api telegram.API, ledger sink.Sink, limiter ratelimit.Limiter, targetChatID string, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		api:          api,
		sink:         ledger,
		limiter:      limiter,
		targetChatID: targetChatID,
		log:          log,
		now:          time.Now,
	}
}

// Dispatch handles one update. The dedup check runs before any side effect:
// an update at or below the watermark is a no-op. The returned error is only
// non-nil for sink failures; outbound send failures are logged and swallowed
// so the watermark still advances for the branch that was decided.
func (d *Dispatcher) Dispatch(ctx context.Context, upd telegram.Update, state *poll.PollState) (bool, error) {
	if upd.UpdateID <= state.LastHandled {
		metrics.RecordDispatch("duplicate", "skipped")
		return false, nil
	}

	switch upd.Kind() {
	case telegram.KindMessage:
		return d.dispatchMessage(ctx, upd, state)
	case telegram.KindCallback:
		return d.dispatchCallback(ctx, upd, state)
	default:
		metrics.RecordDispatch("unhandled", "skipped")
		return false, nil
	}
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, upd telegram.Update, state *poll.PollState) (bool, error) {
	msg := upd.Message
	text := strings.TrimSpace(msg.Text)
	fromTarget := upd.ChatID() == d.targetChatID

	if fromTarget && strings.EqualFold(text, TriggerKeyword) {
		d.send(ctx, telegram.SendMessageRequest{
			ChatID:      d.targetChatID,
			Text:        "Elige una categoría:",
			ReplyMarkup: BuildKeyboard(Options),
		})
		d.markHandled(upd, state)
		metrics.RecordDispatch("keyboard", "handled")
		return true, nil
	}

	if fromTarget && strings.EqualFold(text, TemplateKeyword) {
		d.send(ctx, telegram.SendMessageRequest{
			ChatID:                d.targetChatID,
			Text:                  MessageTemplate,
			DisableWebPagePreview: true,
		})
		d.markHandled(upd, state)
		metrics.RecordDispatch("template", "handled")
		return true, nil
	}

	rec := record.Parse(text)
	if rec == nil {
		metrics.RecordDispatch("unhandled", "skipped")
		return false, nil
	}

	entry := sink.Entry{
		ReceivedAt: d.now(),
		Date:       rec.Date,
		Item:       rec.Item,
		Amount:     rec.Amount,
		Sender:     record.DisplayName(msg.From),
		ChatID:     upd.ChatID(),
		MessageID:  msg.MessageID,
		Raw:        rec.Raw,
	}

	if err := d.sink.Append(ctx, entry); err != nil {
		metrics.RecordDispatch("record", "error")
		return false, fmt.Errorf("append ledger entry for update %d: %w", upd.UpdateID, err)
	}

	d.markHandled(upd, state)
	metrics.RecordDispatch("record", "handled")
	return true, nil
}

func (d *Dispatcher) dispatchCallback(ctx context.Context, upd telegram.Update, state *poll.PollState) (bool, error) {
	cb := upd.Callback

	if upd.ChatID() != d.targetChatID {
		metrics.RecordDispatch("unhandled", "skipped")
		return false, nil
	}

	token, ok := DecodeCallback(cb.Data)
	if !ok || token == "" {
		// Ack silently so the client's loading indicator clears, but do not
		// advance the watermark: the press belongs to someone else's keyboard.
		d.answer(ctx, cb.ID, "")
		metrics.RecordDispatch("callback", "skipped")
		return false, nil
	}

	d.send(ctx, telegram.SendMessageRequest{
		ChatID: d.targetChatID,
		Text:   fmt.Sprintf("Registrado: <b>%s</b>", OptionLabel(token)),
	})
	d.answer(ctx, cb.ID, "Opción registrada")

	d.markHandled(upd, state)
	metrics.RecordDispatch("callback", "handled")
	return true, nil
}

// send attempts one outbound message. Failures (including rate limiting) are
// logged and swallowed: a failed send after the branch decision is not retried
// within the cycle.
func (d *Dispatcher) send(ctx context.Context, req telegram.SendMessageRequest) {
	if d.limiter != nil {
		_, err := d.limiter.Check(ctx, "send:"+req.ChatID, sendLimit, sendWindow)
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				d.log.Warn("outbound send rate limited", slog.String("chat_id", req.ChatID))
				return
			}
			d.log.Warn("rate limiter check failed", slog.Any("error", err))
		}
	}

	if err := d.api.SendMessage(ctx, req); err != nil {
		d.log.Warn("sendMessage failed", slog.String("chat_id", req.ChatID), slog.Any("error", err))
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string) {
	if err := d.api.AnswerCallbackQuery(ctx, callbackID, text, false); err != nil {
		d.log.Warn("answerCallbackQuery failed", slog.String("callback_id", callbackID), slog.Any("error", err))
	}
}

func (d *Dispatcher) markHandled(upd telegram.Update, state *poll.PollState) {
	if upd.UpdateID > state.LastHandled {
		state.LastHandled = upd.UpdateID
	}
}
