package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastolog/gastobot/internal/poll"
	"github.com/gastolog/gastobot/internal/sink"
	"github.com/gastolog/gastobot/internal/telegram"
)

const targetChat = "42"

type fakeAPI struct {
	sent     []telegram.SendMessageRequest
	answered []string
	sendErr  error
}

func (f *fakeAPI) GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, req telegram.SendMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.sendErr
}

func (f *fakeAPI) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeAPI) GetMe(ctx context.Context) (*telegram.User, error) {
	return &telegram.User{}, nil
}

type fakeSink struct {
	entries []sink.Entry
	err     error
}

func (f *fakeSink) Append(ctx context.Context, entry sink.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(api *fakeAPI, ledger *fakeSink) *Dispatcher {
	return NewDispatcher(api, ledger, nil, targetChat, testLogger())
}

func messageUpdate(id int64, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id * 10,
			Text:      text,
			From:      &telegram.User{ID: 7, FirstName: "Ana"},
			Chat:      &telegram.Chat{ID: chatID},
		},
	}
}

func callbackUpdate(id int64, chatID int64, data string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Callback: &telegram.CallbackQuery{
			ID:      "cb-1",
			Data:    data,
			From:    &telegram.User{ID: 7},
			Message: &telegram.Message{Chat: &telegram.Chat{ID: chatID}},
		},
	}
}

func TestDispatch_DuplicateIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	ledger := &fakeSink{}
	d := newTestDispatcher(api, ledger)

	state := poll.PollState{LastHandled: 100}
	upd := messageUpdate(100, 42, "menu")

	handled, err := d.Dispatch(context.Background(), upd, &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, api.sent, "duplicate must produce no side effects")
	assert.Equal(t, int64(100), state.LastHandled)
}

func TestDispatch_TriggerKeywordSendsKeyboard(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "exact", text: "menu"},
		{name: "upper case", text: "MENU"},
		{name: "surrounding whitespace", text: "  menu  "},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			d := newTestDispatcher(api, &fakeSink{})
			state := poll.PollState{}

			handled, err := d.Dispatch(context.Background(), messageUpdate(101, 42, tc.text), &state)

			require.NoError(t, err)
			assert.True(t, handled)
			require.Len(t, api.sent, 1)
			assert.Equal(t, targetChat, api.sent[0].ChatID)
			require.NotNil(t, api.sent[0].ReplyMarkup)
			assert.Len(t, api.sent[0].ReplyMarkup.InlineKeyboard, len(Options))
			assert.Equal(t, int64(101), state.LastHandled)
		})
	}
}

func TestDispatch_KeywordSubstringDoesNotTrigger(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(101, 42, "menus"), &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, api.sent)
	assert.Equal(t, int64(0), state.LastHandled)
}

func TestDispatch_KeywordFromOtherChatIgnored(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(101, 99, "menu"), &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, api.sent)
}

func TestDispatch_TemplateKeyword(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(102, 42, "plantilla"), &state)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, api.sent, 1)
	assert.True(t, strings.Contains(api.sent[0].Text, "FECHA="))
	assert.True(t, api.sent[0].DisableWebPagePreview)
	assert.Equal(t, int64(102), state.LastHandled)
}

func TestDispatch_StructuredMessageAppended(t *testing.T) {
	api := &fakeAPI{}
	ledger := &fakeSink{}
	d := newTestDispatcher(api, ledger)
	state := poll.PollState{}

	upd := messageUpdate(103, 42, "FECHA=2025-08-24|ITEM=Comida|COSTO=12.500")
	handled, err := d.Dispatch(context.Background(), upd, &state)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, ledger.entries, 1)

	entry := ledger.entries[0]
	assert.Equal(t, "Comida", entry.Item)
	require.NotNil(t, entry.Amount)
	assert.Equal(t, float64(12500), *entry.Amount)
	assert.Equal(t, "Ana", entry.Sender)
	assert.Equal(t, targetChat, entry.ChatID)
	assert.Equal(t, upd.Message.MessageID, entry.MessageID)
	assert.Equal(t, upd.Message.Text, entry.Raw)
	assert.False(t, entry.ReceivedAt.IsZero())
	assert.Equal(t, int64(103), state.LastHandled)
}

func TestDispatch_StructuredMessageFromAnyChatAppended(t *testing.T) {
	// Only the button flow is pinned to the target chat; structured records are
	// ingested from whichever chat the bot sees.
	ledger := &fakeSink{}
	d := newTestDispatcher(&fakeAPI{}, ledger)
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(103, 99, "ITEM=Pan|COSTO=1500"), &state)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "99", ledger.entries[0].ChatID)
}

func TestDispatch_PlainChatterSkipped(t *testing.T) {
	ledger := &fakeSink{}
	d := newTestDispatcher(&fakeAPI{}, ledger)
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(104, 42, "hola equipo"), &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, ledger.entries)
	assert.Equal(t, int64(0), state.LastHandled)
}

func TestDispatch_SinkFailureKeepsWatermark(t *testing.T) {
	ledger := &fakeSink{err: errors.New("connection reset")}
	d := newTestDispatcher(&fakeAPI{}, ledger)
	state := poll.PollState{LastHandled: 50}

	handled, err := d.Dispatch(context.Background(), messageUpdate(105, 42, "ITEM=Pan|COSTO=1500"), &state)

	require.Error(t, err)
	assert.False(t, handled)
	assert.Equal(t, int64(50), state.LastHandled, "failed append must not advance the watermark")
}

func TestDispatch_SendFailureStillMarksHandled(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("bad gateway")}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), messageUpdate(106, 42, "menu"), &state)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, int64(106), state.LastHandled)
}

func TestDispatch_ValidCallback(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), callbackUpdate(107, 42, "opt_comida"), &state)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "Registrado: <b>Comida 🍽️</b>", api.sent[0].Text)
	assert.Equal(t, []string{"cb-1"}, api.answered)
	assert.Equal(t, int64(107), state.LastHandled)
}

func TestDispatch_UnknownTokenUsesTokenAsLabel(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), callbackUpdate(108, 42, "opt_red"), &state)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "Registrado: <b>red</b>", api.sent[0].Text)
}

func TestDispatch_ForeignCallbackAckedButNotHandled(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "foreign namespace", data: "other"},
		{name: "bare prefix", data: "opt_"},
		{name: "empty data", data: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			d := newTestDispatcher(api, &fakeSink{})
			state := poll.PollState{}

			handled, err := d.Dispatch(context.Background(), callbackUpdate(109, 42, tc.data), &state)

			require.NoError(t, err)
			assert.False(t, handled)
			assert.Empty(t, api.sent, "no confirmation message for foreign callbacks")
			assert.Len(t, api.answered, 1, "spinner must still be cleared")
			assert.Equal(t, int64(0), state.LastHandled)
		})
	}
}

func TestDispatch_CallbackFromOtherChatIgnored(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDispatcher(api, &fakeSink{})
	state := poll.PollState{}

	handled, err := d.Dispatch(context.Background(), callbackUpdate(110, 99, "opt_comida"), &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, api.sent)
	assert.Empty(t, api.answered)
}

func TestDispatch_UnknownUpdateKindSkipped(t *testing.T) {
	d := newTestDispatcher(&fakeAPI{}, &fakeSink{})
	state := poll.PollState{}

	// A message without text (sticker, photo) classifies as unknown.
	upd := telegram.Update{
		UpdateID: 111,
		Message:  &telegram.Message{Chat: &telegram.Chat{ID: 42}},
	}

	handled, err := d.Dispatch(context.Background(), upd, &state)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, int64(0), state.LastHandled)
}

func TestDispatch_SecondDeliveryIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	ledger := &fakeSink{}
	d := newTestDispatcher(api, ledger)
	state := poll.PollState{}

	upd := messageUpdate(112, 42, "ITEM=Pan|COSTO=1500")

	handled, err := d.Dispatch(context.Background(), upd, &state)
	require.NoError(t, err)
	require.True(t, handled)
	require.Len(t, ledger.entries, 1)

	handled, err = d.Dispatch(context.Background(), upd, &state)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Len(t, ledger.entries, 1, "redelivery must not duplicate the ledger row")
}
