package telegram

import "strconv"

// Kind discriminates the two update shapes the bot understands. It is decided
// once at ingestion; downstream code switches on it instead of re-inspecting
// optional fields.
type Kind int

const (
	// KindUnknown marks updates the bot does not handle (edits, joins, polls, ...).
	KindUnknown Kind = iota
	// KindMessage marks a regular text message.
	KindMessage
	// KindCallback marks an inline-keyboard button press.
	KindCallback
)

// Update is one event delivered by getUpdates.
type Update struct {
	UpdateID int64          `json:"update_id"`
	Message  *Message       `json:"message"`
	Callback *CallbackQuery `json:"callback_query"`
}

// Kind classifies the update. A message without text (stickers, photos) counts
// as unknown, matching the ingestion rules of the ledger.
func (u Update) Kind() Kind {
	switch {
	case u.Message != nil && u.Message.Text != "":
		return KindMessage
	case u.Callback != nil:
		return KindCallback
	default:
		return KindUnknown
	}
}

// ChatID returns the originating conversation id as a string, or "" when the
// update carries no chat reference.
func (u Update) ChatID() string {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		return strconv.FormatInt(u.Message.Chat.ID, 10)
	case u.Callback != nil && u.Callback.Message != nil && u.Callback.Message.Chat != nil:
		return strconv.FormatInt(u.Callback.Message.Chat.ID, 10)
	default:
		return ""
	}
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	From      *User  `json:"from"`
	Chat      *Chat  `json:"chat"`
}

// CallbackQuery is the event produced by pressing an inline-keyboard button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// User identifies a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Chat identifies a private, group, or supergroup conversation.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// InlineKeyboardMarkup is the reply_markup payload for sendMessage.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is a single inline button with its callback payload.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// SendMessageRequest is the body of a sendMessage call.
type SendMessageRequest struct {
	ChatID                string                `json:"chat_id"`
	Text                  string                `json:"text"`
	ParseMode             string                `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}
