package dispatch

import (
	"strings"

	"github.com/gastolog/gastobot/internal/telegram"
)

// EncodeCallback renders the wire form of an option token.
func EncodeCallback(token string) string {
	return CallbackPrefix + token
}

// DecodeCallback strips the callback prefix from the wire data. ok=false means
// the data does not belong to the option keyboard and the token is always
// empty; the token may also be empty when the data is exactly the prefix.
func DecodeCallback(data string) (token string, ok bool) {
	token, ok = strings.CutPrefix(data, CallbackPrefix)
	if !ok {
		return "", false
	}

	return token, true
}

// BuildKeyboard renders the static option list as an inline keyboard, one
// button per row.
func BuildKeyboard(options []ButtonOption) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{
				Text:         opt.Label,
				CallbackData: EncodeCallback(opt.Token),
			},
		})
	}

	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// OptionLabel resolves a token back to its configured label, falling back to
// the token itself for options removed from the list after deployment.
func OptionLabel(token string) string {
	for _, opt := range Options {
		if opt.Token == token {
			return opt.Label
		}
	}

	return token
}
