package record

import (
	"strconv"
	"strings"

	"github.com/gastolog/gastobot/internal/telegram"
)

// DisplayName renders a sender for the ledger. Preference order: joined first
// and last name, then "@username", then the numeric id, then empty.
func DisplayName(from *telegram.User) string {
	if from == nil {
		return ""
	}

	parts := make([]string, 0, 2)
	if from.FirstName != "" {
		parts = append(parts, from.FirstName)
	}
	if from.LastName != "" {
		parts = append(parts, from.LastName)
	}

	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		return name
	}

	if from.Username != "" {
		return "@" + from.Username
	}

	if from.ID != 0 {
		return strconv.FormatInt(from.ID, 10)
	}

	return ""
}
