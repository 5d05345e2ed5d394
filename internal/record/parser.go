package record

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Key aliases accepted in structured messages, first match wins.
var (
	dateKeys   = []string{"FECHA", "DATE"}
	itemKeys   = []string{"ITEM", "CONCEPTO", "DESCRIPCION"}
	amountKeys = []string{"COSTO", "VALOR", "MONTO"}
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	localDateRe = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
)

// Parse turns a free-text message into a Record using a permissive KEY=value
// grammar: segments split on '|' or newline, each segment split on the first
// '='. Keys are case-insensitive. When none of the recognized keys is present
// the message is not structured data and Parse returns nil; that is not an
// error condition.
func Parse(text string) *Record {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '|' || r == '\n'
	})

	kv := make(map[string]string, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		idx := strings.Index(segment, "=")
		if idx < 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(segment[:idx]))
		value := strings.TrimSpace(segment[idx+1:])
		kv[key] = value
	}

	dateRaw, dateOK := firstKey(kv, dateKeys)
	itemRaw, itemOK := firstKey(kv, itemKeys)
	amountRaw, amountOK := firstKey(kv, amountKeys)

	if !dateOK && !itemOK && !amountOK {
		return nil
	}

	return &Record{
		Date:   NormalizeDate(dateRaw),
		Item:   itemRaw,
		Amount: NormalizeAmount(amountRaw),
		Raw:    text,
	}
}

// NormalizeDate accepts exactly YYYY-MM-DD and D/M/YYYY (with '/', '-' or '.'
// separators). Anything else yields nil; a malformed date never rejects the
// whole record.
func NormalizeDate(v string) *time.Time {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}

	if m := localDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1])
	}

	return nil
}

// NormalizeAmount strips '.' thousands separators, converts the ',' decimal
// separator to '.', and parses the result. Non-numeric input yields nil. The
// thousands-dot/decimal-comma locale is a fixed assumption of the ledger.
func NormalizeAmount(v string) *float64 {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	return &n
}

func firstKey(kv map[string]string, keys []string) (string, bool) {
	for _, key := range keys {
		if value, ok := kv[key]; ok {
			return value, true
		}
	}

	return "", false
}

func buildDate(year, month, day string) *time.Time {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	return &t
}
