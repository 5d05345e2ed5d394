package record

import (
	"testing"
	"time"
)

func TestParse_StructuredMessage(t *testing.T) {
	rec := Parse("FECHA=2025-08-24|ITEM=Comida|COSTO=12.500")
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}

	wantDate := time.Date(2025, time.August, 24, 0, 0, 0, 0, time.Local)
	if rec.Date == nil || !rec.Date.Equal(wantDate) {
		t.Errorf("Date = %v, expected %v", rec.Date, wantDate)
	}
	if rec.Item != "Comida" {
		t.Errorf("Item = %q, expected %q", rec.Item, "Comida")
	}
	if rec.Amount == nil || *rec.Amount != 12500 {
		t.Errorf("Amount = %v, expected 12500", rec.Amount)
	}
	if rec.Raw != "FECHA=2025-08-24|ITEM=Comida|COSTO=12.500" {
		t.Errorf("Raw = %q, original text not preserved", rec.Raw)
	}
}

func TestParse_Aliases(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		wantItem   string
		wantAmount float64
	}{
		{name: "canonical keys", text: "ITEM=Pan|COSTO=1500", wantItem: "Pan", wantAmount: 1500},
		{name: "concepto and valor", text: "CONCEPTO=Pan|VALOR=1500", wantItem: "Pan", wantAmount: 1500},
		{name: "descripcion and monto", text: "DESCRIPCION=Pan|MONTO=1500", wantItem: "Pan", wantAmount: 1500},
		{name: "lowercase keys", text: "item=Pan|costo=1500", wantItem: "Pan", wantAmount: 1500},
		{name: "decimal comma", text: "ITEM=Pan|VALOR=1,5", wantItem: "Pan", wantAmount: 1.5},
		{name: "canonical wins over alias", text: "ITEM=Pan|CONCEPTO=Leche|COSTO=1500", wantItem: "Pan", wantAmount: 1500},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := Parse(tc.text)
			if rec == nil {
				t.Fatalf("Parse(%q) = nil, expected a record", tc.text)
			}
			if rec.Item != tc.wantItem {
				t.Errorf("Item = %q, expected %q", rec.Item, tc.wantItem)
			}
			if rec.Amount == nil || *rec.Amount != tc.wantAmount {
				t.Errorf("Amount = %v, expected %v", rec.Amount, tc.wantAmount)
			}
		})
	}
}

func TestParse_DateAlias(t *testing.T) {
	rec := Parse("DATE=2025-08-24|CONCEPTO=X|VALOR=1,5")
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}

	wantDate := time.Date(2025, time.August, 24, 0, 0, 0, 0, time.Local)
	if rec.Date == nil || !rec.Date.Equal(wantDate) {
		t.Errorf("Date = %v, expected %v", rec.Date, wantDate)
	}
	if rec.Item != "X" {
		t.Errorf("Item = %q, expected %q", rec.Item, "X")
	}
	if rec.Amount == nil || *rec.Amount != 1.5 {
		t.Errorf("Amount = %v, expected 1.5", rec.Amount)
	}
}

func TestParse_NewlineSeparators(t *testing.T) {
	rec := Parse("FECHA=2025-01-02\nITEM=Arriendo\nCOSTO=850000")
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}
	if rec.Item != "Arriendo" {
		t.Errorf("Item = %q, expected %q", rec.Item, "Arriendo")
	}
	if rec.Amount == nil || *rec.Amount != 850000 {
		t.Errorf("Amount = %v, expected 850000", rec.Amount)
	}
}

func TestParse_NotStructured(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "plain chatter", text: "hola, cómo van las cuentas?"},
		{name: "equals but no known key", text: "x=1|y=2"},
		{name: "empty", text: ""},
		{name: "separators only", text: "|||\n\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if rec := Parse(tc.text); rec != nil {
				t.Errorf("Parse(%q) = %+v, expected nil", tc.text, rec)
			}
		})
	}
}

func TestParse_MalformedFieldsKeptAsNil(t *testing.T) {
	// One known key is enough; bad date and bad amount degrade to nil instead
	// of rejecting the record.
	rec := Parse("FECHA=ayer|ITEM=Pan|COSTO=mucho")
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}
	if rec.Date != nil {
		t.Errorf("Date = %v, expected nil for malformed input", rec.Date)
	}
	if rec.Amount != nil {
		t.Errorf("Amount = %v, expected nil for malformed input", rec.Amount)
	}
	if rec.Item != "Pan" {
		t.Errorf("Item = %q, expected %q", rec.Item, "Pan")
	}
}

func TestNormalizeDate(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{name: "iso", input: "2025-08-24", want: datePtr(2025, time.August, 24)},
		{name: "local slashes", input: "24/08/2025", want: datePtr(2025, time.August, 24)},
		{name: "local dashes", input: "24-8-2025", want: datePtr(2025, time.August, 24)},
		{name: "local dots", input: "1.12.2025", want: datePtr(2025, time.December, 1)},
		{name: "surrounding spaces", input: "  2025-08-24  ", want: datePtr(2025, time.August, 24)},
		{name: "empty", input: "", want: nil},
		{name: "words", input: "ayer", want: nil},
		{name: "two digit year", input: "24/08/25", want: nil},
		{name: "iso with time", input: "2025-08-24T10:00:00", want: nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeDate(tc.input)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("NormalizeDate(%q) = %v, expected nil", tc.input, got)
			case tc.want != nil && (got == nil || !got.Equal(*tc.want)):
				t.Errorf("NormalizeDate(%q) = %v, expected %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  *float64
	}{
		{name: "plain integer", input: "12345", want: floatPtr(12345)},
		{name: "thousands dot", input: "12.500", want: floatPtr(12500)},
		{name: "decimal comma", input: "1,5", want: floatPtr(1.5)},
		{name: "thousands and decimals", input: "1.234.567,89", want: floatPtr(1234567.89)},
		{name: "surrounding spaces", input: " 1500 ", want: floatPtr(1500)},
		{name: "empty", input: "", want: nil},
		{name: "words", input: "mucho", want: nil},
		{name: "currency sign", input: "$1500", want: nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAmount(tc.input)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("NormalizeAmount(%q) = %v, expected nil", tc.input, *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Errorf("NormalizeAmount(%q) = %v, expected %v", tc.input, got, *tc.want)
			}
		})
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return &t
}

func floatPtr(v float64) *float64 {
	return &v
}
