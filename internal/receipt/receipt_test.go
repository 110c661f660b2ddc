package receipt

import "testing"

func TestExtractAmountFromLine(t *testing.T) {
	cases := []struct {
		line  string
		want  int64
		found bool
	}{
		{"Grand Total: $123.45", 12345, true},
		{"Amount Due 1,234.56", 123456, true},
		{"$77.00", 7700, true},
		{"Coffee 3.5", 350, true},
		{"Thank you!", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, found := ExtractAmountFromLine(tc.line)
		if found != tc.found {
			t.Errorf("ExtractAmountFromLine(%q) found = %v, want %v", tc.line, found, tc.found)
			continue
		}
		if found && got != tc.want {
			t.Errorf("ExtractAmountFromLine(%q) = %d, want %d", tc.line, got, tc.want)
		}
	}
}

func TestFindTotalPrefersKeywordLine(t *testing.T) {
	text := `
Items: $10.00
Balance Due: $88.11
Thank you!
`
	got, ok := FindTotalInText(text)
	if !ok || got != 8811 {
		t.Fatalf("got %d (%v), want 8811", got, ok)
	}
}

func TestFindTotalFallsBackToNextLine(t *testing.T) {
	text := `
Total Amount
$77.00
`
	got, ok := FindTotalInText(text)
	if !ok || got != 7700 {
		t.Fatalf("got %d (%v), want 7700", got, ok)
	}
}

func TestFindTotalIgnoresSubtotal(t *testing.T) {
	text := `
Item 1: $10.00
Item 2: $15.50
Subtotal: $25.50
Tax: $2.00
Total: $27.50
`
	got, ok := FindTotalInText(text)
	if !ok || got != 2750 {
		t.Fatalf("got %d (%v), want 2750", got, ok)
	}
}

func TestFindTotalIgnoresSubtotalVariations(t *testing.T) {
	text := `
Items: $50.00
Sub-Total: $50.00
Tax: $4.00
Grand Total: $54.00
`
	got, ok := FindTotalInText(text)
	if !ok || got != 5400 {
		t.Fatalf("got %d (%v), want 5400", got, ok)
	}
}

func TestFindTotalFallsBackToLargestAmount(t *testing.T) {
	text := `
Espresso 2.50
Croissant 4.00
`
	got, ok := FindTotalInText(text)
	if !ok || got != 400 {
		t.Fatalf("got %d (%v), want 400", got, ok)
	}
}

func TestFindTotalEmptyText(t *testing.T) {
	if got, ok := FindTotalInText(""); ok {
		t.Fatalf("expected no amount, got %d", got)
	}
}
