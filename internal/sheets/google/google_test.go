package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ports "centsible/internal/sheets"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-123"})
	if err == nil {
		t.Fatal("expected error for missing oauth client")
	}
}

func TestReadInlineOrFile(t *testing.T) {
	t.Run("inline wins", func(t *testing.T) {
		b, err := readInlineOrFile(`{"a":1}`, "/does/not/exist.json")
		if err != nil {
			t.Fatalf("readInlineOrFile: %v", err)
		}
		if string(b) != `{"a":1}` {
			t.Errorf("got %q", b)
		}
	})

	t.Run("file fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		if err := os.WriteFile(path, []byte(`{"b":2}`), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		b, err := readInlineOrFile("", path)
		if err != nil {
			t.Fatalf("readInlineOrFile: %v", err)
		}
		if string(b) != `{"b":2}` {
			t.Errorf("got %q", b)
		}
	})

	t.Run("neither provided", func(t *testing.T) {
		if _, err := readInlineOrFile("", ""); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRowValues(t *testing.T) {
	row := ports.ExportRow{
		Kind:         "expense",
		When:         time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		GroupName:    "Trip",
		Description:  "dinner",
		Actor:        "alice",
		Counterparty: "",
		AmountCents:  1234,
		Currency:     "USD",
	}

	values := rowValues(row)
	if len(values) != 8 {
		t.Fatalf("values = %d columns, want 8", len(values))
	}
	if values[0] != "2025-03-14" {
		t.Errorf("date = %v", values[0])
	}
	if values[6] != 12.34 {
		t.Errorf("amount = %v, want 12.34", values[6])
	}
}
