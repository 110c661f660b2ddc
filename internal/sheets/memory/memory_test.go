package memory

import (
	"context"
	"testing"
	"time"

	ports "centsible/internal/sheets"
)

func TestAppendRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendRow(ctx, ports.ExportRow{
		Kind:        "expense",
		When:        time.Now(),
		GroupName:   "Trip",
		Description: "dinner",
		Actor:       "alice",
		AmountCents: 1000,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	ref, err = s.AppendRow(ctx, ports.ExportRow{Kind: "payment", AmountCents: 500})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Description != "dinner" || rows[1].Kind != "payment" {
		t.Errorf("rows out of order: %+v", rows)
	}
}
