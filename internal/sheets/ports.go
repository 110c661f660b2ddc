package sheets

import (
	"context"
	"time"
)

// ExportRow is one line of group activity flattened for a spreadsheet.
type ExportRow struct {
	Kind         string
	When         time.Time
	GroupName    string
	Description  string
	Actor        string
	Counterparty string
	AmountCents  int64
	Currency     string
}

// Ports for outbound adapters.
type (
	// RowAppender writes activity rows to an external sheet.
	RowAppender interface {
		AppendRow(ctx context.Context, row ExportRow) (rowRef string, err error)
	}
)
