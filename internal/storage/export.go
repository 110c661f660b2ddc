package storage

import (
	"context"
	"fmt"

	"centsible/internal/core"
)

// Export states for the spreadsheet sync queue. Rows start pending, move to
// exported once the worker appends them, or to failed after the worker gives
// up. Failed rows are picked up again by the startup sweep.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportFailed  = "failed"
)

// ExportItem identifies one row awaiting export.
type ExportItem struct {
	Kind core.ActivityKind
	ID   int64
}

func exportTable(kind core.ActivityKind) (string, error) {
	switch kind {
	case core.ActivityExpense:
		return "expenses", nil
	case core.ActivityPayment:
		return "payments", nil
	default:
		return "", fmt.Errorf("unknown export kind %q", kind)
	}
}

// PendingExports lists rows still waiting for the spreadsheet, oldest first,
// across both expenses and payments. Failed rows are included so the sweep
// retries them.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]ExportItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, id FROM (
			SELECT 'expense' AS kind, id, created_at FROM expenses WHERE export_state <> ?
			UNION ALL
			SELECT 'payment' AS kind, id, created_at FROM payments WHERE export_state <> ?
		)
		ORDER BY created_at, id
		LIMIT ?`, ExportDone, ExportDone, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var items []ExportItem
	for rows.Next() {
		var kind string
		var id int64
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		items = append(items, ExportItem{Kind: core.ActivityKind(kind), ID: id})
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, kind core.ActivityKind, id int64) error {
	return r.setExportState(ctx, kind, id, ExportDone)
}

func (r *SQLiteRepository) MarkExportFailed(ctx context.Context, kind core.ActivityKind, id int64) error {
	return r.setExportState(ctx, kind, id, ExportFailed)
}

func (r *SQLiteRepository) setExportState(ctx context.Context, kind core.ActivityKind, id int64, state string) error {
	table, err := exportTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET export_state = ? WHERE id = ?", table), state, id)
	if err != nil {
		return fmt.Errorf("update export state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("export state rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
