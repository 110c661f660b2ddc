// Package worker drains the export queue: it resolves queued expense and
// payment ids to full rows and appends them to the configured sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"centsible/internal/amqp"
	"centsible/internal/core"
	"centsible/internal/sheets"
	"centsible/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.RowAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender sheets.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"kind", msg.Kind,
		"id", msg.ID,
		"message_id", msg.MessageID)

	switch msg.Kind {
	case amqp.KindExpense:
		return w.exportExpense(ctx, msg.ID)
	case amqp.KindPayment:
		return w.exportPayment(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown export kind %q", msg.Kind)
	}
}

// ProcessPending drains up to one batch of rows that never made it to the
// sheet. This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSweep retries everything still pending or failed at worker startup.
// Useful to recover from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupSweep(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *ExportWorker) processPending(ctx context.Context, limit int) error {
	items, err := w.storage.PendingExports(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(items))

	successCount := 0
	errorCount := 0
	for _, item := range items {
		var err error
		switch item.Kind {
		case core.ActivityExpense:
			err = w.exportExpense(ctx, item.ID)
		case core.ActivityPayment:
			err = w.exportPayment(ctx, item.ID)
		default:
			err = fmt.Errorf("unknown export kind %q", item.Kind)
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export pending row",
				"kind", item.Kind, "id", item.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Pending export pass completed",
		"total", len(items),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	group, err := w.storage.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	names, err := w.storage.UserNames(ctx, []int64{expense.PayerID})
	if err != nil {
		return fmt.Errorf("resolve payer name: %w", err)
	}

	row := sheets.ExportRow{
		Kind:        string(core.ActivityExpense),
		When:        expense.CreatedAt,
		GroupName:   group.Name,
		Description: expense.Description,
		Actor:       names[expense.PayerID],
		AmountCents: expense.Amount.Cents,
		Currency:    expense.Currency,
	}

	return w.appendRow(ctx, core.ActivityExpense, id, row)
}

func (w *ExportWorker) exportPayment(ctx context.Context, id int64) error {
	payment, err := w.storage.GetPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}
	group, err := w.storage.GetGroup(ctx, payment.GroupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	names, err := w.storage.UserNames(ctx, []int64{payment.PayerID, payment.PayeeID})
	if err != nil {
		return fmt.Errorf("resolve participant names: %w", err)
	}

	row := sheets.ExportRow{
		Kind:         string(core.ActivityPayment),
		When:         payment.CreatedAt,
		GroupName:    group.Name,
		Description:  payment.Description,
		Actor:        names[payment.PayerID],
		Counterparty: names[payment.PayeeID],
		AmountCents:  payment.Amount.Cents,
		Currency:     core.DefaultCurrency,
	}

	return w.appendRow(ctx, core.ActivityPayment, id, row)
}

func (w *ExportWorker) appendRow(ctx context.Context, kind core.ActivityKind, id int64, row sheets.ExportRow) error {
	ref, err := w.appender.AppendRow(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkExportFailed(ctx, kind, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export failure",
				"kind", kind, "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExported(ctx, kind, id); err != nil {
		// The row did land on the sheet; the sweep may append it again,
		// which is preferable to losing it.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"kind", kind, "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported activity row",
		"kind", kind,
		"id", id,
		"sheets_ref", ref,
		"amount_cents", row.AmountCents)

	return nil
}
