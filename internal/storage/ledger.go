package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"centsible/internal/core"
)

// CreateExpense records the expense, its splits, and the resulting pairwise
// balance updates in one transaction. Either every effect lands or none does.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense, shares []core.Share, deltas []core.Delta) (core.Expense, error) {
	createdAt := now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (group_id, payer_id, description, amount_cents, currency, split_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.GroupID, e.PayerID, e.Description, e.Amount.Cents, e.Currency, string(e.Method), createdAt,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", wrapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	for _, s := range shares {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES (?, ?, ?)",
			id, s.UserID, s.Amount.Cents,
		); err != nil {
			return core.Expense{}, fmt.Errorf("insert split for user %d: %w", s.UserID, wrapConstraint(err))
		}
	}

	for _, d := range deltas {
		if err := applyDeltaTx(ctx, tx, d, createdAt); err != nil {
			return core.Expense{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit expense: %w", err)
	}

	e.ID = id
	e.CreatedAt = time.Unix(createdAt, 0)
	return e, nil
}

// CreatePayment records the transfer and nets it against the pair's balance
// in one transaction.
func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment, delta core.Delta) (core.Payment, error) {
	createdAt := now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Payment{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payments (group_id, payer_id, payee_id, description, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.GroupID, p.PayerID, p.PayeeID, p.Description, p.Amount.Cents, createdAt,
	)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment id: %w", err)
	}

	if err := applyDeltaTx(ctx, tx, delta, createdAt); err != nil {
		return core.Payment{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Payment{}, fmt.Errorf("commit payment: %w", err)
	}

	p.ID = id
	p.CreatedAt = time.Unix(createdAt, 0)
	return p, nil
}

// applyDeltaTx folds one debt delta into the pair's balance row: read the
// current row for the unordered pair, resolve the new state, then write it
// back as an update, insert, or delete.
func applyDeltaTx(ctx context.Context, tx *sql.Tx, d core.Delta, updatedAt int64) error {
	var existing *core.PairBalance
	var b core.PairBalance
	var rowUpdated int64
	err := tx.QueryRowContext(ctx, `
		SELECT id, group_id, lender_id, borrower_id, amount_cents, updated_at
		FROM balances
		WHERE group_id = ?
		  AND ((lender_id = ? AND borrower_id = ?) OR (lender_id = ? AND borrower_id = ?))`,
		d.GroupID, d.CreditorID, d.DebtorID, d.DebtorID, d.CreditorID,
	).Scan(&b.ID, &b.GroupID, &b.LenderID, &b.BorrowerID, &b.Amount.Cents, &rowUpdated)
	switch {
	case err == sql.ErrNoRows:
		existing = nil
	case err != nil:
		return fmt.Errorf("query pair balance: %w", err)
	default:
		b.UpdatedAt = time.Unix(rowUpdated, 0)
		existing = &b
	}

	next, err := core.ResolveDelta(existing, d)
	if err != nil {
		return fmt.Errorf("resolve balance delta: %w", err)
	}

	switch {
	case existing == nil && next == nil:
		return nil
	case existing == nil:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO balances (group_id, lender_id, borrower_id, amount_cents, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			next.GroupID, next.LenderID, next.BorrowerID, next.Amount.Cents, updatedAt, updatedAt,
		); err != nil {
			return fmt.Errorf("insert pair balance: %w", err)
		}
	case next == nil:
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM balances WHERE id = ?", existing.ID,
		); err != nil {
			return fmt.Errorf("delete settled balance: %w", err)
		}
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE balances SET lender_id = ?, borrower_id = ?, amount_cents = ?, updated_at = ? WHERE id = ?",
			next.LenderID, next.BorrowerID, next.Amount.Cents, updatedAt, existing.ID,
		); err != nil {
			return fmt.Errorf("update pair balance: %w", err)
		}
	}
	return nil
}

// --- balance queries ---

func (r *SQLiteRepository) ListBalancesForUser(ctx context.Context, userID int64) ([]core.PairBalance, error) {
	return r.queryBalances(ctx,
		`SELECT id, group_id, lender_id, borrower_id, amount_cents, updated_at
		 FROM balances WHERE lender_id = ? OR borrower_id = ?
		 ORDER BY group_id, id`, userID, userID)
}

func (r *SQLiteRepository) ListGroupBalances(ctx context.Context, groupID int64) ([]core.PairBalance, error) {
	return r.queryBalances(ctx,
		`SELECT id, group_id, lender_id, borrower_id, amount_cents, updated_at
		 FROM balances WHERE group_id = ?
		 ORDER BY id`, groupID)
}

func (r *SQLiteRepository) queryBalances(ctx context.Context, query string, args ...any) ([]core.PairBalance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	var balances []core.PairBalance
	for rows.Next() {
		var b core.PairBalance
		var updatedAt int64
		if err := rows.Scan(&b.ID, &b.GroupID, &b.LenderID, &b.BorrowerID, &b.Amount.Cents, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.UpdatedAt = time.Unix(updatedAt, 0)
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// --- expense and payment queries ---

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	var method string
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, payer_id, description, amount_cents, currency, split_method, created_at
		FROM expenses WHERE id = ?`, id,
	).Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount.Cents, &e.Currency, &method, &createdAt)
	if err == sql.ErrNoRows {
		return core.Expense{}, fmt.Errorf("expense: %w", ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Method = core.SplitMethod(method)
	e.CreatedAt = time.Unix(createdAt, 0)
	return e, nil
}

func (r *SQLiteRepository) GetExpenseSplits(ctx context.Context, expenseID int64) ([]core.ExpenseSplit, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, expense_id, user_id, amount_cents FROM expense_splits WHERE expense_id = ? ORDER BY id",
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	var splits []core.ExpenseSplit
	for rows.Next() {
		var s core.ExpenseSplit
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

func (r *SQLiteRepository) ListGroupExpenses(ctx context.Context, groupID int64, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, payer_id, description, amount_cents, currency, split_method, created_at
		FROM expenses WHERE group_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var method string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount.Cents, &e.Currency, &method, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Method = core.SplitMethod(method)
		e.CreatedAt = time.Unix(createdAt, 0)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListExpensesInvolvingUser returns expenses the user paid or participated
// in, each with the full participant id list for activity rendering.
func (r *SQLiteRepository) ListExpensesInvolvingUser(ctx context.Context, userID int64, limit int) ([]core.ExpenseWithParticipants, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT e.id, e.group_id, e.payer_id, e.description, e.amount_cents, e.currency, e.split_method, e.created_at
		FROM expenses e
		LEFT JOIN expense_splits s ON s.expense_id = e.id
		WHERE e.payer_id = ? OR s.user_id = ?
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.ExpenseWithParticipants
	for rows.Next() {
		var e core.Expense
		var method string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount.Cents, &e.Currency, &method, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Method = core.SplitMethod(method)
		e.CreatedAt = time.Unix(createdAt, 0)
		expenses = append(expenses, core.ExpenseWithParticipants{Expense: e})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expenses {
		splits, err := r.GetExpenseSplits(ctx, expenses[i].Expense.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(splits))
		for _, s := range splits {
			ids = append(ids, s.UserID)
		}
		expenses[i].ParticipantIDs = ids
	}
	return expenses, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	var p core.Payment
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, payer_id, payee_id, description, amount_cents, created_at
		FROM payments WHERE id = ?`, id,
	).Scan(&p.ID, &p.GroupID, &p.PayerID, &p.PayeeID, &p.Description, &p.Amount.Cents, &createdAt)
	if err == sql.ErrNoRows {
		return core.Payment{}, fmt.Errorf("payment: %w", ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return p, nil
}

func (r *SQLiteRepository) ListPaymentsInvolvingUser(ctx context.Context, userID int64, limit int) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, payer_id, payee_id, description, amount_cents, created_at
		FROM payments WHERE payer_id = ? OR payee_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var p core.Payment
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.GroupID, &p.PayerID, &p.PayeeID, &p.Description, &p.Amount.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
