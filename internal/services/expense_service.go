package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"centsible/internal/amqp"
	"centsible/internal/core"
	"centsible/internal/storage"
)

// cacheInvalidator drops cached reporting views for the given users after a
// ledger write.
type cacheInvalidator interface {
	InvalidateUsers(userIDs ...int64)
}

// ExpenseInput is everything needed to record an expense. Participants may
// be empty for an equal split, in which case every group member takes part.
type ExpenseInput struct {
	GroupID      int64
	PayerID      int64
	Description  string
	AmountCents  int64
	Currency     string
	Method       core.SplitMethod
	Participants []core.SplitParticipant
}

// ExpenseService orchestrates expense recording across SQLite and AMQP.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	reporting  cacheInvalidator
}

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, reporting cacheInvalidator) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
		reporting:  reporting,
	}
}

// CreateExpense validates the split, persists the expense with its ledger
// effects in one transaction, then queues the row for export.
func (s *ExpenseService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, []core.Share, error) {
	if in.Currency == "" {
		in.Currency = core.DefaultCurrency
	}
	if in.Method == "" {
		in.Method = core.SplitEqual
	}

	expense := core.Expense{
		GroupID:     in.GroupID,
		PayerID:     in.PayerID,
		Description: in.Description,
		Amount:      core.Money{Cents: in.AmountCents},
		Currency:    in.Currency,
		Method:      in.Method,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	members, err := s.groupMembers(ctx, in.GroupID, in.PayerID)
	if err != nil {
		return core.Expense{}, nil, err
	}

	participants := in.Participants
	if len(participants) == 0 && in.Method == core.SplitEqual {
		ids := make([]int64, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			participants = append(participants, core.SplitParticipant{UserID: id})
		}
	}
	for _, p := range participants {
		if _, ok := members[p.UserID]; !ok {
			return core.Expense{}, nil, fmt.Errorf("%w: participant %d", ErrNotMember, p.UserID)
		}
	}

	shares, err := core.CalculateSplit(expense.Amount, core.SplitSpec{
		Method:       in.Method,
		Participants: participants,
	})
	if err != nil {
		return core.Expense{}, nil, err
	}

	deltas := core.ExpenseDeltas(in.GroupID, in.PayerID, shares)

	saved, err := s.storage.CreateExpense(ctx, expense, shares, deltas)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("save expense: %w", err)
	}

	s.invalidate(shares, in.PayerID)

	// Publish async export message. The request does not fail if the broker
	// is down; the worker sweep picks the row up later.
	if err := s.publishExportMessage(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"expense_id", saved.ID, "error", err)
	}

	return saved, shares, nil
}

// GetExpense returns one expense with its splits, for members only.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, expenseID int64) (core.Expense, []core.ExpenseSplit, error) {
	expense, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, nil, err
	}
	if _, err := s.groupMembers(ctx, expense.GroupID, userID); err != nil {
		return core.Expense{}, nil, err
	}
	splits, err := s.storage.GetExpenseSplits(ctx, expenseID)
	if err != nil {
		return core.Expense{}, nil, err
	}
	return expense, splits, nil
}

// ListGroupExpenses returns recent expenses for a group the user belongs to.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, userID, groupID int64, limit int) ([]core.Expense, error) {
	if _, err := s.groupMembers(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.storage.ListGroupExpenses(ctx, groupID, limit)
}

func (s *ExpenseService) groupMembers(ctx context.Context, groupID, userID int64) (map[int64]struct{}, error) {
	ids, err := s.storage.ListMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	if _, ok := members[userID]; !ok {
		return nil, ErrNotMember
	}
	return members, nil
}

func (s *ExpenseService) invalidate(shares []core.Share, payerID int64) {
	if s.reporting == nil {
		return
	}
	ids := []int64{payerID}
	for _, sh := range shares {
		if sh.UserID != payerID {
			ids = append(ids, sh.UserID)
		}
	}
	s.reporting.InvalidateUsers(ids...)
}

func (s *ExpenseService) publishExportMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishExpenseExport(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
